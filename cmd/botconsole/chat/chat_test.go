package chatcmder_test

import (
	"bytes"
	"net"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	chatcmder "github.com/papercomputeco/botconsole/cmd/botconsole/chat"
	"github.com/papercomputeco/botconsole/mock"
	"github.com/papercomputeco/botconsole/pkg/dotdir"
	"github.com/papercomputeco/botconsole/pkg/logger"
)

var _ = Describe("NewChatCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := chatcmder.NewChatCmd()
		Expect(cmd.Use).To(Equal("chat"))
	})

	It("registers the client and transcript flags", func() {
		cmd := chatcmder.NewChatCmd()
		for _, name := range []string{"base-url", "session-cookie", "agent", "agent-id", "sqlite", "postgres", "kafka-brokers", "kafka-topic", "log-file"} {
			Expect(cmd.Flags().Lookup(name)).NotTo(BeNil(), name)
		}
		Expect(cmd.Flags().Lookup("agent").Shorthand).To(Equal("a"))
	})
})

var _ = Describe("Chat session", func() {
	var (
		server    *mock.Server
		baseURL   string
		configDir string
		out       *bytes.Buffer
		errOut    *bytes.Buffer
	)

	run := func(input string, args ...string) error {
		root := &cobra.Command{Use: "botconsole"}
		root.PersistentFlags().BoolP("debug", "d", false, "")
		root.PersistentFlags().String("config-dir", "", "")
		root.AddCommand(chatcmder.NewChatCmd())
		root.SetIn(strings.NewReader(input))
		root.SetOut(out)
		root.SetErr(errOut)
		root.SetArgs(append([]string{"chat", "--config-dir", configDir, "--base-url", baseURL}, args...))
		return root.Execute()
	}

	BeforeEach(func() {
		server = mock.NewServer(mock.Config{Answer: "From the mock."}, logger.Nop())
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())
		baseURL = "http://" + ln.Addr().String()
		go func() {
			defer GinkgoRecover()
			_ = server.Serve(ln)
		}()
		DeferCleanup(server.Shutdown)

		configDir = filepath.Join(GinkgoT().TempDir(), ".botconsole")
		out = &bytes.Buffer{}
		errOut = &bytes.Buffer{}
	})

	It("streams answers and lists recorded turns", func() {
		err := run("hello\n/history\n/exit\n", "--agent", server.AgentToken())
		Expect(err).NotTo(HaveOccurred())

		Expect(out.String()).To(ContainSubstring("You asked: hello. From the mock."))
		Expect(out.String()).To(ContainSubstring("hello"))
		Expect(out.String()).NotTo(ContainSubstring("No turns recorded yet."))
	})

	It("reports an empty history", func() {
		Expect(run("/history\n", "--agent", server.AgentToken())).To(Succeed())
		Expect(out.String()).To(ContainSubstring("No turns recorded yet."))
	})

	It("persists turns to SQLite", func() {
		dbPath := filepath.Join(GinkgoT().TempDir(), "turns.db")
		Expect(run("first\n", "--agent", server.AgentToken(), "--sqlite", dbPath)).To(Succeed())

		out.Reset()
		Expect(run("/history\n", "--agent", server.AgentToken(), "--sqlite", dbPath)).To(Succeed())
		Expect(out.String()).To(ContainSubstring("first"))
	})

	It("loads the playground and remembers the session", func() {
		Expect(run("/exit\n", "--agent-id", "1")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Playground conversation"))

		state, err := dotdir.NewManager().LoadSessionState(configDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(state).NotTo(BeNil())
		Expect(state.AgentToken).To(Equal(server.AgentToken()))
		Expect(state.AgentID).To(Equal(int64(1)))
		Expect(state.ConversationID).NotTo(BeZero())

		out.Reset()
		Expect(run("again\n")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("You asked: again."))
	})

	It("clears the playground conversation", func() {
		Expect(run("hello\n/clear\n", "--agent-id", "1")).To(Succeed())
		Expect(errOut.String()).To(ContainSubstring("Chat history cleared successfully"))
	})

	It("prints stream errors as toasts", func() {
		Expect(run("hello\n", "--agent", mock.AgentMissingKey)).To(Succeed())
		Expect(errOut.String()).To(ContainSubstring("API Key Missing"))
	})

	It("lists notifications once with /notices", func() {
		Expect(run("hello\n/notices\n/notices\n", "--agent", mock.AgentMissingKey)).To(Succeed())
		Expect(out.String()).To(ContainSubstring("API Key Missing:"))
		Expect(out.String()).To(ContainSubstring("No notifications."))
	})

	It("fails without an agent", func() {
		err := run("hello\n")
		Expect(err).To(MatchError(ContainSubstring("no agent configured")))
	})

	It("fails without a base URL", func() {
		Expect(run("hello\n", "--agent", "x", "--base-url=")).To(MatchError(ContainSubstring("base URL")))
	})

	It("writes JSON logs to --log-file", func() {
		logPath := filepath.Join(GinkgoT().TempDir(), "chat.log")
		Expect(run("hello\n", "--agent", mock.AgentError, "--log-file", logPath)).To(Succeed())

		data, err := os.ReadFile(logPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`"level":"ERROR"`))
	})
})
