package askcmder_test

import (
	"bytes"
	"context"
	"net"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	askcmder "github.com/papercomputeco/botconsole/cmd/botconsole/ask"
	"github.com/papercomputeco/botconsole/mock"
	"github.com/papercomputeco/botconsole/pkg/logger"
	"github.com/papercomputeco/botconsole/pkg/storage/sqlite"
)

var _ = Describe("Ask command", func() {
	var (
		server    *mock.Server
		baseURL   string
		configDir string
		out       *bytes.Buffer
		errOut    *bytes.Buffer
	)

	run := func(args ...string) error {
		root := &cobra.Command{Use: "botconsole"}
		root.PersistentFlags().BoolP("debug", "d", false, "")
		root.PersistentFlags().String("config-dir", "", "")
		root.AddCommand(askcmder.NewAskCmd())
		root.SetOut(out)
		root.SetErr(errOut)
		root.SetArgs(append([]string{"ask", "--config-dir", configDir, "--base-url", baseURL}, args...))
		return root.Execute()
	}

	BeforeEach(func() {
		server = mock.NewServer(mock.Config{Answer: "Here you go."}, logger.Nop())
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

	It("requires a question", func() {
		Expect(run("--agent", server.AgentToken())).To(HaveOccurred())
	})

	It("streams the answer", func() {
		Expect(run("--agent", server.AgentToken(), "opening", "hours")).To(Succeed())
		Expect(out.String()).To(Equal("You asked: opening hours. Here you go.\n"))
	})

	It("renders the answer with --render", func() {
		Expect(run("--agent", server.AgentToken(), "--render", "hi")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Here you go."))
	})

	It("fails on a stream error outcome", func() {
		err := run("--agent", server.AgentToken(), "--base-url=http://127.0.0.1:1", "hi")
		Expect(err).To(HaveOccurred())
		Expect(errOut.String()).To(ContainSubstring("Stream Error"))
	})

	It("does not fail when the agent reports an error mid-answer", func() {
		Expect(run("--agent", mock.AgentError, "hi")).To(Succeed())
		Expect(errOut.String()).To(ContainSubstring("The model provider failed mid-answer."))
		Expect(out.String()).To(ContainSubstring("**Error:** Stream interrupted."))
	})

	It("resolves the agent from --agent-id", func() {
		Expect(run("--agent-id", "1", "hi")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("You asked: hi."))
	})

	It("records the turn when storage is configured", func() {
		dbPath := filepath.Join(GinkgoT().TempDir(), "turns.db")
		Expect(run("--agent", server.AgentToken(), "--sqlite", dbPath, "remember", "me")).To(Succeed())

		driver, err := sqlite.NewDriver(context.Background(), dbPath)
		Expect(err).NotTo(HaveOccurred())
		defer driver.Close()

		turns, err := driver.ListTurns(context.Background(), server.AgentToken(), 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(turns).To(ConsistOf(HaveField("Question", "remember me")))
	})
})
