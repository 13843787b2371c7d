package mockcmder

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("mock command", func() {
	It("defaults to JSON logs", func() {
		cmd := NewMockCmd()
		flag := cmd.Flags().Lookup("log-format")
		Expect(flag).NotTo(BeNil())
		Expect(flag.DefValue).To(Equal("json"))
		Expect(cmd.Flags().Lookup("log-file")).NotTo(BeNil())
	})

	It("rejects an unknown log format", func() {
		cmder := &mockCommander{logFormat: "xml"}
		Expect(cmder.setupLogger()).To(MatchError(ContainSubstring(`unknown log format "xml"`)))
	})

	It("copies debug logs with their source to the log file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "mock.log")
		cmder := &mockCommander{logFormat: "json", logFile: path, debug: true}
		Expect(cmder.setupLogger()).To(Succeed())
		defer cmder.logOut.Close()

		cmder.logger.Debug("stream opened", "agent", "01HX")

		raw, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())

		var record map[string]any
		Expect(json.Unmarshal([]byte(strings.TrimSpace(string(raw))), &record)).To(Succeed())
		Expect(record).To(HaveKeyWithValue("msg", "stream opened"))
		Expect(record).To(HaveKeyWithValue("agent", "01HX"))
		Expect(record).To(HaveKey("source"))
	})
})
