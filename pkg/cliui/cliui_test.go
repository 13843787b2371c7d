package cliui_test

import (
	"bytes"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/botconsole/pkg/cliui"
)

var _ = Describe("Clip", func() {
	It("leaves short text alone", func() {
		Expect(cliui.Clip("hello", 10)).To(Equal("hello"))
	})

	It("cuts long text with an ellipsis", func() {
		Expect(cliui.Clip("hello world", 8)).To(Equal("hello w…"))
	})

	It("counts wide runes as two cells", func() {
		Expect(cliui.Clip("你好世界", 5)).To(Equal("你好…"))
	})
})

var _ = Describe("Step", func() {
	It("marks a successful step", func() {
		var buf bytes.Buffer
		Expect(cliui.Step(&buf, "Clearing", func() error { return nil })).To(Succeed())
		Expect(buf.String()).To(ContainSubstring(cliui.SuccessMark + " Clearing"))
	})

	It("returns the step error and marks it failed", func() {
		var buf bytes.Buffer
		boom := errors.New("boom")
		Expect(cliui.Step(&buf, "Clearing", func() error { return boom })).To(MatchError(boom))
		Expect(buf.String()).To(ContainSubstring(cliui.FailMark + " Clearing"))
	})
})

var _ = Describe("FormatDuration", func() {
	It("uses milliseconds under a second", func() {
		Expect(cliui.FormatDuration(12 * time.Millisecond)).To(Equal("12ms"))
	})

	It("uses seconds otherwise", func() {
		Expect(cliui.FormatDuration(3200 * time.Millisecond)).To(Equal("3.2s"))
	})
})

var _ = Describe("ToastMark", func() {
	It("maps known kinds", func() {
		Expect(cliui.ToastMark("success")).To(Equal(cliui.SuccessMark))
		Expect(cliui.ToastMark("error")).To(Equal(cliui.FailMark))
		Expect(cliui.ToastMark("warning")).To(Equal(cliui.WarnMark))
	})

	It("falls back to info", func() {
		Expect(cliui.ToastMark("other")).To(Equal(cliui.InfoMark))
	})
})

var _ = Describe("RenderMarkdownWidth", func() {
	It("renders the text content", func() {
		out, err := cliui.RenderMarkdownWidth("**Error:** Stream interrupted.", 40)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Stream interrupted."))
	})
})
