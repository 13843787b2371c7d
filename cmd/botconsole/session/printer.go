package session

import (
	"fmt"
	"io"
	"sync"

	"github.com/papercomputeco/botconsole/pkg/cliui"
	"github.com/papercomputeco/botconsole/pkg/conversation"
	"github.com/papercomputeco/botconsole/pkg/notify"
)

// Printer echoes a conversation to a terminal as it changes: bot text is
// written as it streams in and toasts go to a separate writer.
type Printer struct {
	out    io.Writer
	errOut io.Writer

	mu      sync.Mutex
	printed map[string]int
}

// NewPrinter creates a Printer writing answers to out and toasts to errOut.
func NewPrinter(out, errOut io.Writer) *Printer {
	return &Printer{
		out:     out,
		errOut:  errOut,
		printed: make(map[string]int),
	}
}

// OnChange is a conversation.Store listener.
func (p *Printer) OnChange(c conversation.Change) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch c.Kind {
	case conversation.MessageAdded:
		if c.Message.Bot {
			p.printed[c.Message.ID] = 0
		}

	case conversation.MessageUpdated:
		n, ok := p.printed[c.Message.ID]
		if !ok || len(c.Message.BotResponse) <= n {
			return
		}
		fmt.Fprint(p.out, c.Message.BotResponse[n:])
		p.printed[c.Message.ID] = len(c.Message.BotResponse)

	case conversation.MessageRemoved:
		delete(p.printed, c.Message.ID)

	case conversation.MessagesReset:
		clear(p.printed)
	}
}

// OnToast is a notify.Bus subscriber.
func (p *Printer) OnToast(t notify.Toast) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.errOut, "\n  %s %s %s\n",
		cliui.ToastMark(string(t.Type)),
		cliui.KeyStyle.Render(t.Title+":"),
		t.Message,
	)
}
