// Package notify carries user facing notifications ("toasts") from the parts
// of botconsole that detect a condition to whatever renders them.
package notify

// Type is the severity of a toast.
type Type string

const (
	TypeSuccess Type = "success"
	TypeError   Type = "error"
	TypeWarning Type = "warning"
	TypeInfo    Type = "info"
)

// Toast is one notification.
type Toast struct {
	// ID is assigned by Store.Add. Publishers leave it empty.
	ID string `json:"id,omitempty"`

	Type    Type   `json:"type"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message"`

	// Persistent toasts stay until removed explicitly.
	Persistent bool `json:"persistent,omitempty"`
}

// Notifier accepts toasts.
type Notifier interface {
	Notify(toast Toast)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(toast Toast)

// Notify calls f.
func (f NotifierFunc) Notify(toast Toast) {
	f(toast)
}

// Discard drops every toast.
var Discard Notifier = NotifierFunc(func(Toast) {})
