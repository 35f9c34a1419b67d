// Package notify delivers short user-visible notifications: the terminal
// equivalent of a toast with a title and a description.
package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

type Notification struct {
	Level       Level
	Title       string
	Description string
}

// Notifier shows notifications to the user. Implementations must not block
// for long; a failing notifier never fails the operation that triggered it.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// WriterNotifier prints one line per notification.
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

var levelPrefix = map[Level]string{
	LevelInfo:    "[i]",
	LevelSuccess: "[ok]",
	LevelWarning: "[!]",
	LevelError:   "[x]",
}

func (n *WriterNotifier) Notify(_ context.Context, msg Notification) {
	prefix, ok := levelPrefix[msg.Level]
	if !ok {
		prefix = levelPrefix[LevelInfo]
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if msg.Description == "" {
		fmt.Fprintf(n.w, "%s %s\n", prefix, msg.Title)
		return
	}
	fmt.Fprintf(n.w, "%s %s: %s\n", prefix, msg.Title, msg.Description)
}

// Recorder keeps every notification; used by tests.
type Recorder struct {
	mu   sync.Mutex
	list []Notification
}

func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = append(r.list, n)
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.list...)
}

// Last returns the most recent notification and false when none was recorded.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.list) == 0 {
		return Notification{}, false
	}
	return r.list[len(r.list)-1], true
}

type discard struct{}

func (discard) Notify(context.Context, Notification) {}

// Discard drops every notification.
var Discard Notifier = discard{}
