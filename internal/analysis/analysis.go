// Package analysis collects diagnostic messages produced while a model is
// converted. They are shown to the user when the run fails with a
// configuration error, ahead of the error itself.
package analysis

import "sync"

// Results accumulates analysis messages. The zero value is ready to use.
type Results struct {
	mu       sync.Mutex
	messages []string
}

// Add records a message. Empty and repeated messages are dropped.
func (r *Results) Add(msg string) {
	if msg == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m == msg {
			return
		}
	}
	r.messages = append(r.messages, msg)
}

// Messages returns the recorded messages in insertion order.
func (r *Results) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}
