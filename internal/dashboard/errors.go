package dashboard

import (
	"errors"
	"log"
	"sync"
)

// ErrorReporter holds at most one user-visible message. A new failure
// overwrites the prior one, and every operation clears the slot before
// it starts so stale errors never outlive a fresh action.
type ErrorReporter struct {
	mu      sync.Mutex
	message string
	logger  *log.Logger
}

// NewErrorReporter constructs an ErrorReporter. logger may be nil.
func NewErrorReporter(logger *log.Logger) *ErrorReporter {
	return &ErrorReporter{logger: logger}
}

// Report replaces the active message.
func (r *ErrorReporter) Report(message string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.message = message
	r.mu.Unlock()
	if r.logger != nil && message != "" {
		r.logger.Printf("dashboard: %s", message)
	}
}

// ReportError records err's text as the active message. Auth rejections
// end the session and redirect instead of rendering inline, so they never
// occupy the slot.
func (r *ErrorReporter) ReportError(err error) {
	if err == nil || errors.Is(err, ErrAuthRejected) {
		return
	}
	r.Report(err.Error())
}

// Clear empties the slot.
func (r *ErrorReporter) Clear() {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.message = ""
	r.mu.Unlock()
}

// Current returns the active message, empty when none.
func (r *ErrorReporter) Current() string {
	if r == nil {
		return ""
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.message
}
