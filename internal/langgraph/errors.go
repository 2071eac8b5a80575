package langgraph

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// TransportError reports a failure to reach the server or to get a valid
// response from it.
type TransportError struct {
	Op         string
	ThreadID   string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	var b strings.Builder
	b.WriteString("langgraph ")
	b.WriteString(e.Op)
	if e.ThreadID != "" {
		fmt.Fprintf(&b, " (thread %s)", e.ThreadID)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
		if e.Body != "" {
			fmt.Fprintf(&b, ": %s", truncate(e.Body, 200))
		}
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func truncate(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxLen {
		return s
	}
	// Back off to a rune boundary.
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
