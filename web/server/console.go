package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/df07/go-bidirectional-tracer/pkg/core"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	RenderID  string    `json:"renderId"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "info", "warning", "error"
}

// WebLogger implements core.Logger by sending messages to a console channel
type WebLogger struct {
	renderID    string
	consoleChan chan<- ConsoleMessage
	next        core.Logger
}

// NewWebLogger creates a web logger for one render. Messages are also
// passed on to next when it is not nil.
func NewWebLogger(renderID string, consoleChan chan<- ConsoleMessage, next core.Logger) core.Logger {
	return &WebLogger{
		renderID:    renderID,
		consoleChan: consoleChan,
		next:        next,
	}
}

// Printf implements core.Logger interface
func (wl *WebLogger) Printf(format string, args ...interface{}) {
	if wl.next != nil {
		wl.next.Printf(format, args...)
	}

	if wl.consoleChan == nil {
		return
	}

	// Non-blocking: a full channel drops the message
	select {
	case wl.consoleChan <- ConsoleMessage{
		RenderID:  wl.renderID,
		Message:   strings.TrimRight(fmt.Sprintf(format, args...), "\n"),
		Timestamp: time.Now(),
		Level:     "info",
	}:
	default:
	}
}
