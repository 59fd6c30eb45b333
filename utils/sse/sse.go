package sse

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Event is one server-sent event
type Event struct {
	// Event is the event type; empty writes no "event:" line
	Event string

	// Data is JSON-encoded unless it is already a string or []byte
	Data interface{}

	ID string

	// Retry is the reconnection delay in milliseconds
	Retry int
}

// Send writes an SSE event to the given writer and flushes immediately
func Send(w *bufio.Writer, event Event) error {
	if event.ID != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", event.ID); err != nil {
			return fmt.Errorf("failed to write event ID: %w", err)
		}
	}
	if event.Retry > 0 {
		if _, err := fmt.Fprintf(w, "retry: %d\n", event.Retry); err != nil {
			return fmt.Errorf("failed to write retry: %w", err)
		}
	}
	if event.Event != "" {
		if _, err := fmt.Fprintf(w, "event: %s\n", event.Event); err != nil {
			return fmt.Errorf("failed to write event type: %w", err)
		}
	}

	var data string
	switch v := event.Data.(type) {
	case string:
		data = v
	case []byte:
		data = string(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal event data: %w", err)
		}
		data = string(b)
	}

	// Multi-line payloads need one data: line each
	for _, line := range strings.Split(data, "\n") {
		if _, err := fmt.Fprintf(w, "data: %s\n", line); err != nil {
			return fmt.Errorf("failed to write event data: %w", err)
		}
	}
	if err := w.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write event data: %w", err)
	}
	return w.Flush()
}

// SendError sends an error event carrying a message and an optional code
func SendError(w *bufio.Writer, code string, err error) error {
	data := map[string]interface{}{
		"type":    "error",
		"message": err.Error(),
	}
	if code != "" {
		data["code"] = code
	}
	return Send(w, Event{Event: "error", Data: data})
}

// SendKeepAlive sends a comment (: ping) to keep the connection alive
// through proxies
func SendKeepAlive(w *bufio.Writer) error {
	if _, err := fmt.Fprintf(w, ": ping\n\n"); err != nil {
		return fmt.Errorf("failed to write keepalive: %w", err)
	}
	return w.Flush()
}

// SetHeaders prepares c for an event stream. CORS headers are left to the
// CORS middleware.
func SetHeaders(c *fiber.Ctx) {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set(fiber.HeaderTransferEncoding, "chunked")
	c.Set("X-Accel-Buffering", "no")
}
