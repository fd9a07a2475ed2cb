package logger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"sync"
)

// Entry is one decoded JSON log record.
type Entry map[string]any

// Capture collects JSON log output in memory. It is safe for concurrent
// writers and is meant for tests that assert on what was logged.
type Capture struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// NewCapture returns a debug-level JSON logger writing into a new Capture.
// The default logger is left alone, so parallel tests can each hold one.
func NewCapture() (*slog.Logger, *Capture) {
	c := &Capture{}
	return slog.New(slog.NewJSONHandler(c, &slog.HandlerOptions{Level: slog.LevelDebug})), c
}

func (c *Capture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Write(p)
}

// String returns everything written so far.
func (c *Capture) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}

// Entries decodes the captured records, one per line.
func (c *Capture) Entries() ([]Entry, error) {
	var out []Entry
	sc := bufio.NewScanner(bytes.NewReader([]byte(c.String())))
	for sc.Scan() {
		if len(bytes.TrimSpace(sc.Bytes())) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, sc.Err()
}

// WithMessage returns the records whose msg is msg. Undecodable output
// yields nil.
func (c *Capture) WithMessage(msg string) []Entry {
	entries, err := c.Entries()
	if err != nil {
		return nil
	}
	var out []Entry
	for _, e := range entries {
		if e[slog.MessageKey] == msg {
			out = append(out, e)
		}
	}
	return out
}
