package runtime

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// debugCaptureBuffer is the number of raw payloads buffered between the
// producing stream and the sink writer. When the writer falls behind,
// further payloads are dropped rather than delaying the caller's stream.
const debugCaptureBuffer = 64

// DebugSink captures the raw vendor stream to a local file, best effort.
// One sink serves one chat invocation; the writer runs on its own goroutine
// and consumes independently of the primary stream, so capture never applies
// backpressure. Every failure is logged and swallowed.
//
// A nil *DebugSink is valid and inert, so runtimes can call Capture and
// Close unconditionally.
type DebugSink struct {
	payloads chan string
	done     chan struct{}
	path     string
}

// NewDebugSink opens a capture file for one chat invocation and starts the
// writer. It returns nil when capture is disabled or the file cannot be
// created; either way the caller's stream is unaffected.
func NewDebugSink(options DebugOptions, provider string) *DebugSink {
	if !options.Enabled {
		return nil
	}

	dir := options.Dir
	if dir == "" {
		dir = os.TempDir()
	}

	path := filepath.Join(dir, fmt.Sprintf("%s-chat-%s.jsonl", provider, uuid.NewString()))
	file, err := os.Create(path)
	if err != nil {
		slog.Warn("debug capture disabled: cannot create file", "path", path, "error", err.Error())
		return nil
	}

	sink := &DebugSink{
		payloads: make(chan string, debugCaptureBuffer),
		done:     make(chan struct{}),
		path:     path,
	}
	go sink.run(file)
	return sink
}

func (sink *DebugSink) run(file *os.File) {
	defer close(sink.done)

	var failed bool
	for payload := range sink.payloads {
		if failed {
			continue
		}
		if _, err := file.WriteString(payload + "\n"); err != nil {
			slog.Warn("debug capture write failed", "path", sink.path, "error", err.Error())
			failed = true
		}
	}

	if err := file.Close(); err != nil {
		slog.Warn("debug capture close failed", "path", sink.path, "error", err.Error())
	}
}

// Capture forwards one raw payload to the sink without blocking. Payloads
// are dropped when the writer cannot keep up.
func (sink *DebugSink) Capture(payload string) {
	if sink == nil {
		return
	}
	select {
	case sink.payloads <- payload:
	default:
		// Drop rather than stall the primary consumer.
	}
}

// Close stops the sink and waits for buffered payloads to flush.
func (sink *DebugSink) Close() {
	if sink == nil {
		return
	}
	close(sink.payloads)
	<-sink.done
}

// Path returns the capture file path, or "" for a nil sink.
func (sink *DebugSink) Path() string {
	if sink == nil {
		return ""
	}
	return sink.path
}
