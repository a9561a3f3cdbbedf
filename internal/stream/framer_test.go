package stream

import (
	"errors"
	"io"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestFramerReassemblesFrames(t *testing.T) {
	input := "data: {\"a\":1}\n\n" +
		"data: line1\ndata: line2\n\n" +
		"data:nospace\n\n"
	f := NewFramer(strings.NewReader(input))

	want := []string{`{"a":1}`, "line1\nline2", "nospace"}
	for i, w := range want {
		frame, err := f.Next(0)
		if err != nil {
			t.Fatalf("frame %d: Next error: %v", i, err)
		}
		if frame != w {
			t.Errorf("frame %d = %q, want %q", i, frame, w)
		}
	}

	if _, err := f.Next(0); err != io.EOF {
		t.Errorf("after stream end: err = %v, want io.EOF", err)
	}
}

func TestFramerIgnoresNonDataLines(t *testing.T) {
	input := ": comment\nevent: message\ndata: payload\nid: 7\n\n"
	f := NewFramer(strings.NewReader(input))

	frame, err := f.Next(0)
	if err != nil {
		t.Fatalf("Next error: %v", err)
	}
	if frame != "payload" {
		t.Errorf("frame = %q, want %q", frame, "payload")
	}
}

func TestFramerSkipsBlankSeparatorsWithoutData(t *testing.T) {
	input := "\n\n\ndata: x\n\n"
	f := NewFramer(strings.NewReader(input))

	frame, err := f.Next(0)
	if err != nil {
		t.Fatalf("Next error: %v", err)
	}
	if frame != "x" {
		t.Errorf("frame = %q, want %q", frame, "x")
	}
}

func TestFramerDiscardsInvalidUTF8Line(t *testing.T) {
	input := "data: \xff\xfe\ndata: good\n\n"
	f := NewFramer(strings.NewReader(input))

	frame, err := f.Next(0)
	if err != nil {
		t.Fatalf("Next error: %v", err)
	}
	if frame != "good" {
		t.Errorf("frame = %q, want %q", frame, "good")
	}
}

func TestFramerCRLF(t *testing.T) {
	input := "data: payload\r\n\r\n"
	f := NewFramer(strings.NewReader(input))

	frame, err := f.Next(0)
	if err != nil {
		t.Fatalf("Next error: %v", err)
	}
	if frame != "payload" {
		t.Errorf("frame = %q, want %q", frame, "payload")
	}
}

// slowReader delivers its first chunk immediately and then blocks forever.
type slowReader struct {
	data []byte
	read bool
	hang chan struct{}
}

func (r *slowReader) Read(p []byte) (int, error) {
	if !r.read {
		r.read = true
		return copy(p, r.data), nil
	}
	<-r.hang
	return 0, io.EOF
}

func TestFramerIdleTimeoutPreservesAccumulation(t *testing.T) {
	r := &slowReader{data: []byte("data: partial\n"), hang: make(chan struct{})}
	defer close(r.hang)
	f := NewFramer(r)

	if _, err := f.Next(20 * time.Millisecond); !errors.Is(err, ErrIdle) {
		t.Fatalf("err = %v, want ErrIdle", err)
	}
	// A second bounded wait still reports idle rather than dropping state.
	if _, err := f.Next(20 * time.Millisecond); !errors.Is(err, ErrIdle) {
		t.Fatalf("second wait: err = %v, want ErrIdle", err)
	}
	if len(f.pending) != 1 || f.pending[0] != "partial" {
		t.Errorf("pending = %v, want the accumulated data line", f.pending)
	}
}

func TestFramerCloseReleasesReadGoroutine(t *testing.T) {
	before := runtime.NumGoroutine()

	for i := 0; i < 10; i++ {
		// Far more buffered lines than the channel holds, so after the
		// consumer walks away the read goroutine is blocked mid-send.
		input := strings.Repeat("data: x\n\n", 200)
		f := NewFramer(strings.NewReader(input))
		if _, err := f.Next(0); err != nil {
			t.Fatalf("Next error: %v", err)
		}
		f.Close()
		f.Close() // idempotent
	}

	deadline := time.Now().Add(2 * time.Second)
	for runtime.NumGoroutine() > before {
		if time.Now().After(deadline) {
			t.Fatalf("read goroutines leaked: %d running, started with %d",
				runtime.NumGoroutine(), before)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestFramerPropagatesReadError(t *testing.T) {
	f := NewFramer(errReader{})
	_, err := f.Next(0)
	if err == nil || err.Error() != "boom" {
		t.Errorf("err = %v, want boom", err)
	}
}
