package stream

import (
	"bufio"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// ErrIdle is returned by Framer.Next when no line arrived within the bounded
// wait. It is not a stream failure: the caller may check connection
// staleness and call Next again; partially accumulated data lines survive
// across the call.
var ErrIdle = errors.New("stream idle")

type lineResult struct {
	text string
	err  error
}

// Framer reassembles SSE frames from a byte stream: consecutive "data:"
// lines accumulate until a blank line, which yields the joined payload.
// Lines without the prefix are ignored.
//
// Reads happen on an internal goroutine so Next can offer a bounded wait.
// The goroutine exits when the underlying reader returns an error or EOF,
// which the owner triggers by closing the connection body.
type Framer struct {
	lines    chan lineResult
	done     chan struct{}
	stopOnce sync.Once
	pending  []string
}

func NewFramer(r io.Reader) *Framer {
	f := &Framer{
		lines: make(chan lineResult, 16),
		done:  make(chan struct{}),
	}
	go f.readLines(r)
	return f
}

// Close releases the read goroutine once the owner is done with the framer.
// Without it, a consumer that stops calling Next would leave the goroutine
// blocked sending already-buffered lines. The underlying reader is not
// closed. Safe to call more than once.
func (f *Framer) Close() {
	f.stopOnce.Do(func() {
		close(f.done)
	})
}

func (f *Framer) readLines(r io.Reader) {
	defer close(f.lines)
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			select {
			case f.lines <- lineResult{text: strings.TrimRight(line, "\r\n")}:
			case <-f.done:
				return
			}
		}
		if err != nil {
			select {
			case f.lines <- lineResult{err: err}:
			case <-f.done:
			}
			return
		}
	}
}

// Next returns the next complete frame. idleWait bounds how long to wait for
// a single line; zero or negative waits indefinitely. On a cleanly ended
// stream Next returns io.EOF.
func (f *Framer) Next(idleWait time.Duration) (string, error) {
	var timer *time.Timer
	if idleWait > 0 {
		timer = time.NewTimer(idleWait)
		defer timer.Stop()
	}

	for {
		var res lineResult
		var ok bool
		if timer == nil {
			res, ok = <-f.lines
		} else {
			// The wait is per line, not per frame: any received line
			// re-arms it, mirroring a per-read deadline.
			select {
			case res, ok = <-f.lines:
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(idleWait)
			case <-timer.C:
				return "", ErrIdle
			}
		}
		if !ok || errors.Is(res.err, io.EOF) {
			return "", io.EOF
		}
		if res.err != nil {
			return "", res.err
		}

		line := res.text
		if !utf8.ValidString(line) {
			// One bad line must not abort the stream.
			log.Printf("stream: discarding non-UTF-8 line (%d bytes)", len(line))
			continue
		}

		if line == "" {
			if len(f.pending) == 0 {
				continue
			}
			frame := strings.Join(f.pending, "\n")
			f.pending = f.pending[:0]
			return frame, nil
		}

		if rest, ok := strings.CutPrefix(line, "data:"); ok {
			f.pending = append(f.pending, strings.TrimPrefix(rest, " "))
		}
	}
}
