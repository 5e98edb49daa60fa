package codec

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

const dataPrefix = "data: "

// Transcoder reassembles newline-delimited event frames from arbitrarily
// split upstream chunks, unwraps each data frame, and re-emits it to the
// output writer. One Transcoder serves exactly one streamed exchange and is
// not safe for concurrent use; the handling goroutine owns it outright.
//
// Input bytes that have not yet completed a frame stay buffered between
// OnChunk calls, so the emitted output is byte-identical no matter how the
// upstream chose its chunk boundaries.
type Transcoder struct {
	out io.Writer
	buf []byte
}

func NewTranscoder(out io.Writer) *Transcoder {
	return &Transcoder{out: out}
}

// OnChunk appends a received chunk and drains every complete line from the
// buffer, emitting one output frame per input frame in order.
func (t *Transcoder) OnChunk(p []byte) error {
	t.buf = append(t.buf, p...)

	for {
		i := bytes.IndexByte(t.buf, '\n')
		if i < 0 {
			return nil
		}

		line := strings.TrimRight(string(t.buf[:i]), " \t\r")
		t.buf = t.buf[i+1:]

		if err := t.emit(line); err != nil {
			return err
		}
	}
}

// OnEnd flushes a trailing frame that never saw its newline, then discards
// the buffer. Safe to call when the buffer is empty.
func (t *Transcoder) OnEnd() error {
	if len(t.buf) == 0 {
		return nil
	}

	line := strings.TrimRight(string(t.buf), " \t\r")
	t.buf = nil

	if line == "" {
		return nil
	}

	return t.emit(line)
}

func (t *Transcoder) emit(line string) error {
	if strings.HasPrefix(line, dataPrefix) {
		payload := strings.TrimPrefix(line, dataPrefix)
		_, err := fmt.Fprintf(t.out, "%s%s\n", dataPrefix, UnwrapStreamFrame(payload))
		return err
	}

	// Non-data protocol lines (event types, blank separators) pass through
	// verbatim.
	_, err := fmt.Fprintf(t.out, "%s\n", line)
	return err
}
