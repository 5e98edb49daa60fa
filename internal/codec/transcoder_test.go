package codec

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// feed pushes input through a fresh transcoder in fixed-size chunks and
// returns everything it emitted.
func feed(t *testing.T, input string, chunkSize int) string {
	t.Helper()

	var out bytes.Buffer
	tc := NewTranscoder(&out)

	data := []byte(input)
	for len(data) > 0 {
		n := chunkSize
		if n > len(data) {
			n = len(data)
		}
		require.NoError(t, tc.OnChunk(data[:n]))
		data = data[n:]
	}
	require.NoError(t, tc.OnEnd())

	return out.String()
}

func TestTranscoder_UnwrapsDataFrames(t *testing.T) {
	input := "data: {\"response\":{\"a\":1}}\n\n"

	assert.Equal(t, "data: {\"a\":1}\n\n", feed(t, input, len(input)))
}

func TestTranscoder_SplitInvariance(t *testing.T) {
	input := "event: message\ndata: {\"response\":{\"candidates\":[{\"index\":0}]}}\n\ndata: {\"response\":{\"done\":true}}\n\n"
	expected := "event: message\ndata: {\"candidates\":[{\"index\":0}]}\n\ndata: {\"done\":true}\n\n"

	for _, chunkSize := range []int{1, 2, 3, 5, 7, 16, 64, len(input)} {
		t.Run(fmt.Sprintf("chunk_size_%d", chunkSize), func(t *testing.T) {
			assert.Equal(t, expected, feed(t, input, chunkSize))
		})
	}
}

func TestTranscoder_MalformedFramePassesThrough(t *testing.T) {
	input := "data: not-json\ndata: {\"response\":{\"ok\":true}}\n"

	out := feed(t, input, 4)

	assert.Equal(t, "data: not-json\ndata: {\"ok\":true}\n", out,
		"a malformed frame must pass through without aborting the stream")
}

func TestTranscoder_NonDataLinesVerbatim(t *testing.T) {
	input := ": keepalive comment\nevent: ping\n\n"

	assert.Equal(t, input, feed(t, input, 1))
}

func TestTranscoder_TrailingPartialFrame(t *testing.T) {
	// No terminating newline ever arrives for the last frame.
	input := "data: {\"response\":{\"a\":1}}\ndata: {\"response\":{\"b\":2}}"

	out := feed(t, input, 3)

	assert.Equal(t, "data: {\"a\":1}\ndata: {\"b\":2}\n", out)
}

func TestTranscoder_TrailingWhitespaceTrimmed(t *testing.T) {
	input := "data: {\"response\":{\"a\":1}} \r\n"

	assert.Equal(t, "data: {\"a\":1}\n", feed(t, input, len(input)))
}

func TestTranscoder_EmptyStream(t *testing.T) {
	var out bytes.Buffer
	tc := NewTranscoder(&out)

	require.NoError(t, tc.OnEnd())
	assert.Empty(t, out.String())
}

func TestTranscoder_PreservesFrameOrder(t *testing.T) {
	var input, expected bytes.Buffer
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&input, "data: {\"response\":{\"seq\":%d}}\n", i)
		fmt.Fprintf(&expected, "data: {\"seq\":%d}\n", i)
	}

	assert.Equal(t, expected.String(), feed(t, input.String(), 11))
}
