package frame

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loopback struct {
	bytes.Buffer
}

func TestWriteReadFrameRoundTrip(t *testing.T) {
	buf := &loopback{}
	c := NewConn(buf)

	payload := map[string]any{"type": "LOGIN", "user": "alice"}
	require.NoError(t, c.WriteJSON(payload))

	var got map[string]any
	require.NoError(t, c.ReadJSON(&got))
	assert.Equal(t, "LOGIN", got["type"])
	assert.Equal(t, "alice", got["user"])
}

func TestFrameAtMaxSizeAccepted(t *testing.T) {
	buf := &loopback{}
	c := NewConn(buf)

	payload := bytes.Repeat([]byte("a"), MaxFrameSize)
	require.NoError(t, c.WriteFrame(payload))

	got, err := c.ReadFrame()
	require.NoError(t, err)
	assert.Len(t, got, MaxFrameSize)
}

func TestFrameOverMaxSizeRejected(t *testing.T) {
	buf := &loopback{}
	c := NewConn(buf)

	payload := bytes.Repeat([]byte("a"), MaxFrameSize+1)
	err := c.WriteFrame(payload)
	assert.True(t, errors.Is(err, ErrFrameTooLarge))
}

func TestReadFrameGracefulClose(t *testing.T) {
	buf := &loopback{}
	c := NewConn(buf)

	_, err := c.ReadFrame()
	assert.True(t, errors.Is(err, ErrGracefulClose))
}

func TestDecodeFallsBackToRawString(t *testing.T) {
	s, ok := Decode([]byte("not json")).(string)
	require.True(t, ok)
	assert.Equal(t, "not json", s)

	m, ok := Decode([]byte(`{"a":1}`)).(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), m["a"])
}

func TestRawByteStreamPassthrough(t *testing.T) {
	buf := &loopback{}
	c := NewConn(buf)

	payload := []byte("binary-bundle-bytes-here")
	n, err := c.WriteRaw(strings.NewReader(string(payload)), int64(len(payload)))
	require.NoError(t, err)
	assert.EqualValues(t, len(payload), n)

	var out bytes.Buffer
	n, err = c.ReadRaw(&out, int64(len(payload)))
	require.NoError(t, err)
	assert.EqualValues(t, len(payload), n)
	assert.Equal(t, string(payload), out.String())
}
