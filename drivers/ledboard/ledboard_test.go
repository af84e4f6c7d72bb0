package ledboard

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closingBuffer struct {
	bytes.Buffer
	closed bool
}

func (c *closingBuffer) Close() error { c.closed = true; return nil }

type failWriter struct{ n int }

func (f failWriter) Write(p []byte) (int, error) {
	if f.n < 0 {
		return 0, errors.New("port gone")
	}
	return f.n, nil
}

func TestDevice_OnOff(t *testing.T) {
	var buf bytes.Buffer
	d := New(&buf, "COM3")

	require.NoError(t, d.On())
	require.NoError(t, d.Off())
	require.NoError(t, d.Set(true))
	require.NoError(t, d.Set(false))

	assert.Equal(t, "bsbs", buf.String())
	last, ok := d.Last()
	assert.True(t, ok)
	assert.Equal(t, CmdOff, last)
	assert.Equal(t, "COM3", d.Name())
}

func TestDevice_SendErrors(t *testing.T) {
	d := New(failWriter{n: -1}, "x")
	assert.Error(t, d.On())
	_, ok := d.Last()
	assert.False(t, ok)

	d = New(failWriter{n: 0}, "x")
	assert.ErrorIs(t, d.Off(), ErrShortWrite)
}

func TestDevice_Close(t *testing.T) {
	c := &closingBuffer{}
	require.NoError(t, New(c, "x").Close())
	assert.True(t, c.closed)

	require.NoError(t, New(&bytes.Buffer{}, "x").Close())
}

func TestParseCommand(t *testing.T) {
	cases := map[string]byte{
		"on": CmdOn, "ON": CmdOn, " true ": CmdOn, "1": CmdOn, "high": CmdOn,
		"off": CmdOff, "Off": CmdOff, "false": CmdOff, "0": CmdOff, "low": CmdOff,
		"b": 'b', "B": 'B', "s": 's', "S": 'S',
	}
	for in, want := range cases {
		got, err := ParseCommand(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "x", "blink", "bb"} {
		_, err := ParseCommand(in)
		assert.ErrorIs(t, err, ErrUnknownCommand, in)
	}
}

func TestLevelOf(t *testing.T) {
	for _, b := range []byte("bB") {
		l, ok := LevelOf(b)
		assert.True(t, ok)
		assert.True(t, l)
	}
	for _, b := range []byte("sS") {
		l, ok := LevelOf(b)
		assert.True(t, ok)
		assert.False(t, l)
	}
	_, ok := LevelOf('x')
	assert.False(t, ok)
}
