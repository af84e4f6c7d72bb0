//go:build !baremetal

package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uartled-go/drivers/ledboard"
)

func TestSplitScript(t *testing.T) {
	got, err := splitScript(`on; send "b" ;; off ;`)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"on"}, {"send", "b"}, {"off"}}, got)

	_, err = splitScript(`send "b`)
	assert.Error(t, err)
}

func TestSender_OpensOnceAndWrites(t *testing.T) {
	var buf bytes.Buffer
	opens := 0
	s := &sender{port: "COM3", baud: 9600, open: func(port string, baud int) (*ledboard.Device, error) {
		opens++
		assert.Equal(t, "COM3", port)
		assert.Equal(t, 9600, baud)
		return ledboard.New(&buf, port), nil
	}}

	require.NoError(t, s.write(ledboard.CmdOn))
	require.NoError(t, s.write(ledboard.CmdOff))
	assert.Equal(t, 1, opens)
	assert.Equal(t, "bs", buf.String())
	assert.Equal(t, "port=COM3 baud=9600 open last='s' (off)", statusLine(s))
}

func TestSender_OpenFailure(t *testing.T) {
	s := &sender{port: "COM9", baud: 9600, open: func(string, int) (*ledboard.Device, error) {
		return nil, errors.New("no such port")
	}}
	assert.Error(t, s.write(ledboard.CmdOn))
	assert.Equal(t, "port=COM9 baud=9600 closed last=none", statusLine(s))
}

func TestShellProcess_DrivesSender(t *testing.T) {
	var buf bytes.Buffer
	s := &sender{port: "sim", baud: 9600, open: func(port string, _ int) (*ledboard.Device, error) {
		return ledboard.New(&buf, port), nil
	}}
	sh := newShell(s)
	cmds, err := splitScript("on; send x; send 0; off")
	require.NoError(t, err)
	for _, args := range cmds {
		require.NoError(t, sh.Process(args...))
	}
	assert.Equal(t, "bxss", buf.String())
}
