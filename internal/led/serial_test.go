package led

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

type fakePort struct {
	bytes.Buffer
	failWrite bool
	closed    bool
}

func (p *fakePort) Write(b []byte) (int, error) {
	if p.failWrite {
		return 0, errors.New("device unplugged")
	}
	return p.Buffer.Write(b)
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func TestSerialEffect_WritesColors(t *testing.T) {
	t.Parallel()

	port := &fakePort{}
	opened := 0
	e := NewSerialEffect("/dev/ttyUSB0", 0)
	e.open = func(name string, mode *serial.Mode) (io.WriteCloser, error) {
		opened++
		assert.Equal(t, "/dev/ttyUSB0", name)
		assert.Equal(t, DefaultBaudRate, mode.BaudRate)
		return port, nil
	}

	require.NoError(t, e.SetEffect(context.Background(), Purple))
	require.NoError(t, e.SetEffect(context.Background(), Off))
	require.NoError(t, e.Close())

	assert.Equal(t, "128,0,128\n0,0,0\n", port.String())
	assert.Equal(t, 1, opened)
	assert.True(t, port.closed)
}

func TestSerialEffect_ReopensAfterFailure(t *testing.T) {
	t.Parallel()

	broken := &fakePort{failWrite: true}
	healthy := &fakePort{}
	ports := []*fakePort{broken, healthy}

	e := NewSerialEffect("/dev/ttyUSB0", 9600)
	e.open = func(string, *serial.Mode) (io.WriteCloser, error) {
		p := ports[0]
		ports = ports[1:]
		return p, nil
	}

	require.Error(t, e.SetEffect(context.Background(), Red))
	assert.True(t, broken.closed)

	require.NoError(t, e.SetEffect(context.Background(), Red))
	assert.Equal(t, "255,0,0\n", healthy.String())
}

func TestHex(t *testing.T) {
	assert.Equal(t, "#800080", Hex(Purple))
	assert.Equal(t, "#000000", Hex(Off))
}
