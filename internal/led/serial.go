package led

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"sync"

	"go.bug.st/serial"
)

const DefaultBaudRate = 115200

// SerialEffect sends "r,g,b\n" lines to an LED controller on a serial port
type SerialEffect struct {
	portName string
	mode     *serial.Mode

	mu   sync.Mutex
	port io.WriteCloser

	open func(name string, mode *serial.Mode) (io.WriteCloser, error)
}

func NewSerialEffect(portName string, baudRate int) *SerialEffect {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}

	return &SerialEffect{
		portName: portName,
		mode:     &serial.Mode{BaudRate: baudRate},
		open: func(name string, mode *serial.Mode) (io.WriteCloser, error) {
			port, err := serial.Open(name, mode)
			if err != nil {
				return nil, err
			}
			return port, nil
		},
	}
}

// SetEffect opens the port on first use; a failed write drops the port so the
// next call reopens it
func (e *SerialEffect) SetEffect(ctx context.Context, c color.RGBA) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.port == nil {
		port, err := e.open(e.portName, e.mode)
		if err != nil {
			return fmt.Errorf("opening serial port '%s': %w", e.portName, err)
		}
		e.port = port
	}

	if _, err := fmt.Fprintf(e.port, "%d,%d,%d\n", c.R, c.G, c.B); err != nil {
		closeErr := e.port.Close()
		e.port = nil
		return errors.Join(fmt.Errorf("writing to serial port '%s': %w", e.portName, err), closeErr)
	}

	return nil
}

func (e *SerialEffect) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.port == nil {
		return nil
	}

	err := e.port.Close()
	e.port = nil
	return err
}
