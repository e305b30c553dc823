//go:build !linux

package serial

import (
	"context"
	"errors"
	"time"

	"github.com/noisebridge/baron/internal/domain/model"
	"github.com/noisebridge/baron/internal/domain/port/driven"
)

var errUnsupported = errors.New("serial keypad is only supported on linux")

// Compile-time interface satisfaction check.
var _ driven.Device = (*Port)(nil)

// Port is unavailable on this platform.
type Port struct{}

// Open always fails on this platform.
func Open(path string) (*Port, error) {
	return nil, errUnsupported
}

func (p *Port) ReadKey(context.Context, time.Duration) (byte, bool, error) {
	return 0, false, errUnsupported
}

func (p *Port) Signal(context.Context, model.Signal) error { return errUnsupported }

func (p *Port) Close() error { return nil }
