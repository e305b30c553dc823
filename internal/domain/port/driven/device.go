package driven

import (
	"context"
	"errors"
	"time"

	"github.com/noisebridge/baron/internal/domain/model"
)

// Device errors. Both are logged by the door loop, which then keeps reading.
var (
	ErrDeviceRead  = errors.New("device read failed")
	ErrDeviceWrite = errors.New("device write failed")
)

// Device defines the driven port for the keypad hardware.
type Device interface {
	// ReadKey blocks for at most timeout waiting for one character. ok is false
	// when the timeout elapsed with no input.
	ReadKey(ctx context.Context, timeout time.Duration) (key byte, ok bool, err error)

	// Signal writes a single feedback signal. There is no acknowledgment.
	Signal(ctx context.Context, s model.Signal) error

	Close() error
}
