//go:build linux

package serial

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/noisebridge/baron/internal/domain/model"
	"github.com/noisebridge/baron/internal/domain/port/driven"
)

// pollSlice bounds a single poll so a canceled context is noticed promptly.
const pollSlice = 250 * time.Millisecond

// Compile-time interface satisfaction check.
var _ driven.Device = (*Port)(nil)

// Port is an open keypad serial line: 300 baud, 8N1, no flow control, raw.
type Port struct {
	path         string
	fd           int
	writeTimeout time.Duration

	mu     sync.Mutex
	closed bool
}

// Open opens and configures the serial device at path.
func Open(path string) (*Port, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", path, err)
	}

	if err := configure(fd); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("configure serial port %s: %w", path, err)
	}

	return &Port{path: path, fd: fd, writeTimeout: DefaultWriteTimeout}, nil
}

func configure(fd int) error {
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("get termios: %w", err)
	}

	// Equivalent of cfmakeraw plus 300 8N1 without flow control.
	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON | unix.IXOFF | unix.IXANY
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB | unix.CSTOPB | unix.CRTSCTS | unix.CBAUD
	t.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL | unix.B300
	t.Ispeed = unix.B300
	t.Ospeed = unix.B300
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, t); err != nil {
		return fmt.Errorf("set termios: %w", err)
	}
	return nil
}

// ReadKey waits up to timeout for one byte.
func (p *Port) ReadKey(ctx context.Context, timeout time.Duration) (byte, bool, error) {
	deadline := time.Now().Add(timeout)
	var buf [1]byte

	for {
		if err := ctx.Err(); err != nil {
			return 0, false, err
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, false, nil
		}

		ready, err := p.wait(unix.POLLIN, min(remaining, pollSlice))
		if err != nil {
			return 0, false, fmt.Errorf("%s: %w: %w", p.path, driven.ErrDeviceRead, err)
		}
		if !ready {
			continue
		}

		n, err := unix.Read(p.fd, buf[:])
		switch {
		case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EINTR):
			continue
		case err != nil:
			return 0, false, fmt.Errorf("%s: %w: %w", p.path, driven.ErrDeviceRead, err)
		case n == 0:
			return 0, false, fmt.Errorf("%s: %w: end of file", p.path, driven.ErrDeviceRead)
		}
		return buf[0], true, nil
	}
}

// Signal writes the encoded signal, giving up after the write timeout.
func (p *Port) Signal(ctx context.Context, s model.Signal) error {
	return p.write(ctx, Encode(s))
}

func (p *Port) write(ctx context.Context, data []byte) error {
	deadline := time.Now().Add(p.writeTimeout)

	for len(data) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return fmt.Errorf("%s: %w: write timed out", p.path, driven.ErrDeviceWrite)
		}

		ready, err := p.wait(unix.POLLOUT, min(remaining, pollSlice))
		if err != nil {
			return fmt.Errorf("%s: %w: %w", p.path, driven.ErrDeviceWrite, err)
		}
		if !ready {
			continue
		}

		n, err := unix.Write(p.fd, data)
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return fmt.Errorf("%s: %w: %w", p.path, driven.ErrDeviceWrite, err)
		}
		data = data[n:]
	}
	return nil
}

// wait polls the descriptor for events. It returns false when d elapsed first.
func (p *Port) wait(events int16, d time.Duration) (bool, error) {
	fds := []unix.PollFd{{Fd: int32(p.fd), Events: events}}
	n, err := unix.Poll(fds, int(d.Milliseconds()))
	if errors.Is(err, unix.EINTR) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	if fds[0].Revents&events == 0 && fds[0].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
		return false, fmt.Errorf("poll revents %#x", fds[0].Revents)
	}
	return true, nil
}

// Close releases the serial port. It is safe to call more than once.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return unix.Close(p.fd)
}
