package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/noisebridge/baron/internal/domain/port/driven"
)

// DefaultIdleTimeout is how long the keypad may sit idle before a partially
// typed code is discarded.
const DefaultIdleTimeout = 10 * time.Second

// DoorService runs the single read-and-decide loop: read one key from the
// device, feed it to the input buffer, and hand completed codes to the
// authorizer.
type DoorService struct {
	device      driven.Device
	authorizer  *Authorizer
	idleTimeout time.Duration
	promiscuous bool
	metrics     *Metrics
	logger      *slog.Logger
	buffer      InputBuffer
	backoff     readBackoff
}

// NewDoorService creates a DoorService. In promiscuous mode every key press
// opens the gate and the input buffer is bypassed.
func NewDoorService(
	device driven.Device,
	authorizer *Authorizer,
	idleTimeout time.Duration,
	promiscuous bool,
	metrics *Metrics,
	logger *slog.Logger,
) *DoorService {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DoorService{
		device:      device,
		authorizer:  authorizer,
		idleTimeout: idleTimeout,
		promiscuous: promiscuous,
		metrics:     metrics,
		logger:      logger,
	}
}

// Start runs the loop until ctx is canceled. A read error is logged and the
// loop carries on with the next read. Start always returns nil.
func (s *DoorService) Start(ctx context.Context) error {
	s.logger.Info("door loop started",
		"idle_timeout", s.idleTimeout,
		"promiscuous", s.promiscuous,
	)

	for {
		if ctx.Err() != nil {
			s.logger.Info("door loop stopped")
			return nil
		}

		key, ok, err := s.device.ReadKey(ctx, s.idleTimeout)

		// Abandon whatever was read rather than start an attempt during shutdown.
		if ctx.Err() != nil {
			s.logger.Info("door loop stopped")
			return nil
		}

		if err != nil {
			wait := s.backoff.next()
			s.logger.Error("keypad read failed", "error", err, "retry_in", wait)
			s.metrics.ReadErrors.Inc()
			select {
			case <-ctx.Done():
			case <-time.After(wait):
			}
			continue
		}
		s.backoff.reset()

		s.handle(ctx, key, ok)
	}
}

func (s *DoorService) handle(ctx context.Context, key byte, ok bool) {
	if !ok {
		if s.buffer.Pending() != "" {
			s.logger.Debug("keypad read timeout, flushing input buffer")
		}
		s.buffer.Timeout()
		return
	}

	if s.promiscuous {
		s.authorizer.Grant(ctx, string(key))
		return
	}

	sub, submitted := s.buffer.Feed(key)
	switch {
	case submitted:
		s.logger.Debug("read submit key, checking code", "key", string(key))
		s.authorizer.Attempt(ctx, sub.Code)
	case key == SubmitKey:
		s.logger.Debug("read submit key, ignoring empty code")
	case key == CancelKey:
		s.logger.Debug("read cancel key, flushing input buffer")
	default:
		s.logger.Debug("read key", "key", string(key))
	}
}
