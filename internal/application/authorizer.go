package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/noisebridge/baron/internal/domain/model"
	"github.com/noisebridge/baron/internal/domain/port/driven"
)

// DefaultSignalGap is the pause between signals of a multi-signal feedback.
const DefaultSignalGap = 200 * time.Millisecond

// Authorizer decides whether a submitted code opens the gate, triggers the
// gate on success, and drives keypad feedback for every outcome.
type Authorizer struct {
	loader    *RegistryLoader
	provider  *RegistryProvider
	gate      driven.GateTrigger
	device    driven.Device
	audit     driven.AuditStore
	clock     Clock
	metrics   *Metrics
	logger    *slog.Logger
	signalGap time.Duration
}

// NewAuthorizer creates an Authorizer. loader may be nil to never reload, and
// audit may be nil to skip the attempt history. clock, metrics and logger
// default when nil.
func NewAuthorizer(
	loader *RegistryLoader,
	provider *RegistryProvider,
	gate driven.GateTrigger,
	device driven.Device,
	audit driven.AuditStore,
	clock Clock,
	metrics *Metrics,
	logger *slog.Logger,
) *Authorizer {
	if clock == nil {
		clock = SystemClock()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Authorizer{
		loader:    loader,
		provider:  provider,
		gate:      gate,
		device:    device,
		audit:     audit,
		clock:     clock,
		metrics:   metrics,
		logger:    logger,
		signalGap: DefaultSignalGap,
	}
}

// SetSignalGap overrides the pause between feedback signals.
func (a *Authorizer) SetSignalGap(d time.Duration) { a.signalGap = d }

// Attempt reloads the registry if the code source changed, then authorizes code.
func (a *Authorizer) Attempt(ctx context.Context, code string) model.Decision {
	if a.loader != nil {
		// The loader logs the failure itself.
		if _, err := a.loader.Load(ctx); err != nil {
			a.logger.Debug("checking code against previous codes", "error", err)
		}
	}
	return a.AttemptWithoutReload(ctx, code)
}

// AttemptWithoutReload authorizes code against the registry as it is now.
func (a *Authorizer) AttemptWithoutReload(ctx context.Context, code string) model.Decision {
	if reason := a.verify(code); reason != model.ReasonAccepted {
		a.logger.Info("not opening the door for bad code", "code", code, "reason", reason)
		a.play(ctx, model.FeedbackDenied)
		return a.record(ctx, code, model.DecisionDenied, reason)
	}

	a.logger.Info("opening the door for code", "code", code)
	return a.openGate(ctx, code, model.ReasonAccepted)
}

// Grant opens the gate without checking a code. Used by promiscuous mode.
func (a *Authorizer) Grant(ctx context.Context, key string) model.Decision {
	a.logger.Info("opening the door in promiscuous mode", "key", key)
	return a.openGate(ctx, key, model.ReasonPromiscuous)
}

func (a *Authorizer) verify(code string) string {
	if code == "" {
		return model.ReasonEmpty
	}
	registry := a.provider.Get()
	if registry == nil {
		return model.ReasonUnknown
	}

	err := registry.Verify(code)
	switch {
	case err == nil:
		return model.ReasonAccepted
	case errors.Is(err, model.ErrDisabled):
		return model.ReasonDisabled
	case errors.Is(err, model.ErrExpired):
		return model.ReasonExpired
	case errors.Is(err, model.ErrMalformedCredential):
		return model.ReasonMalformed
	default:
		return model.ReasonUnknown
	}
}

func (a *Authorizer) openGate(ctx context.Context, code, reason string) model.Decision {
	if err := a.gate.Open(ctx); err != nil {
		a.logger.Warn("gate trigger failed", "code", code, "error", err)
		a.metrics.GateFailures.Inc()
		a.play(ctx, model.FeedbackGateFailed)
		return a.record(ctx, code, model.DecisionGateFailed, model.ReasonGateError)
	}

	a.play(ctx, model.FeedbackGranted)
	return a.record(ctx, code, model.DecisionGranted, reason)
}

// play writes each signal of f, pausing signalGap between them. Write failures
// are logged and do not stop the sequence.
func (a *Authorizer) play(ctx context.Context, f model.Feedback) {
	for i, s := range f.Signals() {
		if i > 0 && a.signalGap > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(a.signalGap):
			}
		}
		if err := a.device.Signal(ctx, s); err != nil {
			a.logger.Warn("keypad feedback write failed", "feedback", f, "error", err)
		}
	}
}

func (a *Authorizer) record(ctx context.Context, code string, decision model.Decision, reason string) model.Decision {
	a.metrics.Attempts.WithLabelValues(string(decision)).Inc()
	a.logger.Info("attempt decided", "code", code, "decision", decision, "reason", reason)

	if a.audit == nil {
		return decision
	}

	rec := model.AttemptRecord{
		ID:        uuid.NewString(),
		Code:      code,
		Decision:  decision,
		Reason:    reason,
		DecidedAt: a.clock.Now(),
	}
	if err := a.audit.RecordAttempt(ctx, rec); err != nil {
		a.logger.Error("failed to record attempt", "code", code, "error", err)
	}
	return decision
}
