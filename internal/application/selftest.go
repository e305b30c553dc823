package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/noisebridge/baron/internal/domain/model"
	"github.com/noisebridge/baron/internal/domain/port/driven"
)

// SelfTestCode is the only code accepted during a self-test.
const SelfTestCode = "42"

// selfTestSignals walks every tone and color the keypad firmware supports.
var selfTestSignals = []model.Signal{
	{Tone: model.ToneSad, Color: model.ColorRed},
	{Tone: model.ToneSad, Color: model.ColorGreen},
	{Tone: model.ToneSad, Color: model.ColorBlue},
	{Quiet: true},
	{Tone: model.ToneHappy, Color: model.ColorRed},
	{Tone: model.ToneHappy, Color: model.ColorGreen},
	{Tone: model.ToneHappy, Color: model.ColorBlue},
}

// SelfTest exercises the keypad outputs and then the full authorization path
// with a throwaway registry, without touching the code source.
type SelfTest struct {
	device     driven.Device
	provider   *RegistryProvider
	authorizer *Authorizer
	clock      Clock
	pause      time.Duration
	logger     *slog.Logger
}

// NewSelfTest creates a SelfTest. authorizer must read from provider.
func NewSelfTest(device driven.Device, provider *RegistryProvider, authorizer *Authorizer, clock Clock, pause time.Duration, logger *slog.Logger) *SelfTest {
	if clock == nil {
		clock = SystemClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SelfTest{
		device:     device,
		provider:   provider,
		authorizer: authorizer,
		clock:      clock,
		pause:      pause,
		logger:     logger,
	}
}

// Run plays the signal sequence, installs a registry holding only
// SelfTestCode, and attempts that code. It returns the attempt's decision.
func (t *SelfTest) Run(ctx context.Context) (model.Decision, error) {
	for _, s := range selfTestSignals {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		t.logger.Debug("sending test signal", "signal", s)
		if err := t.device.Signal(ctx, s); err != nil {
			t.logger.Warn("test signal failed", "signal", s, "error", err)
		}
		if t.pause <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(t.pause):
		}
	}

	registry := model.NewRegistry(t.clock.Now, t.logger)
	cred, err := model.NewCredential(SelfTestCode, t.clock.Now(), model.NeverExpires)
	if err != nil {
		return "", fmt.Errorf("build test credential: %w", err)
	}
	if err := registry.Add(cred); err != nil {
		return "", fmt.Errorf("add test credential: %w", err)
	}
	t.provider.Replace(registry, t.clock.Now())

	decision := t.authorizer.AttemptWithoutReload(ctx, SelfTestCode)
	t.logger.Info("self-test complete", "decision", decision)
	return decision, nil
}
