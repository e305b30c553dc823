package application_test

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/noisebridge/baron/internal/domain/model"
)

// --- Fake implementations ---

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeSource struct {
	name    string
	sig     string
	content string
	sigErr  error
	openErr error
	opens   int
}

func (s *fakeSource) Name() string { return s.name }

func (s *fakeSource) Signature(_ context.Context) (string, error) {
	return s.sig, s.sigErr
}

func (s *fakeSource) Open(_ context.Context) (io.ReadCloser, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	s.opens++
	return io.NopCloser(strings.NewReader(s.content)), nil
}

type readResult struct {
	key byte
	ok  bool
	err error
}

// keys scripts a successful read for every byte of s.
func keys(s string) []readResult {
	out := make([]readResult, 0, len(s))
	for i := 0; i < len(s); i++ {
		out = append(out, readResult{key: s[i], ok: true})
	}
	return out
}

func idle() readResult { return readResult{} }

type fakeDevice struct {
	mu          sync.Mutex
	reads       []readResult
	signals     []model.Signal
	writeErr    error
	onExhausted func()
}

func (d *fakeDevice) ReadKey(ctx context.Context, _ time.Duration) (byte, bool, error) {
	d.mu.Lock()
	if len(d.reads) == 0 {
		d.mu.Unlock()
		if d.onExhausted != nil {
			d.onExhausted()
		}
		<-ctx.Done()
		return 0, false, ctx.Err()
	}
	r := d.reads[0]
	d.reads = d.reads[1:]
	d.mu.Unlock()
	return r.key, r.ok, r.err
}

func (d *fakeDevice) Signal(_ context.Context, s model.Signal) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.signals = append(d.signals, s)
	return d.writeErr
}

func (d *fakeDevice) Close() error { return nil }

func (d *fakeDevice) Signals() []model.Signal {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]model.Signal(nil), d.signals...)
}

type fakeGate struct {
	calls int
	err   error
}

func (g *fakeGate) Open(_ context.Context) error {
	g.calls++
	return g.err
}

type fakeAudit struct {
	records []model.AttemptRecord
	err     error
}

func (a *fakeAudit) RecordAttempt(_ context.Context, rec model.AttemptRecord) error {
	a.records = append(a.records, rec)
	return a.err
}

func (a *fakeAudit) ListRecent(_ context.Context, limit int) ([]model.AttemptRecord, error) {
	if limit > len(a.records) {
		limit = len(a.records)
	}
	return a.records[:limit], nil
}

var (
	happyBlue = model.Signal{Tone: model.ToneHappy, Color: model.ColorBlue}
	sadRed    = model.Signal{Tone: model.ToneSad, Color: model.ColorRed}
	quietSad  = model.Signal{Quiet: true, Tone: model.ToneSad, Color: model.ColorRed}
)
