package application

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/noisebridge/baron/internal/domain/model"
	"github.com/noisebridge/baron/internal/domain/port/driven"
)

// CommentMarker starts a comment in a code list; the rest of the line is ignored.
const CommentMarker = "#"

// RegistryLoader builds credential registries from a CodeSource and installs
// them in a RegistryProvider. It only rebuilds when the source signature has
// changed since the last successful load.
type RegistryLoader struct {
	source   driven.CodeSource
	provider *RegistryProvider
	clock    Clock
	metrics  *Metrics
	logger   *slog.Logger

	mu      sync.Mutex
	lastSig string
	loaded  bool
}

// NewRegistryLoader creates a loader. clock, metrics and logger may be nil.
func NewRegistryLoader(
	source driven.CodeSource,
	provider *RegistryProvider,
	clock Clock,
	metrics *Metrics,
	logger *slog.Logger,
) *RegistryLoader {
	if clock == nil {
		clock = SystemClock()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RegistryLoader{
		source:   source,
		provider: provider,
		clock:    clock,
		metrics:  metrics,
		logger:   logger,
	}
}

// SourceName returns the name of the underlying code source.
func (l *RegistryLoader) SourceName() string {
	return l.source.Name()
}

// Load returns the authoritative registry, rebuilding it first if the source
// has changed. On failure the provider keeps its previous registry and the
// error wraps model.ErrSourceUnavailable or model.ErrSourceMalformed.
func (l *RegistryLoader) Load(ctx context.Context) (*model.Registry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	name := l.source.Name()

	sig, err := l.source.Signature(ctx)
	if err != nil {
		return nil, l.fail(name, asUnavailable(err))
	}

	if current := l.provider.Get(); l.loaded && current != nil && sig == l.lastSig {
		l.logger.Debug("code source unchanged, not reloading", "source", name)
		l.metrics.Reloads.WithLabelValues(ReloadUnchanged).Inc()
		return current, nil
	}

	rc, err := l.source.Open(ctx)
	if err != nil {
		return nil, l.fail(name, asUnavailable(err))
	}
	defer rc.Close()

	registry, err := l.parse(rc, name)
	if err != nil {
		return nil, l.fail(name, err)
	}

	l.provider.Replace(registry, l.clock.Now())
	l.lastSig = sig
	l.loaded = true

	l.metrics.Reloads.WithLabelValues(ReloadLoaded).Inc()
	l.metrics.RegistryCodes.Set(float64(registry.Len()))
	l.logger.Info("loaded codes", "source", name, "count", registry.Len())

	return registry, nil
}

// parse reads one code per line. Text after CommentMarker is dropped, blank
// lines are skipped, and lines that are not all digits are logged and skipped.
func (l *RegistryLoader) parse(r io.Reader, name string) (*model.Registry, error) {
	registry := model.NewRegistry(l.clock.Now, l.logger)
	now := l.clock.Now()

	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++

		code, _, _ := strings.Cut(scanner.Text(), CommentMarker)
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if !model.IsDigits(code) {
			l.logger.Warn("ignoring malformed line", "source", name, "line", lineno)
			continue
		}

		cred, err := model.NewCredential(code, now, model.NeverExpires)
		if err != nil {
			l.logger.Warn("ignoring malformed line", "source", name, "line", lineno, "error", err)
			continue
		}
		if err := registry.Add(cred); err != nil {
			l.logger.Warn("ignoring code", "source", name, "line", lineno, "error", err)
			continue
		}
	}

	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, fmt.Errorf("%s:%d: %w: %v", name, lineno+1, model.ErrSourceMalformed, err)
		}
		return nil, fmt.Errorf("read %s: %w: %v", name, model.ErrSourceUnavailable, err)
	}

	return registry, nil
}

func (l *RegistryLoader) fail(name string, err error) error {
	l.metrics.Reloads.WithLabelValues(ReloadFailed).Inc()
	l.logger.Error("error loading codes", "source", name, "error", err)
	return err
}

func asUnavailable(err error) error {
	if errors.Is(err, model.ErrSourceUnavailable) || errors.Is(err, model.ErrSourceMalformed) {
		return err
	}
	return fmt.Errorf("%w: %w", model.ErrSourceUnavailable, err)
}
