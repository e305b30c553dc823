// Package codehttp implements the CodeSource port over an HTTP(S) URL.
// Requests go through an in-memory httpcache transport, so repeated checks of
// an unchanged list cost a conditional request and a 304.
package codehttp

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/noisebridge/baron/internal/domain/model"
	"github.com/noisebridge/baron/internal/domain/port/driven"
)

// maxBodyBytes is the largest code list accepted. Anything bigger is rejected
// whole rather than truncated.
const maxBodyBytes = 1 << 20

// Compile-time interface satisfaction check.
var _ driven.CodeSource = (*Source)(nil)

// Source fetches the code list from a URL.
type Source struct {
	url    string
	client *http.Client
}

// NewSource creates a Source for url. Every request is bounded by timeout.
func NewSource(url string, timeout time.Duration) *Source {
	return &Source{
		url: url,
		client: &http.Client{
			Transport: httpcache.NewMemoryCacheTransport(),
			Timeout:   timeout,
		},
	}
}

// Name returns the URL.
func (s *Source) Name() string { return s.url }

// Signature returns the ETag, else the Last-Modified date, else a SHA-256 of
// the body.
func (s *Source) Signature(ctx context.Context) (string, error) {
	body, header, err := s.fetch(ctx)
	if err != nil {
		return "", err
	}
	if etag := header.Get("ETag"); etag != "" {
		return "etag:" + etag, nil
	}
	if lm := header.Get("Last-Modified"); lm != "" {
		return "last-modified:" + lm, nil
	}
	sum := sha256.Sum256(body)
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}

// Open fetches the list and returns it as an in-memory reader.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	body, _, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

func (s *Source) fetch(ctx context.Context) ([]byte, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build request for %s: %w: %w", s.url, model.ErrSourceUnavailable, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch %s: %w: %w", s.url, model.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("fetch %s: %w: status %d", s.url, model.ErrSourceUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w: %w", s.url, model.ErrSourceUnavailable, err)
	}
	// A cut-off list could end in a prefix of a real code.
	if len(body) > maxBodyBytes {
		return nil, nil, fmt.Errorf("read %s: %w: body exceeds %d bytes", s.url, model.ErrSourceMalformed, maxBodyBytes)
	}

	slog.Debug("fetched code list",
		"url", s.url,
		"bytes", len(body),
		"from_cache", resp.Header.Get(httpcache.XFromCache) != "",
	)
	return body, resp.Header, nil
}
