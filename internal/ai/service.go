package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Service streams generation with provider fallback: the primary provider is
// tried first and the fallback takes over on runtime failure. Provider
// construction errors are collected rather than fatal, so a deployment with
// only one configured key still works.
//
// Service is safe for concurrent use by multiple goroutines.
type Service struct {
	providers  []Provider
	initErrors []error
	logger     *slog.Logger
}

// NewService creates a generation service. Providers are tried in order;
// nil entries are skipped. initErrors records why absent providers could
// not be constructed and is included in the failure report when every
// provider fails.
func NewService(providers []Provider, initErrors []error, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	active := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p != nil {
			active = append(active, p)
		}
	}

	return &Service{providers: active, initErrors: initErrors, logger: logger}
}

// Stream generates text for the prompt, invoking fn once per delta.
//
// A provider failing before it produced any output falls through to the
// next provider. A failure mid-stream is returned as-is: the caller has
// already seen partial output and a silent restart would duplicate it.
func (s *Service) Stream(ctx context.Context, prompt string, fn StreamFunc) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}
	if len(s.providers) == 0 {
		return s.unavailable(nil)
	}

	var runtimeErrors []error
	for _, p := range s.providers {
		started := false
		wrapped := func(delta string) error {
			started = true
			return fn(delta)
		}

		err := p.Stream(ctx, prompt, wrapped)
		if err == nil {
			return nil
		}
		if started || ctx.Err() != nil {
			return fmt.Errorf("%s stream: %w", p.Name(), err)
		}

		s.logger.Warn("generation provider failed, trying next",
			"provider", p.Name(), "error", err)
		runtimeErrors = append(runtimeErrors, fmt.Errorf("%s: %w", p.Name(), err))
	}

	return s.unavailable(runtimeErrors)
}

// unavailable builds the all-providers-failed error, joining the collected
// init and runtime causes.
func (s *Service) unavailable(runtimeErrors []error) error {
	causes := make([]error, 0, len(s.initErrors)+len(runtimeErrors)+1)
	causes = append(causes, ErrNoProviders)
	causes = append(causes, s.initErrors...)
	causes = append(causes, runtimeErrors...)
	return errors.Join(causes...)
}
