package main

import (
	"context"
	"net/http"
	"strings"
)

// Baseline is the response body produced by credentials known to be wrong.
type Baseline struct {
	Body       string
	StatusCode int
	Header     http.Header
}

// Matches reports whether body equals the baseline after trimming. A nil
// baseline matches nothing.
func (b *Baseline) Matches(body string) bool {
	if b == nil {
		return false
	}
	return strings.TrimSpace(body) == b.Body
}

// ProbeBaseline submits the sentinel credentials and keeps the response body
// as the failure fingerprint. A transport failure is logged and yields nil.
func ProbeBaseline(ctx context.Context, submitter *Submitter, h Heuristics, log *Logger) *Baseline {
	attempt := Attempt{
		Username: h.SentinelUsername,
		Password: h.SentinelPassword,
		Encoding: EncodingPlain,
	}

	resp, err := submitter.Submit(ctx, attempt)
	if err != nil {
		log.Warn().Err(err).Msg("baseline probe failed, continuing without baseline")
		return nil
	}

	log.Debug().
		Int("status", resp.StatusCode).
		Int("length", len(resp.Body)).
		Msg("captured baseline response")

	return &Baseline{
		Body:       strings.TrimSpace(resp.Body),
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
	}
}
