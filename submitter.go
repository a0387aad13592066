package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// Encoding is how credential values are written into the form.
type Encoding int

const (
	EncodingPlain Encoding = iota
	EncodingBase64
)

func (e Encoding) String() string {
	if e == EncodingBase64 {
		return "base64"
	}
	return "plain"
}

func (e Encoding) apply(value string) string {
	if e == EncodingBase64 {
		return base64.StdEncoding.EncodeToString([]byte(value))
	}
	return value
}

// BodyFormat is the request body encoding chosen for the target.
type BodyFormat int

const (
	BodyForm BodyFormat = iota
	BodyJSON
)

func (b BodyFormat) String() string {
	if b == BodyJSON {
		return "json"
	}
	return "form"
}

// Attempt is one credential pair in flight.
type Attempt struct {
	Username string
	Password string
	Encoding Encoding
}

// Submitter renders attempts against a form contract and sends them, each in
// its own session.
type Submitter struct {
	scanner *Scanner
	form    *Form
	log     *Logger

	probeOnce  sync.Once
	bodyFormat BodyFormat
}

func NewSubmitter(scanner *Scanner, form *Form, log *Logger) *Submitter {
	return &Submitter{
		scanner: scanner,
		form:    form,
		log:     log,
	}
}

// Form returns the contract the submitter renders.
func (s *Submitter) Form() *Form {
	return s.form
}

// Fill copies the field template and writes the attempt's credentials into
// the credential slots. The shared template is never touched.
func (s *Submitter) Fill(a Attempt) []Field {
	fields := s.form.Values()

	for i := range fields {
		switch fields[i].Role {
		case RoleUsername:
			fields[i].Value = a.Encoding.apply(a.Username)
		case RolePassword:
			fields[i].Value = a.Encoding.apply(a.Password)
		}
	}

	if csrf := s.form.CSRF; csrf != nil {
		for i := range fields {
			if fields[i].Name == csrf.Name {
				fields[i].Value = csrf.Value
			}
		}
	}

	return fields
}

// BodyFormat probes the action URL once with HEAD and picks JSON when the
// server advertises it, URL-form encoding otherwise.
func (s *Submitter) BodyFormat(ctx context.Context) BodyFormat {
	s.probeOnce.Do(func() {
		s.bodyFormat = BodyForm

		resp, err := s.scanner.Head(ctx, s.form.Action)
		if err != nil {
			s.log.Debug().Err(err).Msg("content-type probe failed, using form encoding")
			return
		}

		if strings.Contains(strings.ToLower(resp.Header.Get("Content-Type")), "json") {
			s.bodyFormat = BodyJSON
		}

		s.log.Debug().
			Str("content_type", resp.Header.Get("Content-Type")).
			Str("format", s.bodyFormat.String()).
			Msg("content-type probe")
	})

	return s.bodyFormat
}

// Submit sends one attempt. A redirect answer to a POST is resolved with a
// single follow-up GET in the same session; that response is returned. A
// redirect without a usable Location comes back unresolved and the
// classifier fails it.
func (s *Submitter) Submit(ctx context.Context, a Attempt) (*Response, error) {
	client, err := s.scanner.NewSession()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	req, err := s.buildRequest(ctx, s.Fill(a))
	if err != nil {
		return nil, err
	}

	resp, err := s.scanner.Do(client, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	if !isRedirect(resp.StatusCode) {
		return resp, nil
	}

	location := resp.Header.Get("Location")
	if location == "" {
		s.log.Debug().Int("status", resp.StatusCode).Msg("redirect without location")
		return resp, nil
	}

	next, err := req.URL.Parse(location)
	if err != nil {
		s.log.Debug().Str("location", location).Err(err).Msg("unparseable redirect location")
		return resp, nil
	}

	follow, err := http.NewRequestWithContext(ctx, http.MethodGet, next.String(), nil)
	if err != nil {
		return nil, err
	}

	followResp, err := s.scanner.Do(client, follow)
	if err != nil {
		return nil, fmt.Errorf("%w: redirect to %s: %v", ErrTransport, next, err)
	}
	followResp.Redirected = true
	return followResp, nil
}

func (s *Submitter) buildRequest(ctx context.Context, fields []Field) (*http.Request, error) {
	if s.form.Method == http.MethodGet {
		target, err := url.Parse(s.form.Action)
		if err != nil {
			return nil, fmt.Errorf("invalid form action %q: %w", s.form.Action, err)
		}
		query := target.Query()
		for _, field := range fields {
			query.Set(field.Name, field.Value)
		}
		target.RawQuery = query.Encode()
		return http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	}

	var (
		body        io.Reader
		contentType string
	)

	switch s.BodyFormat(ctx) {
	case BodyJSON:
		payload := make(map[string]string, len(fields))
		for _, field := range fields {
			payload[field.Name] = field.Value
		}
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	default:
		formData := url.Values{}
		for _, field := range fields {
			formData.Set(field.Name, field.Value)
		}
		body = strings.NewReader(formData.Encode())
		contentType = "application/x-www-form-urlencoded"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.form.Action, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	return req, nil
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}
