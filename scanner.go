package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/publicsuffix"
)

// Scanner fetches the target page and hands out cookie-isolated sessions.
// The transport is shared so connections are pooled; cookie jars are not.
type Scanner struct {
	transport    *http.Transport
	pageURL      *url.URL
	cfg          Config
	log          *Logger
	originalPage string
	pageStatus   int
	pageHeader   http.Header
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	URL        string
	Header     http.Header
	Body       string
	// Redirected is set when the response came from a different URL than
	// the one requested.
	Redirected bool
}

// scriptRedirectPattern matches location assignments on the page itself;
// names that merely end in "location" or hang off other objects do not count.
var scriptRedirectPattern = regexp.MustCompile(`(?:^|[^\w.$])(?:(?:window|document|self|top)\.)?location(?:\.href)?\s*(?:=|\.replace\(|\.assign\()\s*["']([^"']+)["']`)

// NewScanner normalizes the target URL and fetches the login page. If the
// page has no form but redirects through a meta refresh or a location
// assignment in script, that single hop is followed.
func NewScanner(ctx context.Context, targetURL string, cfg Config, log *Logger) (*Scanner, error) {
	if !strings.HasPrefix(targetURL, "http://") && !strings.HasPrefix(targetURL, "https://") {
		targetURL = "http://" + targetURL
	}

	parsedURL, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid URL: %v", ErrFetch, err)
	}

	scanner := &Scanner{
		transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true, // targets under test often run self-signed certs
			},
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
		pageURL: parsedURL,
		cfg:     cfg,
		log:     log,
	}

	if err := scanner.loadPage(ctx); err != nil {
		// Try HTTPS if HTTP fails
		if parsedURL.Scheme != "http" {
			return nil, err
		}
		httpsURL := *parsedURL
		httpsURL.Scheme = "https"
		scanner.pageURL = &httpsURL

		if httpsErr := scanner.loadPage(ctx); httpsErr != nil {
			return nil, err
		}
	}

	if err := scanner.followScriptRedirect(ctx); err != nil {
		return nil, err
	}

	return scanner, nil
}

func (s *Scanner) loadPage(ctx context.Context) error {
	resp, err := s.Get(ctx, s.pageURL.String())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFetch, err)
	}

	// The login page is wherever the fetch ended up.
	if finalURL, err := url.Parse(resp.URL); err == nil {
		s.pageURL = finalURL
	}
	s.originalPage = resp.Body
	s.pageStatus = resp.StatusCode
	s.pageHeader = resp.Header

	s.log.Debug().
		Str("url", resp.URL).
		Int("status", resp.StatusCode).
		Msg("fetched login page")

	return nil
}

// followScriptRedirect follows one meta-refresh or script redirect when the
// fetched page has no form of its own.
func (s *Scanner) followScriptRedirect(ctx context.Context) error {
	doc, err := s.Document()
	if err != nil {
		return err
	}
	if doc.Find("form").Length() > 0 {
		return nil
	}

	target := findScriptRedirect(doc)
	if target == "" {
		return nil
	}

	next, err := s.pageURL.Parse(target)
	if err != nil {
		return nil
	}

	s.log.Info().Str("from", s.pageURL.String()).Str("to", next.String()).Msg("following page redirect")

	previous := s.pageURL
	s.pageURL = next
	if err := s.loadPage(ctx); err != nil {
		s.pageURL = previous
		return err
	}
	return nil
}

func findScriptRedirect(doc *goquery.Document) string {
	var target string

	doc.Find("meta[http-equiv]").EachWithBreak(func(_ int, meta *goquery.Selection) bool {
		equiv, _ := meta.Attr("http-equiv")
		if !strings.EqualFold(strings.TrimSpace(equiv), "refresh") {
			return true
		}
		content, _ := meta.Attr("content")
		target = parseRefreshContent(content)
		return target == ""
	})
	if target != "" {
		return target
	}

	doc.Find("script").EachWithBreak(func(_ int, script *goquery.Selection) bool {
		if m := scriptRedirectPattern.FindStringSubmatch(script.Text()); m != nil {
			target = m[1]
			return false
		}
		return true
	})

	return target
}

// parseRefreshContent extracts the URL from a refresh value like "0; url=/login".
func parseRefreshContent(content string) string {
	parts := strings.SplitN(content, ";", 2)
	if len(parts) != 2 {
		return ""
	}
	if _, err := strconv.Atoi(strings.TrimSpace(parts[0])); err != nil {
		return ""
	}

	rest := strings.TrimSpace(parts[1])
	if len(rest) < 4 || !strings.EqualFold(rest[:3], "url") {
		return ""
	}
	rest = strings.TrimSpace(rest[3:])
	rest = strings.TrimPrefix(rest, "=")
	return strings.Trim(strings.TrimSpace(rest), `"'`)
}

// NewSession returns a client with its own cookie jar. POST requests are
// never auto-redirected so the caller can resolve the hop itself.
func (s *Scanner) NewSession() (*http.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{
		PublicSuffixList: publicsuffix.List,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %v", err)
	}

	return &http.Client{
		Jar:       jar,
		Timeout:   s.cfg.Timeout,
		Transport: s.transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if via[0].Method == http.MethodPost {
				return http.ErrUseLastResponse
			}
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}, nil
}

func (s *Scanner) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	if s.pageURL != nil {
		req.Header.Set("Referer", s.pageURL.String())
	}
}

// Do sends req through client with the browser headers and reads the body.
func (s *Scanner) Do(client *http.Client, req *http.Request) (*Response, error) {
	s.setHeaders(req)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		URL:        resp.Request.URL.String(),
		Header:     resp.Header,
		Body:       string(body),
		Redirected: resp.Request.URL.String() != req.URL.String(),
	}, nil
}

// Get fetches targetURL in a fresh session.
func (s *Scanner) Get(ctx context.Context, targetURL string) (*Response, error) {
	client, err := s.NewSession()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, err
	}

	return s.Do(client, req)
}

// Head issues a HEAD request in a fresh session.
func (s *Scanner) Head(ctx context.Context, targetURL string) (*Response, error) {
	client, err := s.NewSession()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, targetURL, nil)
	if err != nil {
		return nil, err
	}

	return s.Do(client, req)
}

// Document parses the fetched login page.
func (s *Scanner) Document() (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s.originalPage))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %v", err)
	}
	return doc, nil
}

// FindForm extracts the login form contract from the fetched page.
func (s *Scanner) FindForm() (*Form, error) {
	doc, err := s.Document()
	if err != nil {
		return nil, err
	}
	return ExtractForm(doc, s.pageURL, s.cfg.Heuristics)
}

// FindForms lists every form on the fetched page.
func (s *Scanner) FindForms() ([]*Form, error) {
	doc, err := s.Document()
	if err != nil {
		return nil, err
	}
	return ListForms(doc, s.pageURL, s.cfg.Heuristics), nil
}

// CSRFRotates re-fetches the page in a new session and reports whether the
// anti-forgery token changed. A rotating token is captured only once, so
// every attempt after the first will likely be rejected.
func (s *Scanner) CSRFRotates(ctx context.Context, form *Form) (bool, error) {
	if form.CSRF == nil {
		return false, nil
	}

	resp, err := s.Get(ctx, s.pageURL.String())
	if err != nil {
		return false, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.Body))
	if err != nil {
		return false, err
	}

	fresh, err := ExtractForm(doc, s.pageURL, s.cfg.Heuristics)
	if err != nil {
		return false, err
	}

	field, ok := fresh.Field(form.CSRF.Name)
	if !ok {
		return false, nil
	}
	return field.Value != form.CSRF.Value, nil
}

// DetectWAF inspects the login page response for firewall markers.
func (s *Scanner) DetectWAF() string {
	return DetectWAF(s.pageStatus, s.pageHeader)
}

func (s *Scanner) PageURL() string {
	return s.pageURL.String()
}

func (s *Scanner) GetOriginalPage() string {
	return s.originalPage
}
