package main

import (
	"net/url"
	"strings"
)

// Outcome is the verdict for a single attempt.
type Outcome int

const (
	Failure Outcome = iota
	Success
)

func (o Outcome) String() string {
	if o == Success {
		return "success"
	}
	return "failure"
}

// Rule names which step of the cascade decided a result.
type Rule string

const (
	RuleHTTPError          Rule = "http-error"
	RuleUnresolvedRedirect Rule = "unresolved-redirect"
	RuleRedirectedToLogin  Rule = "redirected-to-login"
	RuleKeywordSuccess     Rule = "keyword-success"
	RuleKeywordFailure     Rule = "keyword-failure"
	RuleMatchesBaseline    Rule = "matches-baseline"
	RuleInconclusive       Rule = "inconclusive-default"
	RuleTransportError     Rule = "transport-error"
)

// Result is the classification of one response.
type Result struct {
	Outcome Outcome
	Rule    Rule
	Keyword string
}

// Classifier judges responses with an ordered cascade: status, landing URL,
// success keywords, failure keywords, baseline match. Anything left over is
// a failure; an ambiguous response is never reported as success.
type Classifier struct {
	loginURL string
	success  []string
	failure  []string
	baseline *Baseline
}

func NewClassifier(loginURL string, h Heuristics, baseline *Baseline) *Classifier {
	return &Classifier{
		loginURL: loginURL,
		success:  lowerAll(h.SuccessKeywords),
		failure:  lowerAll(h.FailureKeywords),
		baseline: baseline,
	}
}

func (c *Classifier) Classify(resp *Response) Result {
	if resp.StatusCode >= 400 {
		return Result{Outcome: Failure, Rule: RuleHTTPError}
	}

	// A redirect whose hop could not be followed has no landing page to judge.
	if isRedirect(resp.StatusCode) {
		return Result{Outcome: Failure, Rule: RuleUnresolvedRedirect}
	}

	// Only a landing URL reached through a redirect counts; the form's own
	// action URL often contains "login".
	if resp.Redirected && (sameURL(resp.URL, c.loginURL) || strings.Contains(strings.ToLower(resp.URL), "login")) {
		return Result{Outcome: Failure, Rule: RuleRedirectedToLogin}
	}

	body := strings.ToLower(resp.Body)

	if kw := containsAny(body, c.success); kw != "" {
		return Result{Outcome: Success, Rule: RuleKeywordSuccess, Keyword: kw}
	}

	if kw := containsAny(body, c.failure); kw != "" {
		return Result{Outcome: Failure, Rule: RuleKeywordFailure, Keyword: kw}
	}

	if c.baseline.Matches(resp.Body) {
		return Result{Outcome: Failure, Rule: RuleMatchesBaseline}
	}

	return Result{Outcome: Failure, Rule: RuleInconclusive}
}

// sameURL compares two URLs ignoring fragments and a trailing slash.
func sameURL(a, b string) bool {
	return canonicalURL(a) == canonicalURL(b)
}

func canonicalURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return strings.TrimSuffix(raw, "/")
	}
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.Host = strings.ToLower(u.Host)
	return u.String()
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
