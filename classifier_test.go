package main

import "testing"

func TestClassify(t *testing.T) {
	const loginURL = "http://example.com/login"

	tests := []struct {
		name     string
		resp     Response
		baseline *Baseline
		outcome  Outcome
		rule     Rule
		keyword  string
	}{
		{
			name:    "Server error",
			resp:    Response{StatusCode: 500, URL: "http://example.com/home", Body: "welcome"},
			outcome: Failure,
			rule:    RuleHTTPError,
		},
		{
			name:    "Forbidden",
			resp:    Response{StatusCode: 403, URL: loginURL, Body: "dashboard"},
			outcome: Failure,
			rule:    RuleHTTPError,
		},
		{
			name:    "Redirect without landing page",
			resp:    Response{StatusCode: 302, URL: loginURL, Body: "Welcome to your dashboard"},
			outcome: Failure,
			rule:    RuleUnresolvedRedirect,
		},
		{
			name:    "Redirected back to login page",
			resp:    Response{StatusCode: 200, URL: loginURL + "/", Body: "Welcome, please sign in", Redirected: true},
			outcome: Failure,
			rule:    RuleRedirectedToLogin,
		},
		{
			name:    "Redirected to other login URL",
			resp:    Response{StatusCode: 200, URL: "http://example.com/LOGIN?error=1", Body: "dashboard", Redirected: true},
			outcome: Failure,
			rule:    RuleRedirectedToLogin,
		},
		{
			name:    "Action URL without redirect",
			resp:    Response{StatusCode: 200, URL: loginURL, Body: "Welcome dashboard"},
			outcome: Success,
			rule:    RuleKeywordSuccess,
			keyword: "dashboard",
		},
		{
			name:    "Success keyword beats failure keyword",
			resp:    Response{StatusCode: 200, URL: "http://example.com/x", Body: "Welcome, but invalid session"},
			outcome: Success,
			rule:    RuleKeywordSuccess,
			keyword: "welcome",
		},
		{
			name:    "Failure keyword",
			resp:    Response{StatusCode: 200, URL: loginURL, Body: "Incorrect password, try again"},
			outcome: Failure,
			rule:    RuleKeywordFailure,
			keyword: "incorrect",
		},
		{
			name:     "Matches baseline",
			resp:     Response{StatusCode: 200, URL: loginURL, Body: "  Nope.\n"},
			baseline: &Baseline{Body: "Nope."},
			outcome:  Failure,
			rule:     RuleMatchesBaseline,
		},
		{
			name:     "Keyword precedes baseline",
			resp:     Response{StatusCode: 200, URL: loginURL, Body: "Login failed"},
			baseline: &Baseline{Body: "Login failed"},
			outcome:  Failure,
			rule:     RuleKeywordFailure,
			keyword:  "fail",
		},
		{
			name:     "Success keyword with baseline set",
			resp:     Response{StatusCode: 200, URL: loginURL, Body: "Your dashboard"},
			baseline: &Baseline{Body: "Login failed"},
			outcome:  Success,
			rule:     RuleKeywordSuccess,
			keyword:  "dashboard",
		},
		{
			name:     "Differs from baseline",
			resp:     Response{StatusCode: 200, URL: loginURL, Body: "Hello there"},
			baseline: &Baseline{Body: "Nope."},
			outcome:  Failure,
			rule:     RuleInconclusive,
		},
		{
			name:    "No baseline",
			resp:    Response{StatusCode: 200, URL: loginURL, Body: "Hello there"},
			outcome: Failure,
			rule:    RuleInconclusive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClassifier(loginURL, DefaultHeuristics(), tt.baseline)
			got := c.Classify(&tt.resp)

			if got.Outcome != tt.outcome || got.Rule != tt.rule {
				t.Errorf("Classify() = %s/%s, expected %s/%s", got.Outcome, got.Rule, tt.outcome, tt.rule)
			}
			if tt.keyword != "" && got.Keyword != tt.keyword {
				t.Errorf("Keyword = %q, expected %q", got.Keyword, tt.keyword)
			}
		})
	}
}

// With no failure keyword in the body, only the baseline comparison can
// tell a plain rejection from an inconclusive page.
func TestClassifyBaselineFallback(t *testing.T) {
	h := DefaultHeuristics()
	h.FailureKeywords = []string{"denied"}

	c := NewClassifier("http://example.com/login", h, &Baseline{Body: "Login failed"})
	got := c.Classify(&Response{StatusCode: 200, URL: "http://example.com/login", Body: "Login failed"})

	if got.Outcome != Failure || got.Rule != RuleMatchesBaseline {
		t.Errorf("Classify() = %s/%s, expected failure/%s", got.Outcome, got.Rule, RuleMatchesBaseline)
	}
}

func TestClassifySuccessKeywordOrder(t *testing.T) {
	c := NewClassifier("http://example.com/login", DefaultHeuristics(), nil)
	got := c.Classify(&Response{StatusCode: 200, URL: "http://example.com/", Body: "home | settings | logout"})

	// logout precedes settings and home in the keyword list
	if got.Keyword != "logout" {
		t.Errorf("Expected first keyword in list order, got %q", got.Keyword)
	}
}
