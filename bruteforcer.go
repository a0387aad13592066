package main

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"golang.org/x/time/rate"
)

// BruteForcer fans the username × password cross-product out over a bounded
// worker pool and stops at the first success.
type BruteForcer struct {
	submitter  *Submitter
	classifier *Classifier
	threads    int
	limiter    *rate.Limiter
	base64     bool
	verbose    bool
	preview    int
	log        *Logger

	attempts        atomic.Int64
	failures        atomic.Int64
	transportErrors atomic.Int64
}

// Credential is a pair the classifier accepted.
type Credential struct {
	Username  string
	Password  string
	Encoding  Encoding
	Rule      Rule
	Keyword   string
	Timestamp time.Time
}

type TestJob struct {
	Attempt
}

// Stats counts what a run did.
type Stats struct {
	Attempts        int64
	Failures        int64
	TransportErrors int64
}

func NewBruteForcer(submitter *Submitter, classifier *Classifier, cfg Config, log *Logger) *BruteForcer {
	limit := rate.Inf
	burst := 1
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
		burst = int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
	}

	threads := cfg.Threads
	if threads < 1 {
		threads = 1
	}

	return &BruteForcer{
		submitter:  submitter,
		classifier: classifier,
		threads:    threads,
		limiter:    rate.NewLimiter(limit, burst),
		base64:     cfg.Base64Fallback,
		verbose:    cfg.Verbose,
		preview:    cfg.PreviewLength,
		log:        log,
	}
}

// Start runs a plain pass and, only if it finds nothing, a base64 pass.
func (bf *BruteForcer) Start(ctx context.Context, usernames, passwords []string) *Credential {
	if cred := bf.run(ctx, usernames, passwords, EncodingPlain); cred != nil {
		return cred
	}

	if !bf.base64 || ctx.Err() != nil {
		return nil
	}

	color.Yellow("[!] No plain-text match, retrying with base64-encoded credentials")
	bf.log.Info().Msg("starting base64 pass")

	return bf.run(ctx, usernames, passwords, EncodingBase64)
}

// Stats returns the counters accumulated over all passes.
func (bf *BruteForcer) Stats() Stats {
	return Stats{
		Attempts:        bf.attempts.Load(),
		Failures:        bf.failures.Load(),
		TransportErrors: bf.transportErrors.Load(),
	}
}

func (bf *BruteForcer) run(parent context.Context, usernames, passwords []string, enc Encoding) *Credential {
	ctx, stop := context.WithCancel(parent)
	defer stop()

	jobs := make(chan TestJob, bf.threads*2)

	var (
		found     *Credential
		foundOnce sync.Once
		wg        sync.WaitGroup
	)

	report := func(cred *Credential) {
		foundOnce.Do(func() {
			found = cred
			stop() // stop feeding; in-flight attempts drain
		})
	}

	for i := 0; i < bf.threads; i++ {
		wg.Add(1)
		go bf.worker(ctx, parent, i, jobs, report, &wg)
	}

	// Feed jobs
feed:
	for _, username := range usernames {
		for _, password := range passwords {
			job := TestJob{Attempt{Username: username, Password: password, Encoding: enc}}
			select {
			case <-ctx.Done():
				break feed
			case jobs <- job:
			}
		}
	}
	close(jobs)

	wg.Wait()

	return found
}

// worker consumes jobs until the channel closes. stopCtx ends dispatch after
// the first success; requests run under reqCtx so an attempt already on the
// wire is allowed to finish.
func (bf *BruteForcer) worker(stopCtx, reqCtx context.Context, id int, jobs <-chan TestJob, report func(*Credential), wg *sync.WaitGroup) {
	defer wg.Done()

	log := bf.log.WithWorker(id)

	for job := range jobs {
		if stopCtx.Err() != nil {
			continue // drain
		}

		if err := bf.limiter.Wait(stopCtx); err != nil {
			continue
		}

		result := bf.testCredential(reqCtx, log, job.Attempt)
		if result.Outcome != Success {
			continue
		}

		report(&Credential{
			Username:  job.Username,
			Password:  job.Password,
			Encoding:  job.Encoding,
			Rule:      result.Rule,
			Keyword:   result.Keyword,
			Timestamp: time.Now(),
		})
	}
}

func (bf *BruteForcer) testCredential(ctx context.Context, log *Logger, a Attempt) Result {
	n := bf.attempts.Add(1)
	attemptLog := log.WithAttempt(a)

	resp, err := bf.submitter.Submit(ctx, a)
	if err != nil {
		if ctx.Err() != nil {
			// interrupted by the operator, not a target fault
			return Result{Outcome: Failure, Rule: RuleTransportError}
		}
		bf.transportErrors.Add(1)
		bf.failures.Add(1)
		attemptLog.Error().Err(err).Msg("attempt failed")
		if bf.verbose {
			color.Yellow("[!] Request failed for %s:%s - %v", a.Username, a.Password, err)
		}
		return Result{Outcome: Failure, Rule: RuleTransportError}
	}

	result := bf.classifier.Classify(resp)
	if result.Outcome != Success {
		bf.failures.Add(1)
	}

	attemptLog.Debug().
		Int("status", resp.StatusCode).
		Str("rule", string(result.Rule)).
		Str("outcome", result.Outcome.String()).
		Msg("attempt classified")

	if bf.verbose {
		color.White("[%d] %s:%s (%s) -> %d %s [%s]", n, a.Username, a.Password, a.Encoding, resp.StatusCode, result.Outcome, result.Rule)
		color.HiBlack("    %s", preview(resp.Body, bf.preview))
	} else if n%50 == 0 {
		color.Cyan("[*] Tested %d credentials", n)
	}

	return result
}

// preview flattens and truncates a body for console output.
func preview(body string, n int) string {
	flat := []rune(collapseWhitespace(body))
	if n <= 0 || len(flat) <= n {
		return string(flat)
	}
	return string(flat[:n]) + "..."
}
