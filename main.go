package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const banner = `
███████╗██╗███████╗ ██████╗ ███████╗
██╔════╝██║██╔════╝██╔════╝ ██╔════╝
███████╗██║█████╗  ██║  ███╗█████╗
╚════██║██║██╔══╝  ██║   ██║██╔══╝
███████║██║███████╗╚██████╔╝███████╗
╚══════╝╚═╝╚══════╝ ╚═════╝ ╚══════╝

  Login Form Analyzer & Credential Tester
`

// options holds the parsed command line.
type options struct {
	analyze      bool
	username     string
	password     string
	usernameFile string
	passwordFile string
	verbose      bool
	configFile   string
	logFile      string
	threads      int
	timeout      time.Duration
	rateLimit    float64
	userAgent    string
	noBase64     bool
	noColor      bool
}

func main() {
	var opts options

	rootCmd := &cobra.Command{
		Use:   "siege <url>",
		Short: "Analyze a login form and test credentials against it",
		Long: `siege fetches a login page, infers its authentication form, captures a
baseline failure response and submits username/password pairs concurrently,
classifying each response with keyword and redirect heuristics.

Only use it against systems you are authorized to test.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("%w: expected exactly one target URL, got %d", ErrUsage, len(args))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], opts)
		},
	}

	flags := rootCmd.Flags()
	flags.BoolVar(&opts.analyze, "analyze", false, "Only extract and print the login form contract")
	flags.StringVarP(&opts.username, "username", "u", "", "Single username")
	flags.StringVarP(&opts.password, "password", "p", "", "Single password")
	flags.StringVarP(&opts.usernameFile, "username-file", "U", "", "Username list file")
	flags.StringVarP(&opts.passwordFile, "password-file", "P", "", "Password list file")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Show request and response previews")
	flags.StringVarP(&opts.configFile, "config", "c", "", "YAML config file")
	flags.StringVar(&opts.logFile, "log-file", "siege.log", "Append-only log of successes and errors (- for readable stderr output)")
	flags.IntVarP(&opts.threads, "threads", "t", 10, "Concurrent submissions")
	flags.DurationVar(&opts.timeout, "timeout", 15*time.Second, "Per-request timeout")
	flags.Float64VarP(&opts.rateLimit, "rate", "r", 100, "Requests per second limit (0 = unlimited)")
	flags.StringVar(&opts.userAgent, "user-agent", "", "Override the browser User-Agent")
	flags.BoolVar(&opts.noBase64, "no-base64", false, "Skip the base64-encoded second pass")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	if err := rootCmd.Execute(); err != nil {
		color.Red("[-] %v", err)
		if errors.Is(err, ErrUsage) {
			fmt.Fprintln(os.Stderr)
			fmt.Fprintln(os.Stderr, rootCmd.UsageString())
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, target string, opts options) error {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		opts.noColor = true
	}
	color.NoColor = color.NoColor || opts.noColor

	printBanner()
	printLegalDisclaimer()

	cfg, err := buildConfig(cmd, opts)
	if err != nil {
		return err
	}

	// Credential sources are checked before any network activity.
	var usernames, passwords []string
	if !opts.analyze {
		usernames, passwords, err = loadCredentials(opts)
		if err != nil {
			return err
		}
		color.Green("[+] Loaded %d username(s) and %d password(s)", len(usernames), len(passwords))
	}

	logCfg, closeLog, err := runLogConfig(opts.logFile, cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer closeLog()

	log := NewLogger(logCfg).WithTarget(target)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	err = attack(ctx, target, cfg, opts, usernames, passwords, log)
	if err != nil {
		log.Error().Err(err).Msg("run aborted")
	}
	return err
}

func attack(ctx context.Context, target string, cfg Config, opts options, usernames, passwords []string, log *Logger) error {
	color.Cyan("[*] Fetching %s", target)
	scanner, err := NewScanner(ctx, target, cfg, log)
	if err != nil {
		return err
	}

	if cfg.Verbose {
		color.White("[*] Page %s: %s", scanner.PageURL(), preview(scanner.GetOriginalPage(), cfg.PreviewLength))
	}

	if waf := scanner.DetectWAF(); waf != "" {
		color.Red("[-] Target appears to be protected by %s", waf)
		log.Warn().Str("waf", waf).Msg("firewall detected on login page")
	}

	form, err := scanner.FindForm()
	if opts.analyze {
		if forms, listErr := scanner.FindForms(); listErr == nil && len(forms) > 0 {
			WriteForms(os.Stdout, forms, form)
		}
	}
	if err != nil {
		return err
	}

	color.Green("[+] Login form: %s", form.Description())
	if !form.IsLoginForm() {
		color.Yellow("[!] Form lacks either a username or a password slot; results may be unreliable")
	}

	if form.CSRF != nil {
		rotates, err := scanner.CSRFRotates(ctx, form)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("could not re-fetch page to check CSRF token")
		case rotates:
			color.Yellow("[!] CSRF token %q changes between page loads; it is captured once,", form.CSRF.Name)
			color.Yellow("    so attempts after the first will likely be rejected as false failures")
			log.Warn().Str("field", form.CSRF.Name).Msg("csrf token rotates per response")
		}
	}

	if opts.analyze {
		WriteContract(os.Stdout, form, opts.noColor)
		return nil
	}

	submitter := NewSubmitter(scanner, form, log)

	color.Cyan("\n[*] Capturing baseline failure response...")
	baseline := ProbeBaseline(ctx, submitter, cfg.Heuristics, log)
	if baseline == nil {
		color.Yellow("[!] No baseline captured; baseline comparison disabled")
	} else if waf := DetectWAF(baseline.StatusCode, baseline.Header); waf != "" {
		color.Red("[-] Submissions are answered by %s (status %d); results may be http-error failures", waf, baseline.StatusCode)
		log.Warn().Str("waf", waf).Int("status", baseline.StatusCode).Msg("firewall detected on submission")
	}

	classifier := NewClassifier(scanner.PageURL(), cfg.Heuristics, baseline)
	bruteForcer := NewBruteForcer(submitter, classifier, cfg, log)

	color.Cyan("\n[*] Starting credential testing...")
	color.Yellow("[!] Testing %d username(s) with %d password(s) each using %d thread(s)",
		len(usernames), len(passwords), cfg.Threads)

	result := bruteForcer.Start(ctx, usernames, passwords)
	stats := bruteForcer.Stats()

	if result != nil {
		color.Green("\n[+] Valid credentials found!")
		color.Green("    Username: %s", result.Username)
		color.Green("    Password: %s", result.Password)
		color.Green("    Encoding: %s (matched %s %q)", result.Encoding, result.Rule, result.Keyword)

		log.Info().
			Str("username", result.Username).
			Str("password", result.Password).
			Str("encoding", result.Encoding.String()).
			Str("rule", string(result.Rule)).
			Time("found_at", result.Timestamp).
			Msg("valid credentials found")
		if opts.logFile != "-" {
			color.Green("[+] Result recorded in %s", opts.logFile)
		}
	} else {
		color.Red("\n[-] No valid credentials found")
		log.Info().Int64("attempts", stats.Attempts).Msg("credential lists exhausted")
	}

	color.White("[*] %d attempt(s), %d transport error(s)", stats.Attempts, stats.TransportErrors)
	return ctx.Err()
}

// runLogConfig picks the log sink. "-" writes console-formatted records to
// stderr; anything else is a file that JSON lines are appended to.
func runLogConfig(path string, verbose bool) (LoggerConfig, func() error, error) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	if path == "-" {
		return LoggerConfig{Level: level, Output: os.Stderr, Pretty: true}, func() error { return nil }, nil
	}

	file, err := OpenLogFile(path)
	if err != nil {
		return LoggerConfig{}, nil, err
	}
	return LoggerConfig{Level: level, Output: file}, file.Close, nil
}

// buildConfig layers defaults, the optional config file, and explicitly set flags.
func buildConfig(cmd *cobra.Command, opts options) (Config, error) {
	cfg := DefaultConfig()
	if opts.configFile != "" {
		var err error
		if cfg, err = LoadConfig(opts.configFile); err != nil {
			return cfg, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("threads") || opts.configFile == "" {
		cfg.Threads = opts.threads
	}
	if flags.Changed("timeout") || opts.configFile == "" {
		cfg.Timeout = opts.timeout
	}
	if flags.Changed("rate") || opts.configFile == "" {
		cfg.RateLimit = opts.rateLimit
	}
	if opts.userAgent != "" {
		cfg.UserAgent = opts.userAgent
	}
	if opts.noBase64 {
		cfg.Base64Fallback = false
	}
	cfg.Verbose = cfg.Verbose || opts.verbose

	return cfg, cfg.Validate()
}

// loadCredentials resolves exactly one username source and one password source.
func loadCredentials(opts options) ([]string, []string, error) {
	usernames, err := credentialSource("username", opts.username, opts.usernameFile)
	if err != nil {
		return nil, nil, err
	}
	passwords, err := credentialSource("password", opts.password, opts.passwordFile)
	if err != nil {
		return nil, nil, err
	}
	return usernames, passwords, nil
}

func credentialSource(kind, single, file string) ([]string, error) {
	switch {
	case single != "" && file != "":
		return nil, fmt.Errorf("%w: use either --%s or --%s-file, not both", ErrUsage, kind, kind)
	case single != "":
		return []string{single}, nil
	case file != "":
		list, err := loadWordlist(file)
		if err != nil {
			return nil, err
		}
		if len(list) == 0 {
			return nil, fmt.Errorf("%w: %s file %s is empty", ErrUsage, kind, file)
		}
		return list, nil
	default:
		return nil, fmt.Errorf("%w: a %s is required (--%s or --%s-file)", ErrUsage, kind, kind, kind)
	}
}

func printBanner() {
	color.Cyan(banner)
}

func printLegalDisclaimer() {
	color.Yellow("\nLEGAL DISCLAIMER")
	color.White("This tool is designed for authorized security testing only.")
	color.White("Unauthorized access to computer systems is illegal.")
	color.White("You must have explicit permission to test the target system.\n")
}

// loadWordlist reads one value per line, trimmed, skipping blank lines.
func loadWordlist(filename string) ([]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, filename)
		}
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}
