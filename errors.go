package main

import "errors"

var (
	// ErrFetch means the target page could not be retrieved. Fatal.
	ErrFetch = errors.New("failed to fetch target page")

	// ErrNoFormFound means the page contains no <form> element.
	ErrNoFormFound = errors.New("no forms found on target page")

	// ErrNoSuitableForm means no form carries recognizable credential fields.
	ErrNoSuitableForm = errors.New("no form with credential fields found")

	// ErrTransport wraps network and timeout faults of a single attempt.
	ErrTransport = errors.New("transport error")

	// ErrFileNotFound means a wordlist file does not exist.
	ErrFileNotFound = errors.New("wordlist file not found")

	// ErrUsage means the command line is missing or duplicating a credential source.
	ErrUsage = errors.New("usage error")
)
