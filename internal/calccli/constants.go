package calccli

import "time"

// Default flag values.
const (
	DefaultTimeout   = 30 * time.Second
	DefaultRunBudget = 2 * time.Minute
)

// Exit codes returned by the limitcalc command.
const (
	ExitOK       = 0
	ExitError    = 1
	ExitFailures = 2
)

// Remote client configuration constants.
const (
	defaultRetryCount   = 3
	defaultRetryWait    = 500 * time.Millisecond
	defaultRetryMaxWait = 3 * time.Second
)

// File permission constants.
const (
	directoryPermission = 0o750
	reportPermission    = 0o600
)

const percentScale = 100
