package config

import "errors"

// Configuration validation errors returned by AppConfig.Validate.
var (
	// ErrInvalidBaseURL is returned when site.base_url is not an absolute URL.
	ErrInvalidBaseURL = errors.New("invalid site base url: must be absolute")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid workers: must be positive")

	// ErrInvalidMaxRetries is returned when max_retries is negative.
	ErrInvalidMaxRetries = errors.New("invalid max retries: must be non-negative")

	// ErrInvalidTimeout is returned when a page timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidDelay is returned when the rate limit or block grace is negative.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidPacing is returned when a pacing range is negative or inverted.
	ErrInvalidPacing = errors.New("invalid pacing: min must be non-negative and not exceed max")

	// ErrUnknownDatasetDriver is returned for dataset drivers other than sqlite and postgres.
	ErrUnknownDatasetDriver = errors.New("unknown dataset driver")

	// ErrMissingDSN is returned when the postgres driver is selected without a DSN.
	ErrMissingDSN = errors.New("dataset dsn is required for postgres")

	// ErrNoDatasetName is returned when dataset.name is empty.
	ErrNoDatasetName = errors.New("dataset name is required")
)
