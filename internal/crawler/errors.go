package crawler

import "errors"

var (
	// ErrBlocked is returned when the site served a block or forbidden page.
	ErrBlocked = errors.New("access blocked")

	// ErrNavigation is returned when a page could not be opened or loaded.
	ErrNavigation = errors.New("navigation failed")

	// ErrPersist is returned when a record could not be written to the dataset.
	ErrPersist = errors.New("failed to persist record")

	// ErrNoPagesSucceeded is returned when every page of a run failed.
	ErrNoPagesSucceeded = errors.New("no pages were scraped successfully")
)
