package catalog

import "errors"

var (
	// ErrClientRequired is returned when no relay client is supplied.
	ErrClientRequired = errors.New("relay client is required")

	// ErrEndpointRequired is returned when an adapter has no endpoint URL.
	ErrEndpointRequired = errors.New("endpoint URL is required")

	// ErrNoPhrase is returned when a descriptor has nothing to search for.
	ErrNoPhrase = errors.New("descriptor has no search phrase for this adapter")
)
