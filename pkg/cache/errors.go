package cache

import "errors"

// Sentinel errors for caching operations.
var (
	// ErrFolderNotFound is returned by [NewFileCache] when the cache folder
	// does not exist. The folder is never created implicitly.
	ErrFolderNotFound = errors.New("cache folder does not exist")

	// ErrUnknownStrategy is returned for an unrecognised strategy name.
	ErrUnknownStrategy = errors.New("unknown cache strategy")

	// ErrMissingConfig is returned when a networked strategy is selected
	// without its connection settings.
	ErrMissingConfig = errors.New("missing cache configuration")
)
