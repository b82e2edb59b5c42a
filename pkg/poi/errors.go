package poi

import "errors"

var (
	// ErrUnavailable is returned while the taxonomy or the store is not initialized.
	ErrUnavailable = errors.New("poi: filter storage unavailable")
	// ErrNotFound is returned when no filter matches an id.
	ErrNotFound = errors.New("poi: filter not found")
	// ErrReserved is returned for mutations of built-in filters.
	ErrReserved = errors.New("poi: filter is reserved")
	// ErrExists is returned when creating a filter whose id is already stored.
	ErrExists = errors.New("poi: filter already exists")
	// ErrInvalidFilter is returned for filters without an id.
	ErrInvalidFilter = errors.New("poi: invalid filter")
)
