package catalogmatch

import "fmt"

// ErrNotFound means a reference source named in a Warmup call does not
// exist (a file path with no file behind it).
type ErrNotFound struct {
	CatalogID string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("catalog not found: %s", e.CatalogID)
}

// ErrCapacityExceeded means warming the requested catalog id would push the
// registry past its capacity (MaxLoadedCatalogs unless overridden with
// WithCapacity). The registry never evicts a loaded catalog to make room.
type ErrCapacityExceeded struct {
	CatalogID string
	Capacity  int
}

func (e *ErrCapacityExceeded) Error() string {
	return fmt.Sprintf("cannot warm catalog %s: capacity %d exceeded", e.CatalogID, e.Capacity)
}

// ErrNotWarmed means a search was attempted against a catalog id that no
// successful Warmup has loaded into the registry.
type ErrNotWarmed struct {
	CatalogID string
}

func (e *ErrNotWarmed) Error() string {
	return fmt.Sprintf("catalog not warmed: %s", e.CatalogID)
}

// ErrBadInput means the caller supplied input the registry cannot process:
// empty query text, a query document that yields no searchable items, or a
// reference source its Parser rejects.
type ErrBadInput struct {
	Reason string
}

func (e *ErrBadInput) Error() string {
	return fmt.Sprintf("bad input: %s", e.Reason)
}
