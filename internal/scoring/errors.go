package scoring

import "errors"

// ErrNoResults is matched by every empty-result condition of the ranker.
var ErrNoResults = errors.New("no results")

var (
	// ErrEmptyCatalog is returned when there is nothing to rank.
	ErrEmptyCatalog = &noResultsError{msg: "catalog is empty"}
	// ErrNoMatches is returned when every restaurant was removed by the craving filter.
	ErrNoMatches = &noResultsError{msg: "no restaurant matches the craving"}
)

type noResultsError struct {
	msg string
}

func (e *noResultsError) Error() string { return e.msg }

func (e *noResultsError) Is(target error) bool { return target == ErrNoResults }
