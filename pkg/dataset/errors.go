package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingDirectory is returned when a required data folder is absent.
	ErrMissingDirectory = errors.New("missing directory")
	// ErrMalformedRow marks a CSV row that cannot be parsed.
	ErrMalformedRow = errors.New("malformed row")
	// ErrNoReference is returned when the reference folder holds no CSV file.
	ErrNoReference = errors.New("no reference files")
	// ErrInvalidSelection is returned for an out-of-range or unknown reference.
	ErrInvalidSelection = errors.New("invalid reference selection")
)

// RowError reports the 1-based row of a CSV file that failed to parse.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }
