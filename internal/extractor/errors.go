package extractor

import (
	"errors"
	"fmt"
)

var (
	// ErrArrayNotFound means the declaration or its closing bracket is missing.
	ErrArrayNotFound = errors.New("catalog array not found")

	// ErrReviewParse is reported when a reviews value cannot be read as a list.
	ErrReviewParse = errors.New("reviews parse failed")
)

// PriceError means actual_price could not be derived from price.
type PriceError struct {
	Index int // element position in the array, -1 when unknown
	ID    int
	Price string
	Err   error
}

func (e *PriceError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("price %q: %v", e.Price, e.Err)
	}
	return fmt.Sprintf("record %d (id=%d): price %q: %v", e.Index, e.ID, e.Price, e.Err)
}

func (e *PriceError) Unwrap() error {
	return e.Err
}

// SyntaxError locates a literal the parser could not read.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s", e.Offset, e.Msg)
}
