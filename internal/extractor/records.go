package extractor

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"fashionstore/internal/model"
)

// Skip reasons.
const (
	ReasonMalformed    = "malformed"
	ReasonMissingField = "missing_field"
	ReasonPrice        = "price"
)

// OutcomeStatus tells a test or report what happened to an optional field.
type OutcomeStatus int

const (
	Absent OutcomeStatus = iota
	Parsed
	Fallback
)

func (s OutcomeStatus) String() string {
	switch s {
	case Absent:
		return "absent"
	case Parsed:
		return "parsed"
	case Fallback:
		return "fallback"
	}
	return "unknown"
}

// FieldOutcome records how an optional field of an emitted product was decoded.
type FieldOutcome struct {
	RecordIndex int
	RecordID    int
	Field       string
	Status      OutcomeStatus
	Err         error
}

// Skip is an array element that produced no product.
type Skip struct {
	Index  int
	Reason string
	Err    error
}

// Observer receives extraction events; observability.Metrics implements it.
type Observer interface {
	RecordExtracted()
	RecordSkipped(reason string)
	FieldFallback(field string)
	ReviewParseError(err error)
}

type nopObserver struct{}

func (nopObserver) RecordExtracted()       {}
func (nopObserver) RecordSkipped(string)   {}
func (nopObserver) FieldFallback(string)   {}
func (nopObserver) ReviewParseError(error) {}

// Options tunes extraction.
type Options struct {
	// Variable is the declared array name; DefaultVariable when empty.
	Variable string
	// StrictPrices fails the whole extraction on the first bad price
	// instead of skipping that record.
	StrictPrices bool
	Observer     Observer
}

func (o Options) observer() Observer {
	if o.Observer == nil {
		return nopObserver{}
	}
	return o.Observer
}

// Result is the outcome of one extraction run.
type Result struct {
	Block    Block
	Products []model.Product
	Skipped  []Skip
	Outcomes []FieldOutcome

	indexes []int // element index of each product
}

// Outcome returns how field was decoded for Products[i].
func (r *Result) Outcome(i int, field string) (FieldOutcome, bool) {
	if i < 0 || i >= len(r.indexes) {
		return FieldOutcome{}, false
	}
	for _, o := range r.Outcomes {
		if o.RecordIndex == r.indexes[i] && o.Field == field {
			return o, true
		}
	}
	return FieldOutcome{}, false
}

// Extract locates the catalog array in text and parses its records.
func Extract(text string, opts Options) (*Result, error) {
	block, err := Locate(text, opts.Variable)
	if err != nil {
		return nil, err
	}
	return ParseRecords(block, opts)
}

// ParseRecords maps every element of block onto a product, in source order.
func ParseRecords(block Block, opts Options) (*Result, error) {
	obs := opts.observer()
	res := &Result{Block: block, Products: []model.Product{}}
	p := &literalParser{src: block.Text}

	skip := func(idx int, reason string, err error) {
		res.Skipped = append(res.Skipped, Skip{Index: idx, Reason: reason, Err: err})
		obs.RecordSkipped(reason)
	}

	for idx := 0; ; idx++ {
		p.skipSpace()
		if p.eof() {
			break
		}
		start := p.pos
		if p.src[p.pos] == ',' {
			skip(idx, ReasonMalformed, p.errorf("empty array element"))
			p.pos++
			continue
		}
		v, err := p.value()
		if err == nil {
			if err = p.elementEnd(); err != nil {
				// The next element starts here and keeps its own index.
				skip(idx, ReasonMalformed, err)
				continue
			}
		}
		switch _, isObject := v.(object); {
		case err != nil:
			skip(idx, ReasonMalformed, err)
			p.resync(start)
		case !isObject:
			skip(idx, ReasonMalformed, fmt.Errorf("element is %s, not an object", kindOf(v)))
		default:
			product, outcomes, err := mapProduct(idx, v)
			var priceErr *PriceError
			switch {
			case errors.As(err, &priceErr):
				if opts.StrictPrices {
					return nil, priceErr
				}
				skip(idx, ReasonPrice, err)
			case err != nil:
				skip(idx, ReasonMissingField, err)
			default:
				res.Products = append(res.Products, product)
				res.indexes = append(res.indexes, idx)
				res.Outcomes = append(res.Outcomes, outcomes...)
				obs.RecordExtracted()
				for _, o := range outcomes {
					if o.Status != Fallback {
						continue
					}
					obs.FieldFallback(o.Field)
					if errors.Is(o.Err, ErrReviewParse) {
						obs.ReviewParseError(o.Err)
					}
				}
			}
		}
		p.skipSpace()
		if !p.eof() && p.src[p.pos] == ',' {
			p.pos++
		}
	}
	return res, nil
}

func mapProduct(idx int, v any) (model.Product, []FieldOutcome, error) {
	obj, ok := v.(object)
	if !ok {
		return model.Product{}, nil, fmt.Errorf("element is %s, not an object", kindOf(v))
	}

	var product model.Product
	id, err := requiredInt(obj, "id")
	if err != nil {
		return product, nil, err
	}
	product.ID = id
	for _, f := range []struct {
		key string
		dst *string
	}{
		{"name", &product.Name},
		{"price", &product.Price},
		{"img", &product.ImageURL},
		{"category", &product.Category},
	} {
		s, err := requiredString(obj, f.key)
		if err != nil {
			return product, nil, err
		}
		*f.dst = s
	}

	outcome := func(field string, status OutcomeStatus, err error) FieldOutcome {
		return FieldOutcome{RecordIndex: idx, RecordID: id, Field: field, Status: status, Err: err}
	}
	var outcomes []FieldOutcome

	sizes, status, err := decodeSizes(obj)
	product.Sizes = sizes
	outcomes = append(outcomes, outcome("sizes", status, err))

	rating, status, err := decodeRating(obj)
	product.Rating = rating
	outcomes = append(outcomes, outcome("rating", status, err))

	reviews, status, err := decodeReviews(obj)
	product.Reviews = reviews
	outcomes = append(outcomes, outcome("reviews", status, err))

	actual, err := ParsePrice(product.Price)
	if err != nil {
		var pe *PriceError
		if errors.As(err, &pe) {
			pe.Index, pe.ID = idx, id
			return product, nil, pe
		}
		return product, nil, err
	}
	product.ActualPrice = actual
	return product, outcomes, nil
}

func requiredInt(obj object, key string) (int, error) {
	v, ok := obj[key]
	if !ok {
		return 0, fmt.Errorf("missing %q", key)
	}
	n, ok := v.(number)
	if !ok {
		return 0, fmt.Errorf("%q is %s, not an integer", key, kindOf(v))
	}
	if n == "" || !isDigit(n[0]) {
		return 0, fmt.Errorf("%q is not a non-negative integer: %s", key, n)
	}
	i, err := strconv.Atoi(string(n))
	if err != nil || i < 0 {
		return 0, fmt.Errorf("%q is not a non-negative integer: %s", key, n)
	}
	return i, nil
}

func requiredString(obj object, key string) (string, error) {
	v, ok := obj[key]
	if !ok {
		return "", fmt.Errorf("missing %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%q is %s, not a string", key, kindOf(v))
	}
	if s == "" {
		return "", fmt.Errorf("%q is empty", key)
	}
	return s, nil
}

func decodeSizes(obj object) ([]string, OutcomeStatus, error) {
	v, ok := obj["sizes"]
	if !ok || v == nil {
		return []string{}, Absent, nil
	}
	list, ok := v.([]any)
	if !ok {
		return []string{}, Fallback, fmt.Errorf("sizes is %s, not a list", kindOf(v))
	}
	sizes := make([]string, 0, len(list))
	for i, item := range list {
		switch s := item.(type) {
		case string:
			sizes = append(sizes, s)
		case number:
			sizes = append(sizes, string(s))
		default:
			return []string{}, Fallback, fmt.Errorf("sizes[%d] is %s", i, kindOf(item))
		}
	}
	return sizes, Parsed, nil
}

func decodeRating(obj object) (float64, OutcomeStatus, error) {
	v, ok := obj["rating"]
	if !ok || v == nil {
		return 0, Absent, nil
	}
	var text string
	switch r := v.(type) {
	case number:
		text = string(r)
	case string:
		text = strings.TrimSpace(r)
	default:
		return 0, Fallback, fmt.Errorf("rating is %s", kindOf(v))
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, Fallback, fmt.Errorf("rating %q: %w", text, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, Fallback, fmt.Errorf("rating %q is not a finite number", text)
	}
	return f, Parsed, nil
}

func decodeReviews(obj object) (model.Reviews, OutcomeStatus, error) {
	v, ok := obj["reviews"]
	if !ok || v == nil {
		return model.Reviews{}, Absent, nil
	}
	list, ok := v.([]any)
	if !ok {
		return model.Reviews{}, Fallback, fmt.Errorf("%w: value is %s", ErrReviewParse, kindOf(v))
	}
	reviews := model.Reviews{}
	for _, item := range list {
		entry, ok := item.(object)
		if !ok || len(entry) != 2 {
			continue
		}
		author, okA := entry["user"].(string)
		body, okB := entry["review"].(string)
		if !okA || !okB || author == "" || body == "" {
			continue
		}
		reviews = append(reviews, model.Review{Author: author, Body: body})
	}
	return reviews, Parsed, nil
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "a string"
	case number:
		return "a number"
	case bool:
		return "a boolean"
	case identifier:
		return "an identifier"
	case []any:
		return "a list"
	case object:
		return "an object"
	}
	return fmt.Sprintf("%T", v)
}
