package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Product is one catalog row. ActualPrice is always derived from Price.
type Product struct {
	ID          int      `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Price       string   `json:"price" yaml:"price"`
	ActualPrice float64  `json:"actual_price" yaml:"actual_price"`
	ImageURL    string   `json:"img" yaml:"img"`
	Category    string   `json:"category" yaml:"category"`
	Sizes       []string `json:"sizes" yaml:"sizes"`
	Rating      float64  `json:"rating" yaml:"rating"`
	Reviews     Reviews  `json:"reviews" yaml:"reviews"`
	Description *string  `json:"description" yaml:"description"`
}

// Review is embedded in its product; it has no identity of its own.
type Review struct {
	Author string `json:"user" yaml:"user"`
	Body   string `json:"review" yaml:"review"`
}

// Reviews is stored as a JSONB column. Value yields text because lib/pq
// would send []byte as bytea.
type Reviews []Review

func (r Reviews) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (r *Reviews) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*r = Reviews{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("reviews: unsupported column type %T", src)
	}
	var out Reviews
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("reviews: %w", err)
	}
	if out == nil {
		out = Reviews{}
	}
	*r = out
	return nil
}
