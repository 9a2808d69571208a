package repository

import (
	"reflect"
	"testing"
)

func TestListQuery(t *testing.T) {
	tests := []struct {
		name       string
		filter     Filter
		wantQuery  string
		wantParams []interface{}
	}{
		{
			name:       "no filter uses defaults",
			filter:     Filter{},
			wantQuery:  "SELECT " + productColumns + " FROM products ORDER BY id OFFSET $1 LIMIT $2",
			wantParams: []interface{}{0, 100},
		},
		{
			name:       "All disables the category filter",
			filter:     Filter{Category: "All", Skip: 20, Limit: 10},
			wantQuery:  "SELECT " + productColumns + " FROM products ORDER BY id OFFSET $1 LIMIT $2",
			wantParams: []interface{}{20, 10},
		},
		{
			name:       "category",
			filter:     Filter{Category: "Hoodies", Skip: -5, Limit: 3},
			wantQuery:  "SELECT " + productColumns + " FROM products WHERE category = $1 ORDER BY id OFFSET $2 LIMIT $3",
			wantParams: []interface{}{"Hoodies", 0, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, params := listQuery(tt.filter)
			if query != tt.wantQuery {
				t.Fatalf("query = %q\nwant %q", query, tt.wantQuery)
			}
			if !reflect.DeepEqual(params, tt.wantParams) {
				t.Fatalf("params = %v, want %v", params, tt.wantParams)
			}
		})
	}
}

func TestSearchPattern(t *testing.T) {
	tests := map[string]string{
		"ember":      "%ember%",
		"  Storm  ":  "%Storm%",
		"100%":       `%100\%%`,
		"snake_case": `%snake\_case%`,
		"":           "%%",
	}
	for in, want := range tests {
		if got := searchPattern(in); got != want {
			t.Errorf("searchPattern(%q) = %q, want %q", in, got, want)
		}
	}
}
