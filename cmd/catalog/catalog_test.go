package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"fashionstore/internal/model"
	"fashionstore/internal/repository"
)

type fakeStore struct {
	products   []model.Product
	lastFilter repository.Filter
	lastQuery  string
}

func (s *fakeStore) List(_ context.Context, f repository.Filter) ([]model.Product, error) {
	s.lastFilter = f
	var out []model.Product
	for _, p := range s.products {
		if f.Category == repository.AllCategories || p.Category == f.Category {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakeStore) Get(_ context.Context, id int) (model.Product, error) {
	for _, p := range s.products {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Product{}, fmt.Errorf("%w: id %d", repository.ErrNotFound, id)
}

func (s *fakeStore) Search(_ context.Context, q string, _, _ int) ([]model.Product, error) {
	s.lastQuery = q
	var out []model.Product
	for _, p := range s.products {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(q)) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakeStore) AddReview(ctx context.Context, id int, r model.Review) (model.Product, error) {
	for i := range s.products {
		if s.products[i].ID == id {
			s.products[i].Reviews = append(s.products[i].Reviews, r)
			return s.products[i], nil
		}
	}
	return model.Product{}, repository.ErrNotFound
}

func (s *fakeStore) Delete(_ context.Context, id int) error {
	for i := range s.products {
		if s.products[i].ID == id {
			s.products = append(s.products[:i], s.products[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func useFakeStore(t *testing.T) *fakeStore {
	t.Helper()
	store := &fakeStore{products: []model.Product{
		{ID: 1, Name: "Shadow Ember", Price: "$190", ActualPrice: 190, Category: "Hoodies", Sizes: []string{"S"}, Reviews: model.Reviews{}},
		{ID: 18, Name: "Storm Lace", Price: "$190", ActualPrice: 190, Category: "Shoes", Sizes: []string{"40"}, Reviews: model.Reviews{}},
	}}
	orig := openStore
	openStore = func(context.Context) (productStore, func(), error) {
		return store, func() {}, nil
	}
	t.Cleanup(func() { openStore = orig })
	return store
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestListByCategoryJSON(t *testing.T) {
	store := useFakeStore(t)

	out, err := execute(t, "list", "--category", "Shoes", "--skip", "0", "--limit", "5", "-o", "json")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var got []model.Product
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(got) != 1 || got[0].ID != 18 {
		t.Fatalf("list = %+v", got)
	}
	if store.lastFilter.Limit != 5 {
		t.Fatalf("filter = %+v", store.lastFilter)
	}
}

func TestShowYAML(t *testing.T) {
	useFakeStore(t)

	out, err := execute(t, "show", "1", "-o", "yaml")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	var got map[string]any
	if err := yaml.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if got["name"] != "Shadow Ember" || got["actual_price"] != 190 {
		t.Fatalf("show = %v", got)
	}
}

func TestShowErrors(t *testing.T) {
	useFakeStore(t)

	if _, err := execute(t, "show", "abc", "-o", "yaml"); err == nil || !strings.Contains(err.Error(), "invalid product id") {
		t.Fatalf("show abc error = %v", err)
	}
	if _, err := execute(t, "show", "404", "-o", "yaml"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("show 404 error = %v", err)
	}
	if _, err := execute(t, "show", "1", "-o", "xml"); err == nil {
		t.Fatal("accepted unknown output format")
	}
}

func TestSearchJoinsArgs(t *testing.T) {
	store := useFakeStore(t)

	out, err := execute(t, "search", "storm", "lace", "-o", "json")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if store.lastQuery != "storm lace" || !strings.Contains(out, `"Storm Lace"`) {
		t.Fatalf("query %q output %s", store.lastQuery, out)
	}
}

func TestReviewAppends(t *testing.T) {
	store := useFakeStore(t)

	if _, err := execute(t, "review", "18", "--user", "Madina", "--text", "Great shoes", "-o", "json"); err != nil {
		t.Fatalf("review: %v", err)
	}
	if r := store.products[1].Reviews; len(r) != 1 || r[0].Author != "Madina" {
		t.Fatalf("reviews = %+v", r)
	}

	if _, err := execute(t, "review", "18", "--user", " ", "--text", "x", "-o", "json"); err == nil {
		t.Fatal("accepted a blank user")
	}
}

func TestDelete(t *testing.T) {
	store := useFakeStore(t)

	out, err := execute(t, "delete", "1", "-o", "yaml")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if out != "Deleted product 1.\n" || len(store.products) != 1 {
		t.Fatalf("output %q, products %d", out, len(store.products))
	}
}
