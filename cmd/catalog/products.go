package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"fashionstore/internal/model"
	"fashionstore/internal/repository"
)

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid product id %q", arg)
	}
	return id, nil
}

func listCmd() *cobra.Command {
	var f repository.Filter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products, optionally by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s productStore) error {
				products, err := s.List(cmd.Context(), f)
				if err != nil {
					return err
				}
				return output(cmd.OutOrStdout(), products)
			})
		},
	}
	cmd.Flags().StringVar(&f.Category, "category", repository.AllCategories, `category name, "All" for every category`)
	cmd.Flags().IntVar(&f.Skip, "skip", 0, "number of products to skip")
	cmd.Flags().IntVar(&f.Limit, "limit", 100, "maximum number of products")
	return cmd
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd, func(s productStore) error {
				p, err := s.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				return output(cmd.OutOrStdout(), p)
			})
		},
	}
}

func searchCmd() *cobra.Command {
	var skip, limit int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find products whose name contains the query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := strings.Join(args, " ")
			return withStore(cmd, func(s productStore) error {
				products, err := s.Search(cmd.Context(), q, skip, limit)
				if err != nil {
					return err
				}
				return output(cmd.OutOrStdout(), products)
			})
		},
	}
	cmd.Flags().IntVar(&skip, "skip", 0, "number of products to skip")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum number of products")
	return cmd
}

func reviewCmd() *cobra.Command {
	var review model.Review
	cmd := &cobra.Command{
		Use:   "review <id>",
		Short: "Append a review to a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			review.Author = strings.TrimSpace(review.Author)
			review.Body = strings.TrimSpace(review.Body)
			if review.Author == "" || review.Body == "" {
				return fmt.Errorf("--user and --text are required")
			}
			return withStore(cmd, func(s productStore) error {
				p, err := s.AddReview(cmd.Context(), id, review)
				if err != nil {
					return err
				}
				return output(cmd.OutOrStdout(), p)
			})
		},
	}
	cmd.Flags().StringVar(&review.Author, "user", "", "review author")
	cmd.Flags().StringVar(&review.Body, "text", "", "review text")
	return cmd
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd, func(s productStore) error {
				if err := s.Delete(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted product %d.\n", id)
				return nil
			})
		},
	}
}
