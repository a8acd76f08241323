package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jafarshop/storefront/internal/backend"
	"github.com/jafarshop/storefront/internal/catalog"
	"github.com/jafarshop/storefront/internal/config"
	"github.com/jafarshop/storefront/internal/logging"
	"github.com/jafarshop/storefront/internal/repository"
)

var (
	sortMode    string
	countryCode string
	limit       int
	query       string
)

var rootCmd = &cobra.Command{
	Use:   "list-products",
	Short: "List the catalog sorted by resolved price or recency",
	Example: `  list-products --sort price_asc --country es
  list-products --query rolly`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&sortMode, "sort", string(catalog.SortRecency), "price_asc, price_desc or created_at")
	rootCmd.Flags().StringVar(&countryCode, "country", "", "country code for pricing (default DEFAULT_COUNTRY_CODE)")
	rootCmd.Flags().IntVar(&limit, "limit", 100, "products to fetch")
	rootCmd.Flags().StringVar(&query, "query", "", "only show products matching this search text")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	b, err := backend.Open(ctx, cfg, nil, logger)
	if err != nil {
		return fmt.Errorf("failed to open commerce backend: %w", err)
	}
	defer b.Close()

	if countryCode == "" {
		countryCode = cfg.Storefront.DefaultCountryCode
	}

	if query != "" {
		resp, err := catalog.NewSearcher(b, limit, nil, logger).Search(ctx, catalog.SearchRequest{Query: query, CountryCode: countryCode})
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tPRICE")
		for _, item := range resp.Products {
			price := "-"
			if item.Price != nil {
				price = item.Price.Amount + " " + item.Price.CurrencyCode
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", item.ID, item.Title, price)
		}
		w.Flush()
		fmt.Printf("\n%d matching products\n", resp.Count)
		return nil
	}

	page, err := b.ListProducts(ctx, repository.ProductQuery{Limit: limit, CountryCode: countryCode})
	if err != nil {
		return err
	}

	mode := catalog.ParseSortMode(sortMode)
	sorted := catalog.SortProducts(page.Products, mode)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tVARIANTS\tPRICE\tCREATED")
	for _, p := range sorted {
		price := "-"
		if resolved := catalog.ProductPrice(p); !math.IsInf(resolved, 1) {
			price = fmt.Sprintf("%.2f", resolved)
		}
		created := "-"
		if p.CreatedAt != nil {
			created = p.CreatedAt.Format(time.DateOnly)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", p.ID, p.Title, len(p.Variants), price, created)
	}
	w.Flush()
	fmt.Printf("\n%d of %d products, sorted by %s\n", len(sorted), page.Count, mode)
	return nil
}
