package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jafarshop/storefront/internal/backend"
	"github.com/jafarshop/storefront/internal/config"
	"github.com/jafarshop/storefront/internal/domain"
	"github.com/jafarshop/storefront/internal/logging"
	"github.com/jafarshop/storefront/internal/ordersync"
	"github.com/jafarshop/storefront/internal/repository"
	"github.com/jafarshop/storefront/pkg/errors"
)

var (
	orderIDs []string
	customer string
	once     bool
)

var rootCmd = &cobra.Command{
	Use:   "watch-orders",
	Short: "Poll order statuses and report every change",
	Long: `Tracks a set of orders against the commerce backend and logs each status
transition until interrupted. Changes are also POSTed to ORDER_WEBHOOK_URL when set.

Either pass --id (repeatable or comma separated) or --customer to track all of a
customer's orders (a bearer token for the store API, a customer ID for postgres).`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringSliceVar(&orderIDs, "id", nil, "order ID to track")
	rootCmd.Flags().StringVar(&customer, "customer", "", "customer token or ID whose orders to track")
	rootCmd.Flags().BoolVar(&once, "once", false, "run a single polling batch and exit")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	if len(orderIDs) == 0 && customer == "" {
		return fmt.Errorf("either --id or --customer is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, err := backend.Open(ctx, cfg, nil, logger)
	if err != nil {
		return fmt.Errorf("failed to open commerce backend: %w", err)
	}
	defer b.Close()

	reader := b.ForCustomer(customer)
	orders, err := loadOrders(ctx, reader)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		fmt.Println("No orders to watch.")
		return nil
	}

	notifiers := ordersync.MultiNotifier{ordersync.LogNotifier{Logger: logger}}
	if cfg.OrderSync.WebhookURL != "" {
		webhook := ordersync.NewWebhookNotifier(cfg.OrderSync.WebhookURL, logger)
		defer webhook.Wait()
		notifiers = append(notifiers, webhook)
	}

	syncer := ordersync.New(reader, notifiers, logger,
		ordersync.WithInterval(cfg.OrderSync.PollInterval),
		ordersync.WithFetchTimeout(cfg.OrderSync.FetchTimeout),
		ordersync.WithConcurrency(cfg.OrderSync.FetchConcurrency),
		ordersync.WithOnUpdate(printOrders),
	)

	if once {
		syncer.Seed(orders)
		result := syncer.Poll(ctx)
		fmt.Printf("\nRefreshed %d, failed %d, changed %d\n", result.Refreshed, result.Failed, len(result.Changes))
		return nil
	}

	logger.Info("Watching orders", zap.Int("orders", len(orders)), zap.Duration("interval", cfg.OrderSync.PollInterval))
	return syncer.Run(ctx, orders)
}

func loadOrders(ctx context.Context, reader repository.OrderReader) ([]domain.Order, error) {
	var orders []domain.Order
	if len(orderIDs) == 0 {
		listed, err := reader.ListOrders(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list orders: %w", err)
		}
		for _, o := range listed {
			if o != nil {
				orders = append(orders, *o)
			}
		}
		return orders, nil
	}

	for _, id := range orderIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		order, err := reader.GetOrder(ctx, id)
		if errors.IsNotFound(err) || (err == nil && order == nil) {
			fmt.Fprintf(os.Stderr, "Order %s not found, skipping\n", id)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get order %s: %w", id, err)
		}
		orders = append(orders, *order)
	}
	return orders, nil
}

func printOrders(orders []domain.Order) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ORDER\tDISPLAY\tSTATUS\tTOTAL")
	for _, o := range orders {
		fmt.Fprintf(w, "%s\t#%d\t%s\t%.2f %s\n", o.ID, o.DisplayID, o.Status, o.Total, strings.ToUpper(o.CurrencyCode))
	}
	w.Flush()
}
