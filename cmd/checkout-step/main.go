package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jafarshop/storefront/internal/backend"
	"github.com/jafarshop/storefront/internal/checkout"
	"github.com/jafarshop/storefront/internal/config"
	"github.com/jafarshop/storefront/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "checkout-step <cart_id>",
	Short: "Print the checkout step a cart would resume at",
	Args:  cobra.ExactArgs(1),
	RunE:  run,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cartID := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	b, err := backend.Open(ctx, cfg, nil, logger)
	if err != nil {
		return fmt.Errorf("failed to open commerce backend: %w", err)
	}
	defer b.Close()

	cart, err := b.GetCart(ctx, cartID)
	if err != nil {
		return err
	}

	email := "-"
	if cart.Email != nil && *cart.Email != "" {
		email = *cart.Email
	}
	address := "-"
	if cart.ShippingAddress.HasPrimaryLine() {
		address = cart.ShippingAddress.Address1
	}

	fmt.Printf("Cart:             %s\n", cart.ID)
	fmt.Printf("Email:            %s\n", email)
	fmt.Printf("Shipping address: %s\n", address)
	fmt.Printf("Shipping methods: %d\n", len(cart.ShippingMethods))
	fmt.Printf("Step:             %s\n", checkout.ResolveStep(cart))
	return nil
}
