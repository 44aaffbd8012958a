package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newPricingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pricing",
		Short: "Show subscription prices",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := apiClient.Billing().Pricing(context.Background())
			if err != nil {
				return fmt.Errorf("failed to get pricing: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(cmd.OutOrStdout(), p)
			}

			table := NewTable(cmd.OutOrStdout(), "PLAN", "PRICE", "PRICE ID")
			table.AddRow(p.Monthly.Name, formatAmount(p.Monthly.Amount, p.Monthly.Currency, p.Monthly.Interval), p.Monthly.PriceID)
			table.AddRow(p.Yearly.Name, formatAmount(p.Yearly.Amount, p.Yearly.Currency, p.Yearly.Interval), p.Yearly.PriceID)
			table.Render()
			return nil
		},
	}
}

func newCheckoutCmd() *cobra.Command {
	var plan string

	cmd := &cobra.Command{
		Use:     "checkout",
		Aliases: []string{"subscribe"},
		Short:   "Open a checkout session for a subscription",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			p, err := apiClient.Billing().Pricing(ctx)
			if err != nil {
				return fmt.Errorf("failed to get pricing: %w", err)
			}

			var priceID string
			switch plan {
			case "monthly":
				priceID = p.Monthly.PriceID
			case "yearly":
				priceID = p.Yearly.PriceID
			default:
				return fmt.Errorf("unknown plan %q, use monthly or yearly", plan)
			}

			sess, err := apiClient.Billing().Checkout(ctx, priceID)
			if err != nil {
				return fmt.Errorf("failed to create checkout session: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(cmd.OutOrStdout(), sess)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Complete your subscription at:\n  %s\n", sess.URL)
			return nil
		},
	}

	cmd.Flags().StringVar(&plan, "plan", "monthly", "plan: monthly or yearly")
	return cmd
}

func newCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Cancel the current subscription",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := apiClient.Billing().Cancel(context.Background()); err != nil {
				return fmt.Errorf("failed to cancel subscription: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cancellation requested. Your tier changes once the billing provider confirms.")
			return nil
		},
	}
}

func formatAmount(cents int64, currency, interval string) string {
	return fmt.Sprintf("%d.%02d %s/%s", cents/100, cents%100, currency, interval)
}
