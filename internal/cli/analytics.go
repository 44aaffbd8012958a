package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newAnalyticsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analytics",
		Short: "Show usage as a share of this month's limits",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := apiClient.Analytics(context.Background())
			if err != nil {
				return fmt.Errorf("failed to get analytics: %w", err)
			}

			out := cmd.OutOrStdout()
			if getOutputFormat() != "table" {
				return printOutput(out, a)
			}

			fmt.Fprintf(out, "%s (%s)\n\n", a.User.Email, formatTier(a.User.SubscriptionStatus))
			table := NewTable(out, "RESOURCE", "USED", "LIMIT", "USAGE")
			rows := []struct {
				name  string
				used  int64
				limit int64
			}{
				{"messages", a.Usage.MessagesThisMonth, a.Limits.MessagesPerMonth},
				{"computeTime", a.Usage.ComputeTimeThisMonth, a.Limits.ComputeTimePerMonth},
				{"tokens", a.Usage.TokensThisMonth, a.Limits.TokensPerMonth},
			}
			for _, r := range rows {
				gauge := "-"
				if r.limit >= 0 {
					pct := a.UsagePercentage[r.name]
					gauge = fmt.Sprintf("%s %.0f%%", usageBar(pct), pct)
				}
				table.AddRow(r.name, fmt.Sprint(r.used), formatLimit(r.limit), gauge)
			}
			table.Render()
			return nil
		},
	}
}
