package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show account tier and monthly usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := apiClient.Status(context.Background())
			if err != nil {
				return fmt.Errorf("failed to get status: %w", err)
			}

			out := cmd.OutOrStdout()
			if getOutputFormat() != "table" {
				return printOutput(out, st)
			}

			fmt.Fprintln(out, "Parlour Account")
			fmt.Fprintln(out, strings.Repeat("=", 40))
			fmt.Fprintf(out, "  Email:  %s\n", st.User.Email)
			fmt.Fprintf(out, "  Tier:   %s\n", formatTier(st.User.SubscriptionStatus))
			fmt.Fprintln(out)

			u, l := st.Usage.Usage, st.Usage.Limits
			table := NewTable(out, "RESOURCE", "USED", "LIMIT", "NEAR LIMIT")
			table.AddRow("messages", fmt.Sprint(u.MessagesThisMonth), formatLimit(l.MessagesPerMonth), yesNo(st.Usage.NearLimit["messages"]))
			table.AddRow("computeTime", fmt.Sprint(u.ComputeTimeThisMonth), formatLimit(l.ComputeTimePerMonth), yesNo(st.Usage.NearLimit["computeTime"]))
			table.AddRow("tokens", fmt.Sprint(u.TokensThisMonth), formatLimit(l.TokensPerMonth), yesNo(st.Usage.NearLimit["tokens"]))
			table.Render()
			return nil
		},
	}
}

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the server and its generation provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := apiClient.Health(context.Background())
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			if getOutputFormat() != "table" {
				return printOutput(cmd.OutOrStdout(), h)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Status: %s (provider %s)\n", h.Status, h.LLMProvider)
			return nil
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
