package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server health and your plan summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if getOutputFormat() != "table" {
				summary := map[string]interface{}{}
				if health, err := apiClient.Health(ctx); err == nil {
					summary["server"] = health
				}
				if plan, err := apiClient.Plan().Status(ctx); err == nil {
					summary["plan"] = plan.Status
				}
				if sessions, err := apiClient.Sessions().List(ctx, nil); err == nil {
					summary["sessions"] = sessions.TotalItems
				}
				return printOutput(summary)
			}

			fmt.Println("Dialekt")
			fmt.Println(strings.Repeat("=", 40))

			health, err := apiClient.Health(ctx)
			if err != nil {
				fmt.Printf("  Server:    (error: %v)\n", err)
			} else {
				fmt.Printf("  Server:    %s %s (up %s)\n", health.Status, health.Version, health.Uptime)
			}

			plan, err := apiClient.Plan().Status(ctx)
			if err != nil {
				fmt.Printf("  Plan:      (error: %v)\n", err)
			} else {
				fmt.Printf("  Plan:      %s\n", formatTier(plan.Status.EffectiveTier))
				fmt.Printf("  Messages:  %s left today\n", formatLimit(plan.Status.MessagesRemaining))
			}

			sessions, err := apiClient.Sessions().List(ctx, nil)
			if err != nil {
				fmt.Printf("  Sessions:  (error: %v)\n", err)
			} else {
				fmt.Printf("  Sessions:  %d\n", sessions.TotalItems)
			}

			return nil
		},
	}
}
