package cli

import (
	"fmt"

	"github.com/pratik-mahalle/dialekt/pkg/client"
	"github.com/spf13/cobra"
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Inspect your plan",
	}

	cmd.AddCommand(newPlanStatusCmd())
	cmd.AddCommand(newPlanListCmd())

	return cmd
}

func newPlanStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show your effective tier and remaining messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := apiClient.Plan().Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get plan status: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(resp)
			}

			printPlanStatus(resp.Status)
			if sub := resp.Subscription; sub != nil {
				fmt.Printf("Subscription:  %s (%s)\n", sub.PlanType, formatStatus(sub.Status))
				if sub.SubscriptionRef != "" {
					fmt.Printf("Reference:     %s\n", sub.SubscriptionRef)
				}
			}
			return nil
		},
	}
}

func printPlanStatus(s client.PlanStatus) {
	fmt.Printf("Tier:          %s\n", formatTier(s.EffectiveTier))
	if s.IsAdmin {
		fmt.Println("Admin:         yes")
	}
	fmt.Printf("Premium chat:  %t\n", s.CanUsePremium)
	fmt.Printf("Messages:      %d used, %s left (limit %s)\n",
		s.MessagesUsed, formatLimit(s.MessagesRemaining), formatLimit(s.DailyLimit))
	if s.ResetsAt != nil {
		fmt.Printf("Resets at:     %s\n", formatTime(s.ResetsAt))
	}
	if s.EffectiveTier == "trial" {
		fmt.Printf("Trial left:    %d days\n", s.TrialDaysLeft)
	}
	if s.CancelAtPeriodEnd {
		fmt.Printf("Cancels at:    %s\n", formatTime(s.PeriodEndsAt))
	}
}

func newPlanListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			plans, err := apiClient.Billing().Plans(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list plans: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(plans)
			}

			t := NewTable("PLAN", "DAILY LIMIT", "PREMIUM CHAT", "CURRENT")
			for _, p := range plans {
				current := ""
				if p.IsCurrent {
					current = "*"
				}
				t.AddRow(p.Name, formatLimit(p.DailyLimit), fmt.Sprintf("%t", p.PremiumChat), current)
			}
			t.Render()
			return nil
		},
	}
}
