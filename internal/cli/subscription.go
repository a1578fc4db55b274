package cli

import (
	"fmt"

	"github.com/pratik-mahalle/dialekt/pkg/client"
	"github.com/spf13/cobra"
)

func newSubscriptionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscription",
		Short: "Manage your premium subscription",
	}

	cmd.AddCommand(newSubscriptionCheckoutCmd())
	cmd.AddCommand(newSubscriptionActionCmd("cancel", "Cancel premium at the end of the paid period"))
	cmd.AddCommand(newSubscriptionActionCmd("reactivate", "Undo a scheduled cancellation"))

	return cmd
}

func newSubscriptionCheckoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkout",
		Short: "Open a checkout link for the premium plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			co, err := apiClient.Billing().Checkout(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to create checkout: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(co)
			}
			fmt.Printf("Complete your upgrade at:\n  %s\n", co.URL)
			return nil
		},
	}
}

func newSubscriptionActionCmd(action, short string) *cobra.Command {
	var ref string

	cmd := &cobra.Command{
		Use:   action,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				sub *client.Subscription
				err error
			)
			if action == "cancel" {
				sub, err = apiClient.Billing().Cancel(cmd.Context(), ref)
			} else {
				sub, err = apiClient.Billing().Reactivate(cmd.Context(), ref)
			}
			if err != nil {
				if apiErr, ok := client.AsAPIError(err); ok && apiErr.Code == client.CodeNoActiveSubscription {
					return fmt.Errorf("you have no active premium subscription")
				}
				return fmt.Errorf("failed to %s subscription: %w", action, err)
			}

			if getOutputFormat() != "table" {
				return printOutput(sub)
			}

			if sub.CancelAtPeriodEnd {
				fmt.Printf("Premium stays active until %s, then ends\n", formatTime(sub.CurrentPeriodEnd))
			} else {
				fmt.Printf("Premium renews on %s\n", formatTime(sub.CurrentPeriodEnd))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&ref, "ref", "", "subscription reference (defaults to your current subscription)")

	return cmd
}
