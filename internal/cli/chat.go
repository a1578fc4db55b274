package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/pratik-mahalle/dialekt/pkg/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the dialect assistant",
	}

	cmd.AddCommand(newChatSendCmd())

	return cmd
}

func newChatSendCmd() *cobra.Command {
	var sessionID, chatType string
	var premium bool

	cmd := &cobra.Command{
		Use:   "send <message...>",
		Short: "Send one chat turn",
		Long: `Send one chat turn. Without --session a new session is started and its
ID is printed so you can continue the conversation.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if chatType == "" {
				chatType = viper.GetString("chat_type")
			}
			if premium {
				chatType = client.ChatTypePremium
			}

			resp, err := apiClient.Chat().Send(cmd.Context(), client.SendRequest{
				Message:   strings.Join(args, " "),
				SessionID: sessionID,
				ChatType:  chatType,
			})
			if err != nil {
				return explainChatError(err)
			}

			if getOutputFormat() != "table" {
				return printOutput(resp)
			}

			fmt.Println(resp.Message)
			fmt.Println()
			fmt.Fprintf(os.Stderr, "session %s | %s | %s left today\n",
				resp.SessionID, resp.PlanStatus.EffectiveTier, formatLimit(resp.PlanStatus.MessagesRemaining))
			return nil
		},
	}

	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "continue an existing session")
	cmd.Flags().StringVar(&chatType, "type", "", "chat type: free or premium (default from config)")
	cmd.Flags().BoolVarP(&premium, "premium", "p", false, "shorthand for --type premium")

	return cmd
}

// explainChatError turns gate failures into actionable messages.
func explainChatError(err error) error {
	apiErr, ok := client.AsAPIError(err)
	if !ok {
		return fmt.Errorf("chat failed: %w", err)
	}
	switch {
	case apiErr.IsDailyLimitReached():
		msg := "daily message limit reached"
		if apiErr.RetryAfter > 0 {
			msg += fmt.Sprintf(", resets in %s", apiErr.RetryAfter)
		}
		return fmt.Errorf("%s. Upgrade with 'dialekt subscription checkout'", msg)
	case apiErr.IsPremiumRequired():
		return fmt.Errorf("premium chat needs a trial or premium plan. Use --type free or run 'dialekt subscription checkout'")
	case apiErr.IsRetryable():
		return fmt.Errorf("the assistant is unavailable, retry the same command: %w", err)
	}
	return fmt.Errorf("chat failed: %w", err)
}
