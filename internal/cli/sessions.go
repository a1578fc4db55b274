package cli

import (
	"fmt"
	"strings"

	"github.com/pratik-mahalle/dialekt/pkg/client"
	"github.com/spf13/cobra"
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"session"},
		Short:   "Manage chat sessions",
	}

	cmd.AddCommand(newSessionsListCmd())
	cmd.AddCommand(newSessionsShowCmd())
	cmd.AddCommand(newSessionsDeleteCmd())

	return cmd
}

func newSessionsListCmd() *cobra.Command {
	var page, pageSize int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := apiClient.Sessions().List(cmd.Context(), &client.ListOptions{
				Page:     page,
				PageSize: pageSize,
			})
			if err != nil {
				return fmt.Errorf("failed to list sessions: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(result)
			}

			t := NewTable("ID", "TYPE", "TITLE", "UPDATED")
			for _, s := range result.Data {
				updated := s.UpdatedAt
				t.AddRow(s.ID, s.ChatType, truncate(s.Title, 40), formatTime(&updated))
			}
			t.Render()
			fmt.Printf("\nPage %d of %d (%d sessions)\n", result.Page, result.TotalPages, result.TotalItems)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "sessions per page")

	return cmd
}

func newSessionsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a session transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			detail, err := apiClient.Sessions().Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get session: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(detail)
			}

			fmt.Printf("Session: %s\n", detail.ID)
			fmt.Printf("Title:   %s\n", detail.Title)
			fmt.Printf("Type:    %s\n", detail.ChatType)
			fmt.Println(strings.Repeat("-", 40))
			for _, m := range detail.Messages {
				fmt.Printf("[%s] %s\n\n", m.Role, m.Content)
			}
			return nil
		},
	}
}

func newSessionsDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a session and its messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				answer := promptInput(fmt.Sprintf("Delete session %s? [y/N]: ", args[0]))
				if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
					fmt.Println("Aborted")
					return nil
				}
			}

			if err := apiClient.Sessions().Delete(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to delete session: %w", err)
			}
			fmt.Printf("Session %s deleted\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")

	return cmd
}
