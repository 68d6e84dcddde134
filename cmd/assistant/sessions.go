package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentkube/assistant/internal/config"
	"github.com/agentkube/assistant/internal/orchestrator"
)

var sessionLimitFlag int

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List persisted sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return listSessions()
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a persisted session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return deleteSession(args[0])
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show one session's metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return showSession(args[0])
	},
}

func init() {
	sessionsCmd.Flags().IntVarP(&sessionLimitFlag, "limit", "n", 0, "Maximum number of sessions to list")
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
}

func directoryClient() (*orchestrator.Client, *config.Settings, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	client := orchestrator.NewClient(orchestrator.Config{
		BaseURL: settings.OrchestratorURL,
		Headers: settings.Headers,
	})
	return client, settings, nil
}

func listSessions() error {
	client, settings, err := directoryClient()
	if err != nil {
		return err
	}

	limit := sessionLimitFlag
	if limit == 0 {
		limit = settings.SessionLimit
	}

	ctx, cancel := context.WithTimeout(context.Background(), decideTimeout)
	defer cancel()
	sessions, err := client.ListSessions(ctx, limit)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("no sessions")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tUPDATED\tTITLE")
	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ID, s.Status, relativeTime(s.Time.UpdatedAt()), s.Title)
	}
	return w.Flush()
}

func showSession(id string) error {
	client, _, err := directoryClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), decideTimeout)
	defer cancel()
	info, err := client.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, orchestrator.ErrSessionNotFound) {
			return fmt.Errorf("session %s not found", id)
		}
		return err
	}

	fmt.Printf("id:       %s\n", info.ID)
	fmt.Printf("title:    %s\n", info.Title)
	fmt.Printf("status:   %s\n", info.Status)
	fmt.Printf("updated:  %s\n", info.Time.UpdatedAt().Format(time.RFC3339))
	if info.Model != "" {
		fmt.Printf("model:    %s\n", info.Model)
	}
	if info.MessageCount > 0 {
		fmt.Printf("messages: %d\n", info.MessageCount)
	}
	if info.Summary != "" {
		fmt.Printf("summary:  %s\n", info.Summary)
	}
	return nil
}

func deleteSession(id string) error {
	client, _, err := directoryClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), decideTimeout)
	defer cancel()
	if err := client.DeleteSession(ctx, id); err != nil {
		if errors.Is(err, orchestrator.ErrSessionNotFound) {
			return fmt.Errorf("session %s not found", id)
		}
		return err
	}
	fmt.Printf("deleted %s\n", id)
	return nil
}

func relativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
