package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmunix/moviedeck/internal/app"
	"github.com/vmunix/moviedeck/internal/events"
)

var errEventLogDisabled = errors.New("event log disabled: requires storage.driver = \"sqlite\" and events.persist = true")

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recent events",
	Args:  cobra.NoArgs,
	RunE:  runEventsCmd,
}

var eventsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete events older than a duration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		olderThan, _ := cmd.Flags().GetDuration("older-than")
		if olderThan <= 0 {
			return fmt.Errorf("--older-than must be positive, got %s", olderThan)
		}
		return withApp(cmd, func(a *app.App) error {
			if a.EventLog == nil {
				return errEventLogDisabled
			}
			n, err := a.EventLog.Prune(cmd.Context(), olderThan)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), map[string]int64{"removed": n})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d events\n", n)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsPruneCmd)
	eventsCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	eventsCmd.Flags().StringP("type", "t", "", "Only show this event type (e.g. wishlist.changed)")
	eventsPruneCmd.Flags().Duration("older-than", 7*24*time.Hour, "Remove events older than this")
}

// eventView is the decoded form of a persisted event.
type eventView struct {
	ID         int64        `json:"id"`
	EventType  string       `json:"event_type"`
	EntityType string       `json:"entity_type"`
	EntityID   int64        `json:"entity_id"`
	OccurredAt time.Time    `json:"occurred_at"`
	Event      events.Event `json:"event,omitempty"`
}

func runEventsCmd(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	eventType, _ := cmd.Flags().GetString("type")
	if limit < 1 {
		return fmt.Errorf("--limit must be at least 1, got %d", limit)
	}

	return withApp(cmd, func(a *app.App) error {
		if a.EventLog == nil {
			return errEventLogDisabled
		}
		raw, err := a.EventLog.Recent(cmd.Context(), eventType, limit)
		if err != nil {
			return fmt.Errorf("failed to fetch events: %w", err)
		}

		registry := events.DefaultRegistry()
		views := make([]eventView, 0, len(raw))
		for _, r := range raw {
			v := eventView{
				ID:         r.ID,
				EventType:  r.EventType,
				EntityType: r.EntityType,
				EntityID:   r.EntityID,
				OccurredAt: r.OccurredAt,
			}
			if e, err := registry.Unmarshal(r); err == nil {
				v.Event = e
			}
			views = append(views, v)
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), views)
		}
		printEvents(cmd.OutOrStdout(), views)
		return nil
	})
}

func printEvents(w io.Writer, views []eventView) {
	if len(views) == 0 {
		fmt.Fprintln(w, "No events")
		return
	}

	fmt.Fprintf(w, "Recent Events (%d):\n\n", len(views))
	fmt.Fprintf(w, "  %-12s %-18s %-18s %s\n", "TIME", "TYPE", "ENTITY", "DETAIL")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 70))
	for _, v := range views {
		entity := fmt.Sprintf("%s/%d", v.EntityType, v.EntityID)
		fmt.Fprintf(w, "  %-12s %-18s %-18s %s\n", formatTimeAgo(v.OccurredAt), v.EventType, entity, describeEvent(v.Event))
	}
}

func describeEvent(e events.Event) string {
	switch e := e.(type) {
	case *events.WishlistChanged:
		verb := "removed from"
		if e.Added {
			verb = "added to"
		}
		return fmt.Sprintf("%q %s %s (%d)", e.Title, verb, e.Partition, len(e.Wishlist))
	case *events.WishlistLoaded:
		return fmt.Sprintf("%s loaded (%d)", e.Partition, e.Count)
	case *events.SessionChanged:
		switch {
		case e.Email != "":
			return e.Kind + " " + e.Email
		case e.SocialUserID != 0:
			return fmt.Sprintf("%s %d", e.Kind, e.SocialUserID)
		default:
			return e.Kind
		}
	default:
		return ""
	}
}

func formatTimeAgo(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	ago := time.Since(t)
	switch {
	case ago < time.Minute:
		return "just now"
	case ago < time.Hour:
		return fmt.Sprintf("%dm ago", int(ago.Minutes()))
	case ago < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(ago.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(ago.Hours()/24))
	}
}
