package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/teamodea/meetfinder/internal/availability"
	"github.com/teamodea/meetfinder/internal/calendar"
	"github.com/teamodea/meetfinder/internal/scheduler"
)

type findConfig struct {
	participants string
	duration     int
	rangeStart   string
	rangeEnd     string
	account      string
	timezone     string
	workStart    int
	workEnd      int
	maxResults   int
	verbose      bool
}

func newFindCmd() *cobra.Command {
	var cfg findConfig

	cmd := &cobra.Command{
		Use:   "find",
		Short: "Find overlapping free slots for a set of participants",
		Long: `Find time slots within working hours where every participant is free.

Timestamps accept RFC3339 (2026-01-05T08:00:00Z) or naive ISO format
(2026-01-05T08:00:00, interpreted as UTC).

Example:
  meetfinder find --participants alice@teamodea.com,bob@teamodea.com \
    --duration 30 --from 2026-01-05T00:00:00Z --to 2026-01-10T00:00:00Z`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&cfg.participants, "participants", "p", "", "Comma-separated participant email addresses (required)")
	cmd.Flags().IntVarP(&cfg.duration, "duration", "d", 30, "Meeting duration in minutes")
	cmd.Flags().StringVar(&cfg.rangeStart, "from", "", "Start of the search range (required)")
	cmd.Flags().StringVar(&cfg.rangeEnd, "to", "", "End of the search range (required)")
	cmd.Flags().StringVar(&cfg.account, "account", "default", "Google account to use")
	cmd.Flags().StringVar(&cfg.timezone, "timezone", availability.DefaultTimeZone, "IANA timezone for working hours")
	cmd.Flags().IntVar(&cfg.workStart, "work-start", availability.DefaultWorkStart, "Working hours start (local hour, inclusive)")
	cmd.Flags().IntVar(&cfg.workEnd, "work-end", availability.DefaultWorkEnd, "Working hours end (local hour, exclusive)")
	cmd.Flags().IntVar(&cfg.maxResults, "max-results", 10, "Maximum number of slots to print (0 for all)")
	cmd.Flags().BoolVarP(&cfg.verbose, "verbose", "v", false, "Enable debug logging")

	_ = cmd.MarkFlagRequired("participants")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func runFind(ctx context.Context, cfg findConfig, out io.Writer) error {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if cfg.verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	policy, err := availability.NewPolicy(cfg.timezone, cfg.workStart, cfg.workEnd,
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday)
	if err != nil {
		return fmt.Errorf("failed to build working-hours policy: %w", err)
	}

	participants := parseCommaSeparatedList(cfg.participants)
	if len(participants) == 0 {
		return fmt.Errorf("at least one participant is required")
	}

	rangeStart, err := policy.ParseInstant(cfg.rangeStart)
	if err != nil {
		return fmt.Errorf("invalid --from timestamp: %w", err)
	}
	rangeEnd, err := policy.ParseInstant(cfg.rangeEnd)
	if err != nil {
		return fmt.Errorf("invalid --to timestamp: %w", err)
	}

	if !calendar.HasTokenForAccount(cfg.account) {
		return fmt.Errorf("no credentials for account %q; run 'meetfinder auth' or set GOOGLE_ACCESS_TOKEN", cfg.account)
	}

	client, err := calendar.NewClientForAccount(ctx, cfg.account, calendar.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create calendar client: %w", err)
	}

	finder := scheduler.NewFinder(client, policy, scheduler.WithLogger(logger))
	result, err := finder.FindSlots(ctx, scheduler.Request{
		Participants: participants,
		RangeStart:   rangeStart,
		RangeEnd:     rangeEnd,
		Duration:     time.Duration(cfg.duration) * time.Minute,
	})
	if err != nil {
		return err
	}

	switch result.Outcome {
	case scheduler.OutcomeNoWorkingHours:
		fmt.Fprintln(out, "No working hours found in the specified date range.")
		return nil
	case scheduler.OutcomeNoFreeSlots:
		fmt.Fprintln(out, "No overlapping availability found within the specified range.")
		return nil
	}

	slots := result.Slots
	truncated := 0
	if cfg.maxResults > 0 && len(slots) > cfg.maxResults {
		truncated = len(slots) - cfg.maxResults
		slots = slots[:cfg.maxResults]
	}

	fmt.Fprintf(out, "Found %d available slot(s) for %s:\n",
		len(result.Slots), strings.Join(participants, ", "))
	for _, slot := range slots {
		start := policy.Normalize(slot.Start)
		end := policy.Normalize(slot.End)
		fmt.Fprintf(out, "  %s - %s\n",
			start.Format("Mon, Jan 2 2006 15:04"), end.Format("15:04 MST"))
	}
	if truncated > 0 {
		fmt.Fprintf(out, "  ... and %d more\n", truncated)
	}

	return nil
}
