package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-powerstrip/internal/characteristic"
	"github.com/nerrad567/gray-logic-powerstrip/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-powerstrip/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-powerstrip/internal/pairing"
	"github.com/nerrad567/gray-logic-powerstrip/internal/store"
)

// recentSessions is how many sessions inspect lists.
const recentSessions = 5

var (
	onColor    = color.New(color.FgGreen).SprintFunc()
	offColor   = color.New(color.FgHiBlack).SprintFunc()
	alertColor = color.New(color.FgRed, color.Bold).SprintFunc()
	headColor  = color.New(color.Bold).SprintFunc()
)

func inspectCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Show persisted state, pairings and recent sessions",
		Long: "Reads the state database named in the config file without touching\n" +
			"the outputs. Safe to run next to a live daemon.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return inspect(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}
}

func inspect(ctx context.Context, cfg *config.Config, out io.Writer) error {
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close() //nolint:errcheck // Read-only use

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	records, err := store.NewSQLiteStore(db.DB).List(ctx)
	if err != nil {
		return fmt.Errorf("listing state: %w", err)
	}
	pairings, err := pairing.NewSQLiteStore(db.DB).List(ctx)
	if err != nil {
		return fmt.Errorf("listing pairings: %w", err)
	}
	sessions, err := store.NewSQLiteSessions(db.DB).Recent(ctx, recentSessions)
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintf(w, "%s\t%s\n", headColor("Device"), cfg.AccessoryName())
	fmt.Fprintf(w, "%s\t%s\n\n", headColor("Database"), db.Path())

	fmt.Fprintln(w, headColor("STATE\tVALUE\tUPDATED"))
	if len(records) == 0 {
		fmt.Fprintln(w, "(none saved)")
	}
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Key, formatValue(r.Value), r.UpdatedAt.Local().Format(time.DateTime))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, headColor("CONTROLLER\tPAIRED"))
	if len(pairings) == 0 {
		fmt.Fprintln(w, "(not paired)")
	}
	for _, p := range pairings {
		fmt.Fprintf(w, "%s\t%s\n", p.ControllerID, p.PairedAt.Local().Format(time.DateTime))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, headColor("SESSION\tSTARTED\tENDED"))
	for i, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.ID, s.StartedAt.Local().Format(time.DateTime), formatEnd(s, i == 0))
	}

	return w.Flush()
}

func formatValue(v characteristic.Value) string {
	if v.Kind() != characteristic.KindBool {
		return v.String()
	}
	if v.Bool() {
		return onColor("ON")
	}
	return offColor("OFF")
}

// formatEnd describes how a session ended. The newest session has no
// reason while the daemon is still running.
func formatEnd(s store.Session, newest bool) string {
	switch {
	case !s.Unexpected():
		return s.EndReason
	case newest:
		return "running"
	default:
		return alertColor("unexpected restart")
	}
}
