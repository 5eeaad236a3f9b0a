package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/komps-labs/komps/internal/model"
	"github.com/komps-labs/komps/internal/store"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect the audit event log",
	Long:  "Commands for listing, recording, and summarizing audit events.",
}

// -- events list --

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit events",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		eventType, _ := cmd.Flags().GetString("type")
		actorID, _ := cmd.Flags().GetString("actor")
		limit, _ := cmd.Flags().GetInt("limit")

		events, err := st.ListEvents(ctx, store.EventFilter{
			Type:    eventType,
			ActorID: actorID,
			Limit:   limit,
		})
		if err != nil {
			return eris.Wrap(err, "events list")
		}

		if len(events) == 0 {
			fmt.Fprintln(os.Stderr, "No events found.")
			return nil
		}

		formatEventsList(os.Stdout, events)
		return nil
	},
}

// -- events record --

var (
	eventType      string
	eventActorID   string
	eventActorName string
	eventAddress   string
)

var eventsRecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record an audit event (e.g. a report forwarded to a client)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		id, err := st.SaveEvent(ctx, model.Event{
			Type:      eventType,
			ActorID:   eventActorID,
			ActorName: eventActorName,
			Address:   eventAddress,
		})
		if err != nil {
			return eris.Wrap(err, "events record")
		}

		fmt.Println(id)
		return nil
	},
}

// -- events stats --

var eventsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate event statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		stats, err := st.EventStats(ctx)
		if err != nil {
			return eris.Wrap(err, "events stats")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	},
}

func init() {
	eventsListCmd.Flags().String("type", "", "filter by event type (report_completed, report_forwarded)")
	eventsListCmd.Flags().String("actor", "", "filter by actor ID")
	eventsListCmd.Flags().Int("limit", 50, "max number of events to display")

	eventsRecordCmd.Flags().StringVar(&eventType, "type", model.EventReportForwarded, "event type")
	eventsRecordCmd.Flags().StringVar(&eventActorID, "actor", "", "actor ID (required)")
	eventsRecordCmd.Flags().StringVar(&eventActorName, "actor-name", "", "actor display name")
	eventsRecordCmd.Flags().StringVar(&eventAddress, "address", "", "subject property address")
	_ = eventsRecordCmd.MarkFlagRequired("actor")

	eventsCmd.AddCommand(eventsListCmd)
	eventsCmd.AddCommand(eventsRecordCmd)
	eventsCmd.AddCommand(eventsStatsCmd)
	rootCmd.AddCommand(eventsCmd)
}

// formatEventsList writes a tabular list of events to w.
func formatEventsList(out io.Writer, events []model.Event) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTYPE\tACTOR\tADDRESS\tTIMESTAMP")
	for _, e := range events {
		actor := e.ActorID
		if e.ActorName != "" {
			actor = fmt.Sprintf("%s (%s)", e.ActorName, e.ActorID)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.Type, actor, e.Address, e.Timestamp.Format(time.RFC3339))
	}
	_ = w.Flush()
}
