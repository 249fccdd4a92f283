// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/auditverse-convert/internal/replay"
	"github.com/pdiddy/auditverse-convert/internal/store"
	"github.com/pdiddy/auditverse-convert/pkg/types"
)

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Manage the timeline index (index, events, export, stats)",
	Long: `Timeline manages a local SQLite index of converted timelines. Use
subcommands to index documents, search events, or export the index.`,
}

// --- index subcommand ---

var timelineIndexCmd = &cobra.Command{
	Use:   "index [files...]",
	Short: "Index converted documents",
	Long: `Index reads converted documents and stores their events and snapshots in
the timeline index. A document is skipped when its converted_date has not
changed since it was last indexed. The file defaults to
public/data/comprehensiveSampleData.json.`,
	RunE: runTimelineIndex,
}

func runTimelineIndex(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		args = []string{types.DefaultDataFile}
	}

	s, err := store.NewStore(timelineConfig(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	var total store.IngestSummary
	for _, path := range args {
		doc, _, err := replay.ReadDocument(path)
		if err != nil {
			return err
		}
		summary, err := s.Ingest(context.Background(), filepath.Clean(path), doc, os.Stdout)
		if err != nil {
			return err
		}
		total.Indexed += summary.Indexed
		total.Updated += summary.Updated
		total.Skipped += summary.Skipped
		total.Events += summary.Events
	}

	fmt.Printf("\nindexed: %d, updated: %d, skipped: %d, events: %d\n",
		total.Indexed, total.Updated, total.Skipped, total.Events)
	return nil
}

// --- events subcommand ---

var timelineEventsCmd = &cobra.Command{
	Use:   "events [query]",
	Short: "Search indexed events",
	Long: `Events searches indexed events by substring, event type, entity, and
date range. Results are ordered by date.`,
	RunE: runTimelineEvents,
}

func runTimelineEvents(cmd *cobra.Command, args []string) error {
	opts, err := queryOptsFromFlags(cmd, args)
	if err != nil {
		return err
	}

	s, err := store.NewStore(timelineConfig(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	results, err := s.Retrieve(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatEventsOutput(results, jsonOutput)
}

func formatEventsOutput(results []store.QueryResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No events found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-20s  %-22s  %-10s  %-12s  %s\n",
		"Date", "Type", "Entity", "ID", "Source")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))

	for _, r := range results {
		id := string(r.ID)
		if len(id) > 12 {
			id = id[:9] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-20s  %-22s  %-10s  %-12s  %s\n",
			r.Date, r.Type, r.EntityType, id, r.Source)
	}

	fmt.Fprintf(os.Stdout, "\n%d events\n", len(results))
	return nil
}

// --- export subcommand ---

var timelineExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the timeline index to YAML or JSON",
	Long: `Export writes every indexed event (or a filtered subset) to export.yaml
or export.json in the index directory. Supports the same filter flags as
events for partial exports.`,
	RunE: runTimelineExport,
}

func runTimelineExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	opts, err := queryOptsFromFlags(cmd, args)
	if err != nil {
		return err
	}

	cfg := timelineConfig(cmd)
	s, err := store.NewStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	switch format {
	case "yaml", "":
		if err := s.ExportYAML(context.Background(), opts); err != nil {
			return err
		}
		fmt.Printf("Exported to %s\n", filepath.Join(cfg.IndexDir, "export.yaml"))
	case "json":
		if err := s.ExportJSON(context.Background(), opts); err != nil {
			return err
		}
		fmt.Printf("Exported to %s\n", filepath.Join(cfg.IndexDir, "export.json"))
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	return nil
}

// --- stats subcommand ---

var timelineStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print indexed event counts by type and the snapshot markers",
	RunE:  runTimelineStats,
}

func runTimelineStats(cmd *cobra.Command, args []string) error {
	s, err := store.NewStore(timelineConfig(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	counts, err := s.Stats(ctx)
	if err != nil {
		return err
	}
	total := 0
	for _, c := range counts {
		fmt.Printf("%-24s %d\n", c.Type, c.Count)
		total += c.Count
	}
	fmt.Printf("%-24s %d\n", "total", total)

	snaps, err := s.Snapshots(ctx, "")
	if err != nil {
		return err
	}
	if len(snaps) > 0 {
		fmt.Println()
	}
	for _, snap := range snaps {
		fmt.Printf("%s  %-8s %s\n", snap.Date, snap.Label, snap.Summary)
	}
	return nil
}

// --- shared helpers ---

func timelineConfig(cmd *cobra.Command) types.TimelineStoreConfig {
	cfg := appConfig().Timeline
	if dir, _ := cmd.Flags().GetString("index-dir"); dir != "" {
		cfg.IndexDir = dir
	}
	if n, _ := cmd.Flags().GetInt("max-results"); n > 0 {
		cfg.MaxResults = n
	}
	return cfg
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) (store.QueryOptions, error) {
	queryText := strings.Join(args, " ")

	eventType, _ := cmd.Flags().GetString("type")
	entityType, _ := cmd.Flags().GetString("entity-type")
	entityID, _ := cmd.Flags().GetString("id")
	fromFlag, _ := cmd.Flags().GetString("from")
	toFlag, _ := cmd.Flags().GetString("to")
	limit, _ := cmd.Flags().GetInt("limit")

	from, err := parseDateFlag("from", fromFlag, false)
	if err != nil {
		return store.QueryOptions{}, err
	}
	to, err := parseDateFlag("to", toFlag, true)
	if err != nil {
		return store.QueryOptions{}, err
	}

	return store.QueryOptions{
		Query:      queryText,
		Type:       types.EventType(eventType),
		EntityType: types.EntityType(entityType),
		EntityID:   entityID,
		From:       from,
		To:         to,
		MaxResults: limit,
	}, nil
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("type", "", "filter by event type, e.g. risk_rating_change")
	cmd.Flags().String("entity-type", "", "filter by entity type: risk, control, audit, issue, incident")
	cmd.Flags().String("id", "", "filter by entity ID")
	cmd.Flags().String("from", "", "earliest event date (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().String("to", "", "latest event date, inclusive (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	timelineCmd.PersistentFlags().String("index-dir", "", "timeline index directory (default from timeline.index_dir)")
	timelineCmd.PersistentFlags().Int("max-results", 0, "maximum number of query results (default from timeline.max_results)")

	addFilterFlags(timelineEventsCmd)
	timelineEventsCmd.Flags().Bool("json", false, "output results as JSON")

	addFilterFlags(timelineExportCmd)
	timelineExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	timelineCmd.AddCommand(timelineIndexCmd)
	timelineCmd.AddCommand(timelineEventsCmd)
	timelineCmd.AddCommand(timelineExportCmd)
	timelineCmd.AddCommand(timelineStatsCmd)

	rootCmd.AddCommand(timelineCmd)
}
