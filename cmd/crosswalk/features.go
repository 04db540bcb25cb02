package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mkedata/crosswalk/internal/cli"
	"github.com/mkedata/crosswalk/internal/common"
	"github.com/mkedata/crosswalk/internal/engine"
	"github.com/mkedata/crosswalk/internal/feature"
)

func featuresCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "features [feature...]",
		Short: "Materialize feature columns onto reference-frame tables",
		Long: `Compute, validate and persist feature columns on one or more
reference-frame tables. The table name embeds its time window: a number
above 1000 is a calendar-year bound (frame_year2013), anything else a
maximum student age (frame_age16).

Features already present on a table are skipped, so reruns are safe.
With no arguments the feature list comes from the config file
(features.list, which may nest groups); tables likewise fall back to
features.tables.`,
		RunE: runFeatures,
	}

	cmd.Flags().StringSlice("table", nil, "reference-frame table(s) to materialize")
	cmd.Flags().Bool("list", false, "list every available feature and exit")
	cmd.Flags().Bool("no-progress", false, "disable the progress bar")

	return cmd
}

func runFeatures(cmd *cobra.Command, args []string) error {
	registry := feature.NewRegistry()

	if list, _ := cmd.Flags().GetBool("list"); list {
		for _, name := range registry.Names() {
			fmt.Println(name)
		}
		return nil
	}

	names := args
	if len(names) == 0 {
		if raw, ok := viper.Get("features.list").([]any); ok {
			names = engine.Flatten(raw)
		}
	}
	if len(names) == 0 {
		return fmt.Errorf("%w: pass feature names or set features.list", common.ErrMissingConfig)
	}

	tables, _ := cmd.Flags().GetStringSlice("table")
	if len(tables) == 0 {
		tables = viper.GetStringSlice("features.tables")
	}
	if len(tables) == 0 {
		return fmt.Errorf("%w: pass --table or set features.tables", common.ErrMissingConfig)
	}

	ctx := cmd.Context()
	store, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	noProgress, _ := cmd.Flags().GetBool("no-progress")
	m := engine.NewWithConfig(store, registry, engine.Config{ShowProgress: !noProgress})

	rejected := 0
	for _, table := range tables {
		report, err := m.Materialize(ctx, names, table)
		if report != nil {
			fmt.Println(cli.RenderReport(report))
			rejected += len(report.Rejected)
		}
		if err != nil {
			return fmt.Errorf("materialization of %s failed: %w", table, err)
		}
	}

	// Rejections never abort the batch, but the run as a whole did not
	// deliver everything asked of it.
	if rejected > 0 {
		return fmt.Errorf("%w: %d feature(s), see report above", common.ErrFeatureRejected, rejected)
	}
	return nil
}
