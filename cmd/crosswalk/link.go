package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mkedata/crosswalk/internal/assign"
	"github.com/mkedata/crosswalk/internal/cli"
	"github.com/mkedata/crosswalk/internal/common"
	"github.com/mkedata/crosswalk/internal/matcher"
)

func linkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Resolve student and justice records into canonical identities",
		Long: `Run the matching cascade between student demographic records and
juvenile/adult case records, then assign one canonical person_id to every
individual observed in either system.

The resulting mapping replaces any previous run.`,
		RunE: runLink,
	}

	cmd.Flags().Float64("similarity-threshold", matcher.DefaultConfig().SimilarityThreshold,
		"minimum Jaro similarity for the fuzzy-name stages")
	_ = viper.BindPFlag("matching.similarity_threshold", cmd.Flags().Lookup("similarity-threshold"))

	return cmd
}

func runLink(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	students, err := store.LoadStudentRecords(ctx)
	if err != nil {
		return fmt.Errorf("failed to load student records: %w", err)
	}
	if len(students) == 0 {
		slog.Warn("No student records loaded; has the ETL run?")
	}

	justice, err := store.LoadJusticeRecords(ctx)
	if err != nil {
		return fmt.Errorf("failed to load justice records: %w", err)
	}

	if len(students) == 0 && len(justice) == 0 {
		return fmt.Errorf("%w: both source populations are empty", common.ErrNotFound)
	}

	m := matcher.NewWithConfig(matcher.Config{
		SimilarityThreshold: viper.GetFloat64("matching.similarity_threshold"),
	})
	candidates := m.Resolve(justice, students)

	entries := assign.Assign(students, justice, candidates)
	if err := store.SaveMapping(ctx, entries); err != nil {
		return fmt.Errorf("failed to save mapping: %w", err)
	}

	fmt.Println(cli.RenderLinkSummary(entries))
	return nil
}
