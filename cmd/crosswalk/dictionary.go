package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkedata/crosswalk/internal/cli"
)

func dictionaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dictionary",
		Short: "Show the feature dictionary",
		Long:  `List every feature that has been materialized, with its type and description.`,
		RunE:  runDictionary,
	}
}

func runDictionary(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	entries, err := store.GetDictionary(ctx)
	if err != nil {
		return fmt.Errorf("failed to load feature dictionary: %w", err)
	}

	fmt.Println(cli.RenderDictionary(entries))
	return nil
}
