package main

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/pennywise-app/pennywise/internal/artifact"
	"github.com/pennywise-app/pennywise/internal/cli"
	"github.com/pennywise-app/pennywise/internal/pipeline"
)

func trainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Train the categorization model once",
		Long: `Fit the text+numeric classification pipeline on all labeled
transactions in the store and publish the result as the new active model.

On any failure the previously published model stays active.`,
		RunE: runTrain,
	}
}

func runTrain(cmd *cobra.Command, _ []string) error {
	store, err := initStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	artifacts, err := initArtifactStore()
	if err != nil {
		return err
	}

	records, err := store.GetTrainingData(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read training data: %w", err)
	}

	opts := pipeline.DefaultOptions()
	var bar *progressbar.ProgressBar
	opts.Progress = func(done, total int) {
		if bar == nil {
			bar = cli.NewProgressBar(total, "Fitting classifier...")
		}
		_ = bar.Set(done)
	}

	a, err := pipeline.New(opts).Train(cmd.Context(), records)
	if bar != nil {
		fmt.Println()
	}
	if err != nil {
		return err
	}

	version, err := artifacts.Publish(a)
	if err != nil {
		return fmt.Errorf("failed to publish artifact: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf(
		"Trained %s model %s on %d transactions (%d categories, %d vocabulary terms)",
		a.Mode, version, a.Stats.Samples, a.Stats.Classes, a.Stats.VocabularySize)))
	if a.Mode == artifact.ModeMinimal {
		fmt.Println(cli.FormatWarning(fmt.Sprintf(
			"Small dataset: training accuracy %.0f%% is measured on the training data itself and is optimistic",
			a.Stats.TrainingAccuracy*100)))
	}
	return nil
}
