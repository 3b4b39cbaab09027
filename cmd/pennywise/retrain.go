package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pennywise-app/pennywise/internal/pipeline"
	"github.com/pennywise-app/pennywise/internal/predict"
	"github.com/pennywise-app/pennywise/internal/retrain"
)

func retrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retrain",
		Short: "Run the scheduled retraining loop",
		Long: `Retrain the model from the transaction store on a fixed interval and
hot-swap each successful result into the active model slot.

A failed run is logged and the previously active model remains in force.
Runs until interrupted.`,
		RunE: runRetrain,
	}

	cmd.Flags().Duration("interval", 0, "retraining interval (default: 24h, or retrain.interval from config)")
	_ = viper.BindPFlag("retrain.interval", cmd.Flags().Lookup("interval"))

	return cmd
}

func runRetrain(cmd *cobra.Command, _ []string) error {
	interval := viper.GetDuration("retrain.interval")
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	store, err := initStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	artifacts, err := initArtifactStore()
	if err != nil {
		return err
	}

	scheduler := retrain.NewScheduler(
		store,
		pipeline.New(pipeline.DefaultOptions()),
		artifacts,
		predict.NewService(artifacts),
		interval,
	)

	err = scheduler.Run(cmd.Context())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
