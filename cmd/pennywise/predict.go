package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pennywise-app/pennywise/internal/cli"
	"github.com/pennywise-app/pennywise/internal/predict"
)

func predictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict [description]",
		Short: "Predict the category for a transaction description",
		Long: `Categorize a free-text transaction description using the active model.

Prints the predicted category and the full probability distribution over
every known category.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runPredict,
	}

	cmd.Flags().Float64("amount", 0, "transaction amount")
	cmd.Flags().String("date", "", "transaction date (2006-01-02, default today)")
	cmd.Flags().Bool("json", false, "print the result as JSON")

	return cmd
}

func runPredict(cmd *cobra.Command, args []string) error {
	amount, _ := cmd.Flags().GetFloat64("amount")
	dateFlag, _ := cmd.Flags().GetString("date")
	asJSON, _ := cmd.Flags().GetBool("json")

	date := time.Now()
	if dateFlag != "" {
		var err error
		date, err = time.Parse("2006-01-02", dateFlag)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", dateFlag, err)
		}
	}

	artifacts, err := initArtifactStore()
	if err != nil {
		return err
	}

	svc := predict.NewService(artifacts)
	result, err := svc.Predict(predict.Request{
		Description: strings.Join(args, " "),
		Amount:      &amount,
		Date:        date,
	})
	if err != nil {
		return err
	}

	if asJSON {
		out := struct {
			Probabilities map[string]float64 `json:"probabilities"`
			Category      string             `json:"category"`
		}{
			Category:      result.Category,
			Probabilities: result.Probabilities,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Category: %s (%.0f%% confidence, model %s)",
		result.Category, result.Confidence*100, result.ModelVersion)))

	// Full distribution, most likely first.
	type entry struct {
		category    string
		probability float64
	}
	entries := make([]entry, 0, len(result.Probabilities))
	for c, p := range result.Probabilities {
		entries = append(entries, entry{category: c, probability: p})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].probability != entries[j].probability {
			return entries[i].probability > entries[j].probability
		}
		return entries[i].category < entries[j].category
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer func() { _ = w.Flush() }()
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%.1f%%\n", e.category, e.probability*100)
	}
	return nil
}
