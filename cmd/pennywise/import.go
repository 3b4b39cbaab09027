package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pennywise-app/pennywise/internal/cli"
	"github.com/pennywise-app/pennywise/internal/model"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import labeled transactions from a CSV file",
		Long: `Load transactions into the local store from a CSV file with the columns:

    date,description,amount,category[,type]

Dates are ISO-8601 (2006-01-02). Type is "income" or "expense" and
defaults to expense. Rows already imported are skipped by content hash,
so re-running an import is safe.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	defer func() { _ = f.Close() }()

	transactions, err := parseTransactionsCSV(f)
	if err != nil {
		return err
	}
	if len(transactions) == 0 {
		fmt.Println(cli.FormatWarning("No transactions found in file"))
		return nil
	}

	store, err := initStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	before, err := store.CountTransactions(cmd.Context())
	if err != nil {
		return err
	}
	if err := store.SaveTransactions(cmd.Context(), transactions); err != nil {
		return fmt.Errorf("failed to save transactions: %w", err)
	}
	after, err := store.CountTransactions(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf(
		"Imported %d transactions (%d new, %d duplicates skipped)",
		len(transactions), after-before, len(transactions)-(after-before))))
	return nil
}

// parseTransactionsCSV reads date,description,amount,category[,type]
// rows, tolerating an optional header line.
func parseTransactionsCSV(r io.Reader) ([]model.Transaction, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // validated per row, type column is optional

	var transactions []model.Transaction
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		line++

		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "date") {
			continue // header
		}
		if len(record) < 4 {
			return nil, fmt.Errorf("line %d: expected at least 4 columns, got %d", line, len(record))
		}

		date, err := time.Parse("2006-01-02", strings.TrimSpace(record[0]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid date %q: %w", line, record[0], err)
		}
		amount, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid amount %q: %w", line, record[2], err)
		}

		txnType := model.TypeExpense
		if len(record) > 4 {
			switch strings.ToLower(strings.TrimSpace(record[4])) {
			case "", "expense":
				txnType = model.TypeExpense
			case "income":
				txnType = model.TypeIncome
			default:
				return nil, fmt.Errorf("line %d: invalid type %q", line, record[4])
			}
		}

		txn := model.Transaction{
			ID:          uuid.New().String(),
			Date:        date,
			Description: strings.TrimSpace(record[1]),
			Amount:      amount,
			Category:    strings.TrimSpace(record[3]),
			Type:        txnType,
		}
		txn.Hash = txn.GenerateHash()
		transactions = append(transactions, txn)
	}

	return transactions, nil
}
