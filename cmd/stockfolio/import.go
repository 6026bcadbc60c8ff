package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"stockfolio/pkg/stockfolio"
)

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import holdings and transactions from a .csv or .json file",
	Long: `Import a brokerage export into the portfolio.

CSV files need symbol, shares, purchase_price and purchase_date columns
(header names are matched ignoring case, spaces and underscores). JSON
files carry a {"holdings": [...], "transactions": [...]} batch.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := requireUser(cmd)
		if err != nil {
			return err
		}
		core, err := openCore()
		if err != nil {
			return err
		}
		defer core.Close()

		var outcome *stockfolio.ImportOutcome
		switch strings.ToLower(filepath.Ext(args[0])) {
		case ".csv":
			rows, err := readCSVFile(args[0])
			if err != nil {
				return err
			}
			outcome, err = core.ImportCSVRows(cmd.Context(), user, rows, stockfolio.FullEntitlements())
			if err != nil {
				return err
			}
		case ".json":
			batch, err := readBatchFile(args[0])
			if err != nil {
				return err
			}
			outcome, err = core.ImportGeneric(cmd.Context(), user, *batch, stockfolio.FullEntitlements())
			if err != nil {
				return err
			}
		default:
			return fmt.Errorf("unsupported file type %q; use .csv or .json", filepath.Ext(args[0]))
		}
		return printJSON(outcome)
	},
}

func readCSVFile(path string) ([]stockfolio.CSVRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return parseCSVRows(file)
}

func readBatchFile(path string) (*stockfolio.ImportBatch, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var batch stockfolio.ImportBatch
	decoder := json.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&batch); err != nil {
		return nil, fmt.Errorf("invalid import batch: %w", err)
	}
	return &batch, nil
}

// parseCSVRows reads a holdings export. The header row is required;
// column order is free.
func parseCSVRows(r io.Reader) ([]stockfolio.CSVRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv file is empty")
	}

	header := records[0]
	// Excel exports start with a byte order mark.
	header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[canonicalHeader(name)] = i
	}
	for _, required := range []string{"symbol", "shares", "purchaseprice", "purchasedate"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("csv is missing a %s column", required)
		}
	}

	rows := make([]stockfolio.CSVRow, 0, len(records)-1)
	for _, record := range records[1:] {
		rows = append(rows, stockfolio.CSVRow{
			Symbol:        record[columns["symbol"]],
			Shares:        record[columns["shares"]],
			PurchasePrice: record[columns["purchaseprice"]],
			PurchaseDate:  record[columns["purchasedate"]],
		})
	}
	return rows, nil
}

// canonicalHeader lowers a header cell and strips spaces and underscores,
// so "Purchase Price", "purchase_price" and "PurchasePrice" all match.
func canonicalHeader(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "")
	return strings.ReplaceAll(name, "_", "")
}
