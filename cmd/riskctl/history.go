package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/flightrisk/flightrisk/internal/assessment"
	"github.com/flightrisk/flightrisk/internal/database"
	"github.com/flightrisk/flightrisk/internal/history"
)

// historyColumns is the CSV header accepted by "history import".
var historyColumns = []string{
	"airline", "flight_number", "origin", "destination", "date", "cancelled", "departure_delay_minutes",
}

func newHistoryCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage the local SQLite flight history",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "import FILE.csv",
		Short: "Import flight records into the --history-db database",
		Long: "Import flight records from CSV with the header:\n  " + strings.Join(historyColumns, ","),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if root.historyDB == "" {
				return errors.New("--history-db is required")
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			records, err := readFlightRecords(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			db, err := database.OpenSQLite(cmd.Context(), root.historyDB)
			if err != nil {
				return err
			}
			defer db.Close()

			repo := history.NewSQLiteRepository(db)
			if err := repo.EnsureSchema(cmd.Context()); err != nil {
				return err
			}
			if err := repo.Insert(cmd.Context(), records...); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d flight records into %s\n", len(records), root.historyDB)
			return nil
		},
	})

	return cmd
}

func readFlightRecords(r io.Reader) ([]history.FlightRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(historyColumns)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, col := range historyColumns {
		if strings.TrimSpace(strings.ToLower(header[i])) != col {
			return nil, fmt.Errorf("column %d: want %q, got %q", i+1, col, header[i])
		}
	}

	var records []history.FlightRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		line, _ := cr.FieldPos(0)
		rec, err := parseFlightRecord(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseFlightRecord(row []string) (history.FlightRecord, error) {
	date, err := time.Parse(assessment.DateLayout, row[4])
	if err != nil {
		return history.FlightRecord{}, fmt.Errorf("invalid date %q", row[4])
	}
	cancelled, err := strconv.ParseBool(row[5])
	if err != nil {
		return history.FlightRecord{}, fmt.Errorf("invalid cancelled %q", row[5])
	}
	var delay int
	if row[6] != "" {
		if delay, err = strconv.Atoi(row[6]); err != nil {
			return history.FlightRecord{}, fmt.Errorf("invalid departure_delay_minutes %q", row[6])
		}
	}

	airline := strings.ToUpper(strings.TrimSpace(row[0]))
	return history.FlightRecord{
		Airline:               airline,
		FlightNumber:          assessment.NormalizeFlightNumber(airline, row[1]),
		Origin:                row[2],
		Destination:           row[3],
		FlightDate:            date,
		Cancelled:             cancelled,
		DepartureDelayMinutes: delay,
	}, nil
}
