package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/flightrisk/flightrisk/internal/airport"
	"github.com/flightrisk/flightrisk/internal/assessment"
	"github.com/flightrisk/flightrisk/internal/duration"
	"github.com/flightrisk/flightrisk/internal/layover"
	"github.com/flightrisk/flightrisk/internal/risk"
	"github.com/flightrisk/flightrisk/internal/seasonal"
)

func newDurationCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "duration TEXT",
		Short:   "Parse a layover duration",
		Example: `  riskctl duration "1h 25m"`,
		Args:    cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			res := duration.Parse(strings.Join(args, " "))
			fmt.Fprintf(cmd.OutOrStdout(), "%d minutes (%s)\n", res.Minutes, res)
		},
	}
}

func newSeasonalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seasonal YYYY-MM-DD",
		Short: "Show the seasonal and holiday context of a travel date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := time.Parse(assessment.DateLayout, args[0])
			if err != nil {
				return fmt.Errorf("invalid date %q: must be formatted as YYYY-MM-DD", args[0])
			}

			sc := seasonal.Calculate(date)
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Season:      %s\n", sc.Season)
			holiday := string(sc.Holiday)
			if sc.Holiday == seasonal.HolidayNone {
				holiday = "none"
			}
			fmt.Fprintf(w, "Holiday:     %s (x%.2f)\n", holiday, sc.HolidayMultiplier)
			fmt.Fprintf(w, "Weekend:     %t\n", sc.IsWeekend)
			fmt.Fprintf(w, "Peak month:  %t\n", sc.IsPeakMonth)
			fmt.Fprintf(w, "Score:       %.1f\n", sc.Score)
			printList(w, "Factors", sc.Factors)
			return nil
		},
	}
}

func newTierCmd() *cobra.Command {
	var layoverText string

	cmd := &cobra.Command{
		Use:     "tier CODE...",
		Short:   "Show airport tiers and connection thresholds",
		Example: `  riskctl tier ORD BUF --layover 55m`,
		Args:    cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			minutes := 0
			if layoverText != "" {
				minutes = duration.Minutes(layoverText)
			}

			w := cmd.OutOrStdout()
			for _, code := range args {
				code = airport.NormalizeCode(code)
				p := airport.ProfileFor(code)
				fmt.Fprintf(w, "%s  %-10s tight<%dm plenty>=%dm", code, p.Tier, p.Thresholds.Tight, p.Thresholds.Reasonable)
				if minutes > 0 {
					// Weather and complexity are unknown here and scored as medium.
					penalty := risk.ConnectionPenalty(layover.Connection{AirportCode: code, DurationMinutes: minutes})
					fmt.Fprintf(w, "  %dm=%s penalty=%.1f", minutes, p.Thresholds.Classify(minutes), penalty)
				}
				fmt.Fprintln(w)
			}
		},
	}
	cmd.Flags().StringVar(&layoverText, "layover", "", `Classify a layover such as "55m" or "1h 25m"`)

	return cmd
}
