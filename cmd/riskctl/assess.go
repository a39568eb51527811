package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/flightrisk/flightrisk/internal/app"
	"github.com/flightrisk/flightrisk/internal/assessment"
)

type assessOptions struct {
	airline  string
	flight   string
	origin   string
	dest     string
	date     string
	layovers []string
	online   bool
	asJSON   bool
}

func newAssessCmd(root *rootOptions) *cobra.Command {
	opts := &assessOptions{}

	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Assess disruption risk for a flight",
		Example: `  riskctl assess --airline UA --flight 1234 --from BUF --to ALB --date 2026-01-15 \
    --layover ORD=55m`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAssess(cmd, root, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.airline, "airline", "", "Airline IATA code")
	f.StringVar(&opts.flight, "flight", "", "Flight number")
	f.StringVar(&opts.origin, "from", "", "Origin airport IATA code")
	f.StringVar(&opts.dest, "to", "", "Destination airport IATA code")
	f.StringVar(&opts.date, "date", "", "Travel date YYYY-MM-DD (default: today)")
	f.StringArrayVar(&opts.layovers, "layover", nil, "Connection as AIRPORT=DURATION, repeatable")
	f.BoolVar(&opts.online, "online", false, "Use configured weather and text-generation providers")
	f.BoolVar(&opts.asJSON, "json", false, "Print the full assessment as JSON")
	for _, name := range []string{"airline", "flight", "from", "to"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func runAssess(cmd *cobra.Command, root *rootOptions, opts *assessOptions) error {
	req, err := opts.request(time.Now())
	if err != nil {
		return err
	}

	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}

	pipeline, err := app.New(cmd.Context(), cfg, app.Options{Offline: !opts.online}, root.logger())
	if err != nil {
		return err
	}
	defer pipeline.Close()

	out, err := pipeline.Assessments.Assess(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("assess %s%s: %w", req.AirlineCode, req.FlightNumber, err)
	}

	if opts.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	printAssessment(cmd.OutOrStdout(), out)
	return nil
}

func (o *assessOptions) request(now time.Time) (assessment.Request, error) {
	date := o.date
	if date == "" {
		date = now.Format(assessment.DateLayout)
	}

	req := assessment.Request{
		AirlineCode:  o.airline,
		FlightNumber: o.flight,
		Origin:       o.origin,
		Destination:  o.dest,
		Date:         date,
	}
	for _, l := range o.layovers {
		code, dur, ok := strings.Cut(l, "=")
		if !ok {
			return assessment.Request{}, fmt.Errorf("invalid --layover %q: want AIRPORT=DURATION", l)
		}
		req.Layovers = append(req.Layovers, assessment.LayoverInput{AirportCode: code, Duration: dur})
	}
	return req, nil
}

func printAssessment(w io.Writer, out *assessment.Output) {
	fmt.Fprintf(w, "%s %s -> %s on %s\n",
		out.Flight.FlightNumber, out.Flight.Origin, out.Flight.Destination, out.Flight.Date)
	fmt.Fprintf(w, "Risk:          %d (%s)", out.OverallRiskScore, out.RiskLevel)
	if out.SafetyOverride {
		fmt.Fprint(w, " [safety override]")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Delay:         %s\n", out.DelayProbability)
	fmt.Fprintf(w, "Cancellation:  %s\n", out.CancellationProbability)
	fmt.Fprintf(w, "History:       %s (%d flights)\n",
		out.HistoricalPerformance.DataReliability, out.HistoricalPerformance.TotalFlightsAnalyzed)

	for _, c := range out.Connections {
		fmt.Fprintf(w, "Connection:    %s %dm %s\n", c.AirportCode, c.DurationMinutes, c.ConnectionClass)
	}
	printList(w, "Risk factors", out.KeyRiskFactors)
	printList(w, "Recommendations", out.Recommendations)
	printList(w, "Seasonal", out.SeasonalFactors)
	if len(out.DegradedSignals) > 0 {
		printList(w, "Degraded", out.DegradedSignals)
	}
	fmt.Fprintf(w, "\n%s\n", out.Explanation)
}

func printList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
}
