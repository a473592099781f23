package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/i474232898/weather-odds/internal/bootstrap"
	"github.com/i474232898/weather-odds/internal/config"
	"github.com/i474232898/weather-odds/internal/export"
	"github.com/i474232898/weather-odds/internal/observability"
	"github.com/i474232898/weather-odds/internal/weather"
	"github.com/i474232898/weather-odds/pkg/logger"
)

type queryFlags struct {
	lat, lon      float64
	city, country string
	day           int
	variables     []string
	thresholds    []string
	out           string
	asJSON        bool
}

func newQueryCmd() *cobra.Command {
	var f queryFlags
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Evaluate variables for a location and day of year",
		Example: `  weather-odds-cli query --lat 34.05 --lon -118.24 --day 1 \
    --var temperature --var precipitation --threshold temperature=90:F --out la.csv`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := f.toQuery(cmd)
			if err != nil {
				return err
			}
			return runQuery(cmd, q, f)
		},
	}

	cmd.Flags().Float64Var(&f.lat, "lat", 0, "latitude in degrees")
	cmd.Flags().Float64Var(&f.lon, "lon", 0, "longitude in degrees")
	cmd.Flags().StringVar(&f.city, "city", "", "named place, resolved with the configured geocoder")
	cmd.Flags().StringVar(&f.country, "country", "", "country of --city")
	cmd.Flags().IntVar(&f.day, "day", 0, "day of year (1-366)")
	cmd.Flags().StringArrayVar(&f.variables, "var", nil, "variable key (repeatable)")
	cmd.Flags().StringArrayVar(&f.thresholds, "threshold", nil, "threshold as variable=value[:unit] (repeatable)")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "write the export table to this CSV file")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "print results as JSON")
	cmd.MarkFlagsRequiredTogether("lat", "lon")
	cmd.MarkFlagsMutuallyExclusive("lat", "city")
	return cmd
}

func (f queryFlags) toQuery(cmd *cobra.Command) (weather.Query, error) {
	q := weather.Query{
		DayOfYear:    f.day,
		VariableKeys: f.variables,
		Requester:    "cli",
	}
	if cmd.Flags().Changed("lat") {
		q.Location = weather.At(f.lat, f.lon)
	} else if f.city != "" {
		q.Location = weather.Location{Place: &weather.Place{City: f.city, Country: f.country}}
	}
	for _, raw := range f.thresholds {
		t, err := parseThreshold(raw)
		if err != nil {
			return weather.Query{}, err
		}
		q.Thresholds = append(q.Thresholds, t)
	}
	return q, nil
}

// parseThreshold reads "variable=value" or "variable=value:unit".
func parseThreshold(raw string) (weather.ThresholdSpec, error) {
	key, rest, ok := strings.Cut(raw, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return weather.ThresholdSpec{}, fmt.Errorf("threshold %q: expected variable=value[:unit]", raw)
	}
	value, unit, _ := strings.Cut(rest, ":")
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return weather.ThresholdSpec{}, fmt.Errorf("threshold %q: %w", raw, err)
	}
	return weather.ThresholdSpec{VariableKey: key, Value: v, Unit: strings.TrimSpace(unit)}, nil
}

func runQuery(cmd *cobra.Command, q weather.Query, f queryFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.LogLevel, "text")
	svc, err := bootstrap.Service(cfg, clockwork.NewRealClock(), log, observability.NewUnregisteredMetrics())
	if err != nil {
		return err
	}

	result, rows, err := svc.Run(cmd.Context(), q)
	if err != nil {
		return err
	}

	if f.out != "" {
		data, err := export.EncodeCSV(rows)
		if err != nil {
			return err
		}
		if err := os.WriteFile(f.out, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", f.out, err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d rows to %s\n", len(rows), f.out)
	}

	if f.asJSON {
		return printJSON(cmd.OutOrStdout(), result)
	}
	return printTable(cmd.OutOrStdout(), result)
}

func printTable(w io.Writer, result weather.QueryResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VARIABLE\tMEAN\tUNIT\tEXCEEDANCE\tMIN\tMAX")
	for _, key := range result.Order {
		r := result.Results[key]
		fmt.Fprintf(tw, "%s\t%.2f\t%s\t%s\t%.2f\t%.2f\n", key, r.Mean, r.Unit, r.Exceedance, r.Min, r.Max)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, key := range result.Order {
		fmt.Fprintln(w, result.Results[key].Explanation)
	}
	return nil
}

func printJSON(w io.Writer, result weather.QueryResult) error {
	type entry struct {
		Variable    string  `json:"variable"`
		Mean        float64 `json:"mean"`
		Unit        string  `json:"unit"`
		Exceedance  string  `json:"probabilityExceedingThreshold"`
		Explanation string  `json:"simpleExplanation"`
	}
	out := make([]entry, 0, result.Len())
	for _, key := range result.Order {
		r := result.Results[key]
		out = append(out, entry{Variable: key, Mean: r.Mean, Unit: r.Unit, Exceedance: r.Exceedance.String(), Explanation: r.Explanation})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
