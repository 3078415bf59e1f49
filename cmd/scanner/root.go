package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/yegors/weekend-fares/internal/amadeus"
	"github.com/yegors/weekend-fares/internal/config"
	"github.com/yegors/weekend-fares/internal/fares"
	"github.com/yegors/weekend-fares/internal/metrics"
	"github.com/yegors/weekend-fares/internal/scanner"
	"github.com/yegors/weekend-fares/internal/storage/csvfile"
	"github.com/yegors/weekend-fares/internal/storage/sqlite"
	"github.com/yegors/weekend-fares/internal/weekend"
	"github.com/yegors/weekend-fares/pkg/logger"
)

var errMissingCredentials = errors.New("missing amadeus client credentials")

var cabins = []string{"ECONOMY", "PREMIUM_ECONOMY", "BUSINESS", "FIRST"}

type scanFlags struct {
	configPath string
	origin     string
	dest       string
	weeks      int
	start      string
	adults     int
	currency   string
	cabin      string
	outfile    string
	print      bool
	env        string
	nonstop    string
	journal    string
}

func newRootCmd() *cobra.Command {
	defaults := config.Default()
	flags := &scanFlags{}

	cmd := &cobra.Command{
		Use:           "scanner",
		Short:         "Scans upcoming weekends for carrier-only round trips and saves them as CSV.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.configPath, "config", "", "Path to a TOML config file")
	f.StringVar(&flags.origin, "origin", defaults.Scan.Origin, "Origin IATA code")
	f.StringVar(&flags.dest, "dest", defaults.Scan.Destination, "Destination IATA code")
	f.IntVar(&flags.weeks, "weeks", defaults.Scan.Weeks, "How many upcoming weekends to scan")
	f.StringVar(&flags.start, "start", "", "Start Friday (YYYY-MM-DD). Defaults to next Friday.")
	f.IntVar(&flags.adults, "adults", defaults.Scan.Adults, "Number of adults")
	f.StringVar(&flags.currency, "currency", defaults.Scan.Currency, "Currency code")
	f.StringVar(&flags.cabin, "cabin", "", "Cabin class filter ("+strings.Join(cabins, ", ")+")")
	f.StringVar(&flags.outfile, "outfile", defaults.Scan.Outfile, "CSV output file")
	f.BoolVar(&flags.print, "print", false, "Print table to stdout")
	f.StringVar(&flags.env, "env", "", "Amadeus environment, test or prod (default from AMADEUS_ENV, else test)")
	f.StringVar(&flags.nonstop, "nonstop", "true", "Require non-stop flights (true or false)")
	f.StringVar(&flags.journal, "journal", "", "SQLite scan journal path (overrides storage.sqlite_path)")

	return cmd
}

// merge fills flags the user didn't set from the loaded configuration
func (f *scanFlags) merge(changed func(name string) bool, cfg *config.Config) {
	if !changed("origin") {
		f.origin = cfg.Scan.Origin
	}
	if !changed("dest") {
		f.dest = cfg.Scan.Destination
	}
	if !changed("weeks") {
		f.weeks = cfg.Scan.Weeks
	}
	if !changed("adults") {
		f.adults = cfg.Scan.Adults
	}
	if !changed("currency") {
		f.currency = cfg.Scan.Currency
	}
	if !changed("outfile") {
		f.outfile = cfg.Scan.Outfile
	}
	if !changed("nonstop") {
		f.nonstop = fmt.Sprintf("%t", cfg.Scan.NonStop)
	}

	if f.env != "" {
		cfg.Amadeus.Env = f.env
	}
	if f.journal != "" {
		cfg.Storage.SQLitePath = f.journal
	}
}

// options validates the flags and builds the run parameters
func (f *scanFlags) options(env string, now time.Time) (scanner.Options, error) {
	nonstop, err := parseNonStop(f.nonstop)
	if err != nil {
		return scanner.Options{}, err
	}

	cabin := strings.ToUpper(strings.TrimSpace(f.cabin))
	if cabin != "" && !validCabin(cabin) {
		return scanner.Options{}, fmt.Errorf("--cabin must be one of %s", strings.Join(cabins, ", "))
	}

	start, err := weekend.ResolveStart(f.start, now)
	if err != nil {
		return scanner.Options{}, fmt.Errorf("--start must be YYYY-MM-DD")
	}

	return scanner.Options{
		Origin:      strings.ToUpper(f.origin),
		Destination: strings.ToUpper(f.dest),
		Adults:      f.adults,
		Currency:    strings.ToUpper(f.currency),
		Cabin:       cabin,
		NonStop:     nonstop,
		Env:         env,
		Outfile:     f.outfile,
		Windows:     weekend.Windows(start, f.weeks),
	}, nil
}

func parseNonStop(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("--nonstop must be true or false, got %q", value)
	}
}

func validCabin(cabin string) bool {
	for _, c := range cabins {
		if c == cabin {
			return true
		}
	}
	return false
}

func runScan(cmd *cobra.Command, flags *scanFlags) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	flags.merge(cmd.Flags().Changed, cfg)

	if cfg.Amadeus.ClientID == "" || cfg.Amadeus.ClientSecret == "" {
		return errMissingCredentials
	}

	baseURL, err := cfg.Amadeus.BaseURL()
	if err != nil {
		return err
	}

	opts, err := flags.options(cfg.Amadeus.Env, time.Now())
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: "stderr",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	httpClient := &http.Client{Timeout: cfg.Amadeus.SearchTimeout()}
	client := amadeus.NewClient(httpClient, amadeus.Options{
		BaseURL:        baseURL,
		ClientID:       cfg.Amadeus.ClientID,
		ClientSecret:   cfg.Amadeus.ClientSecret,
		CarrierCode:    cfg.Amadeus.CarrierCode,
		MaxResults:     cfg.Amadeus.MaxResults,
		AuthTimeout:    cfg.Amadeus.AuthTimeout(),
		RateLimitPause: cfg.Amadeus.RateLimitPause(),
	}, log)

	registry := prometheus.NewRegistry()
	scanOpts := []scanner.Option{
		scanner.WithMetrics(metrics.NewScanMetrics(cfg.Metrics.Namespace, registry)),
	}

	if path := cfg.Storage.SQLitePath; path != "" {
		db, err := sqlite.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open scan journal: %w", err)
		}
		defer db.Close()

		journal, err := sqlite.NewScanStorage(db, log)
		if err != nil {
			return fmt.Errorf("failed to initialize scan journal: %w", err)
		}
		scanOpts = append(scanOpts, scanner.WithJournal(journal))
	}

	s := scanner.New(client, scanner.Config{
		CarrierCode:        cfg.Amadeus.CarrierCode,
		BookingURLTemplate: cfg.Amadeus.BookingURLTemplate,
		CourtesyDelay:      cfg.Amadeus.CourtesyDelay(),
	}, log, scanOpts...)

	log.Info("Starting scan",
		logger.String("env", opts.Env),
		logger.String("origin", opts.Origin),
		logger.String("destination", opts.Destination),
		logger.Int("weeks", len(opts.Windows)),
		logger.Bool("nonstop", opts.NonStop),
	)

	result, err := s.Run(cmd.Context(), opts)
	if err != nil {
		return err
	}

	if path := cfg.Metrics.TextfilePath; path != "" {
		if err := prometheus.WriteToTextfile(path, registry); err != nil {
			log.Warn("Failed to write metrics textfile", logger.String("path", path), logger.Error(err))
		}
	}

	out := cmd.OutOrStdout()
	if len(result.Records) == 0 {
		fmt.Fprintf(out, "No %s offers found for the given parameters.\n", cfg.Amadeus.CarrierCode)
		return nil
	}

	reportChanges(log, opts.Outfile, result.Records)

	if err := csvfile.Write(opts.Outfile, result.Records); err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved %d rows → %s\n", len(result.Records), opts.Outfile)

	if flags.print {
		renderTable(out, result.Records)
	}
	return nil
}

// reportChanges logs how the fresh records differ from the table about to be
// overwritten
func reportChanges(log *logger.Logger, path string, records []fares.Record) {
	previous, err := csvfile.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	if err != nil {
		log.Warn("Failed to read previous table, skipping change report", logger.String("path", path), logger.Error(err))
		return
	}

	changes := fares.DetectChanges(previous, records)
	for _, change := range changes {
		if change.Type != fares.ChangeUpdated {
			continue
		}
		log.Info("Fare changed",
			logger.String("depart_date", change.Record.DepartDate),
			logger.String("return_date", change.Record.ReturnDate),
			logger.String("outbound_legs", change.Record.OutboundLegs),
			logger.String("previous_cheapest", change.PreviousPrice),
			logger.String("cheapest", change.Record.PriceTotal),
			logger.Int("previous_fares", change.PreviousFares),
			logger.Int("fares", change.Fares),
		)
	}

	counts := fares.CountChanges(changes)
	log.Info("Compared with previous table",
		logger.String("path", path),
		logger.Int("added", counts[fares.ChangeAdded]),
		logger.Int("updated", counts[fares.ChangeUpdated]),
		logger.Int("removed", counts[fares.ChangeRemoved]),
	)
}
