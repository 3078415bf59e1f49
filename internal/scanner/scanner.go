package scanner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yegors/weekend-fares/internal/amadeus"
	"github.com/yegors/weekend-fares/internal/fares"
	"github.com/yegors/weekend-fares/internal/metrics"
	"github.com/yegors/weekend-fares/internal/offers"
	"github.com/yegors/weekend-fares/internal/storage/sqlite"
	"github.com/yegors/weekend-fares/internal/weekend"
	"github.com/yegors/weekend-fares/pkg/logger"
)

// Searcher is the part of the provider client the scanner needs
type Searcher interface {
	Authenticate(ctx context.Context) (string, error)
	SearchOffers(ctx context.Context, token string, req amadeus.SearchRequest) (*amadeus.SearchResponse, error)
}

// Journal records runs and window outcomes. It is optional.
type Journal interface {
	StartRun(run *sqlite.ScanRun) (int64, error)
	RecordWindow(window *sqlite.ScanWindow) error
	FinishRun(id int64, rows, failedWindows int, finishedAt time.Time) error
}

// Sleeper waits for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// Config holds the scanner's fixed behavior
type Config struct {
	CarrierCode        string
	BookingURLTemplate string
	CourtesyDelay      time.Duration
}

// Options are the per-run search parameters
type Options struct {
	Origin      string
	Destination string
	Adults      int
	Currency    string
	Cabin       string
	NonStop     bool
	Env         string
	Outfile     string
	Windows     []weekend.Window
}

// Result is the aggregated, sorted output of one run
type Result struct {
	Records       []fares.Record
	Windows       int
	FailedWindows int
}

// Scanner searches every weekend window sequentially and aggregates the
// carrier-only offers.
type Scanner struct {
	client  Searcher
	config  Config
	journal Journal
	metrics *metrics.ScanMetrics
	sleep   Sleeper
	now     func() time.Time
	logger  *logger.Logger
}

// Option customizes a Scanner
type Option func(*Scanner)

// WithJournal records every run in j
func WithJournal(j Journal) Option {
	return func(s *Scanner) { s.journal = j }
}

// WithMetrics updates m while scanning
func WithMetrics(m *metrics.ScanMetrics) Option {
	return func(s *Scanner) { s.metrics = m }
}

// WithSleeper replaces the courtesy delay implementation
func WithSleeper(sleep Sleeper) Option {
	return func(s *Scanner) { s.sleep = sleep }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Scanner) { s.now = now }
}

// New creates a new scanner
func New(client Searcher, config Config, log *logger.Logger, opts ...Option) *Scanner {
	s := &Scanner{
		client: client,
		config: config,
		sleep:  sleepContext,
		now:    time.Now,
		logger: log.Named("scanner"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run authenticates once and searches every window. Authentication failures
// and cancellation abort the run; any other per-window failure is logged and
// the window skipped.
func (s *Scanner) Run(ctx context.Context, opts Options) (*Result, error) {
	opts.Origin = strings.ToUpper(opts.Origin)
	opts.Destination = strings.ToUpper(opts.Destination)
	opts.Currency = strings.ToUpper(opts.Currency)

	token, err := s.client.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	runID := s.startRun(opts)

	result := &Result{
		Records: []fares.Record{},
		Windows: len(opts.Windows),
	}

	for _, window := range opts.Windows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		records, err := s.scanWindow(ctx, token, opts, window)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			result.FailedWindows++
			s.warnWindow(window, err)
			s.recordWindow(runID, window, sqlite.WindowStatusFailed, 0, err)
		} else {
			result.Records = append(result.Records, records...)
			s.observe(metrics.OutcomeOK)
			s.recordWindow(runID, window, sqlite.WindowStatusOK, len(records), nil)
		}

		if err := s.sleep(ctx, s.config.CourtesyDelay); err != nil {
			return nil, err
		}
	}

	fares.Sort(result.Records)
	s.finishRun(runID, result)

	s.logger.Info("Scan finished",
		logger.Int("windows", result.Windows),
		logger.Int("failed_windows", result.FailedWindows),
		logger.Int("records", len(result.Records)),
	)
	return result, nil
}

// scanWindow searches one window and returns its stamped records, or an
// error and no records at all.
func (s *Scanner) scanWindow(ctx context.Context, token string, opts Options, window weekend.Window) ([]fares.Record, error) {
	start := s.now()
	payload, err := s.client.SearchOffers(ctx, token, amadeus.SearchRequest{
		Origin:      opts.Origin,
		Destination: opts.Destination,
		DepartDate:  window.Depart,
		ReturnDate:  window.Return,
		Adults:      opts.Adults,
		Currency:    opts.Currency,
		TravelClass: opts.Cabin,
		NonStop:     opts.NonStop,
	})
	if s.metrics != nil {
		s.metrics.SearchDuration.Observe(s.now().Sub(start).Seconds())
	}
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.Offers.Add(float64(len(payload.Data)))
	}

	records, err := offers.Extract(payload, s.config.CarrierCode, opts.NonStop)
	if err != nil {
		return nil, err
	}

	link := fares.BookingLink(s.config.BookingURLTemplate, opts.Origin, opts.Destination, window.Depart, window.Return)
	for i := range records {
		records[i].Origin = opts.Origin
		records[i].Destination = opts.Destination
		records[i].DepartDate = window.Depart
		records[i].ReturnDate = window.Return
		records[i].BookingLink = link
	}

	s.logger.Debug("Window scanned",
		logger.String("depart_date", window.Depart),
		logger.String("return_date", window.Return),
		logger.Int("offers", len(payload.Data)),
		logger.Int("records", len(records)),
	)
	return records, nil
}

func (s *Scanner) warnWindow(window weekend.Window, err error) {
	var httpErr *amadeus.HTTPError
	if errors.As(err, &httpErr) {
		s.observe(metrics.OutcomeHTTPError)
		s.logger.Warn("API error for window, skipping",
			logger.String("depart_date", window.Depart),
			logger.String("return_date", window.Return),
			logger.Int("status_code", httpErr.StatusCode),
			logger.Error(err),
		)
		return
	}

	s.observe(metrics.OutcomeUnexpected)
	s.logger.Warn("Unexpected error for window, skipping",
		logger.String("depart_date", window.Depart),
		logger.String("return_date", window.Return),
		logger.Error(err),
	)
}

func (s *Scanner) observe(outcome string) {
	if s.metrics != nil {
		s.metrics.Windows.WithLabelValues(outcome).Inc()
	}
}

func (s *Scanner) startRun(opts Options) int64 {
	if s.journal == nil {
		return 0
	}
	id, err := s.journal.StartRun(&sqlite.ScanRun{
		Origin:      opts.Origin,
		Destination: opts.Destination,
		Env:         opts.Env,
		Outfile:     opts.Outfile,
		Weeks:       len(opts.Windows),
		StartedAt:   s.now(),
	})
	if err != nil {
		s.logger.Warn("Failed to journal scan run", logger.Error(err))
		return 0
	}
	return id
}

func (s *Scanner) recordWindow(runID int64, window weekend.Window, status string, count int, windowErr error) {
	if s.journal == nil || runID == 0 {
		return
	}
	entry := &sqlite.ScanWindow{
		RunID:      runID,
		DepartDate: window.Depart,
		ReturnDate: window.Return,
		Status:     status,
		Offers:     count,
		CreatedAt:  s.now(),
	}
	if windowErr != nil {
		entry.Error = windowErr.Error()
	}
	if err := s.journal.RecordWindow(entry); err != nil {
		s.logger.Warn("Failed to journal window", logger.String("window", window.String()), logger.Error(err))
	}
}

func (s *Scanner) finishRun(runID int64, result *Result) {
	if s.metrics != nil {
		s.metrics.Records.Set(float64(len(result.Records)))
		s.metrics.LastSuccess.Set(float64(s.now().Unix()))
	}
	if s.journal == nil || runID == 0 {
		return
	}
	if err := s.journal.FinishRun(runID, len(result.Records), result.FailedWindows, s.now()); err != nil {
		s.logger.Warn("Failed to finish journaled run", logger.Error(err))
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("scan interrupted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
