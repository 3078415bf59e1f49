package flights

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/yegors/weekend-fares/internal/fares"
	"github.com/yegors/weekend-fares/internal/metrics"
	"github.com/yegors/weekend-fares/internal/storage/csvfile"
	"github.com/yegors/weekend-fares/pkg/logger"
)

// ErrNotFound is returned when the flights table doesn't exist
var ErrNotFound = errors.New("flights table not found")

// Service answers flight queries from the table on disk. Nothing is cached:
// every call reloads the file, so results always reflect the latest scan.
type Service struct {
	path    string
	metrics *metrics.APIMetrics
	logger  *logger.Logger
}

// NewService creates a new query service over the table at path
func NewService(path string, m *metrics.APIMetrics, log *logger.Logger) *Service {
	return &Service{
		path:    path,
		metrics: m,
		logger:  log.Named("flights"),
	}
}

// Path is the backing table's location
func (s *Service) Path() string {
	return s.path
}

// Search loads the table and returns the requested page
func (s *Service) Search(ctx context.Context, q Query) (*Page, error) {
	records, err := s.load()
	if err != nil {
		return nil, err
	}

	page := Apply(records, q)
	if s.metrics != nil {
		s.metrics.RowsServed.Add(float64(len(page.Rows)))
	}

	s.logger.Debug("Flights query served",
		logger.Int("table_rows", len(records)),
		logger.Int("total", page.Total),
		logger.Int("returned", len(page.Rows)),
	)
	return &page, nil
}

// Open returns the raw table for download
func (s *Service) Open() (*os.File, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: CSV not found at %s", ErrNotFound, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open flights table: %w", err)
	}
	return f, nil
}

func (s *Service) load() ([]fares.Record, error) {
	start := time.Now()
	records, err := csvfile.Read(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: CSV not found at %s", ErrNotFound, s.path)
	}
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.LoadSeconds.Observe(time.Since(start).Seconds())
	}
	return records, nil
}
