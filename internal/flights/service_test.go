package flights

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yegors/weekend-fares/internal/storage/csvfile"
	"github.com/yegors/weekend-fares/pkg/logger"
)

func TestSearchReloadsEveryCall(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flights.csv")
	service := NewService(path, nil, logger.NewNop())

	_, err := service.Search(context.Background(), DefaultQuery())
	require.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, csvfile.Write(path, sampleRecords()[:2]))
	page, err := service.Search(context.Background(), DefaultQuery())
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)

	require.NoError(t, csvfile.Write(path, sampleRecords()))
	page, err = service.Search(context.Background(), DefaultQuery())
	require.NoError(t, err)
	require.Equal(t, 5, page.Total)
}

func TestOpenMissing(t *testing.T) {
	service := NewService(filepath.Join(t.TempDir(), "missing.csv"), nil, logger.NewNop())
	_, err := service.Open()
	require.True(t, errors.Is(err, ErrNotFound))
	require.Contains(t, err.Error(), "missing.csv")
}
