package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"suumo-scraper/models"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func sampleListing() *models.Listing {
	l := &models.Listing{
		BuildingTitle:   "グランドメゾン渋谷",
		Address:         "東京都渋谷区神南１",
		Access:          "ＪＲ山手線/渋谷駅 歩5分",
		BuildingAge:     iptr(8),
		RentNumeric:     fptr(85000),
		Layout:          "1K",
		AreaNumeric:     fptr(25.5),
		SearchStation:   "渋谷",
		TargetStations:  []string{"渋谷", "新宿"},
		DetailURL:       "https://suumo.jp/chintai/jnc_000012345/",
		ScrapedAt:       time.Date(2024, 6, 1, 12, 30, 45, 123456789, time.UTC),
		Floor:           "3階",
		AdminFeeNumeric: fptr(5000),
		DepositKeyMoney: "8.5万円 / 8.5万円",
	}
	l.Derive()
	return l
}

func minimalListing() *models.Listing {
	l := &models.Listing{
		BuildingTitle: "コーポ神南",
		Layout:        "ワンルーム",
		AreaNumeric:   fptr(18),
		SearchStation: "渋谷",
		DetailURL:     "https://suumo.jp/chintai/jnc_000012346/",
		ScrapedAt:     time.Date(2024, 6, 1, 12, 31, 0, 0, time.UTC),
	}
	l.Derive()
	return l
}

func TestCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suumo_渋谷_20240601_123045.csv")
	original := []*models.Listing{sampleListing(), minimalListing()}

	require.NoError(t, NewCSVWriter(path).Write(original))

	loaded, err := ReadCSVFile(path)
	require.NoError(t, err)
	require.Equal(t, original, loaded)
}

func TestCSVHeaderMatchesColumnOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suumo_out.csv")
	require.NoError(t, NewCSVWriter(path).Write(nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 1)
	require.Equal(t, strings.Join(CSVColumns, ","), lines[0])
}

func TestCSVWriteReplacesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suumo_out.csv")
	w := NewCSVWriter(path)

	require.NoError(t, w.Write([]*models.Listing{sampleListing(), minimalListing()}))
	require.NoError(t, w.Write([]*models.Listing{minimalListing()}))

	loaded, err := ReadCSVFile(path)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, "コーポ神南", loaded[0].BuildingTitle)
}

func TestCSVWriteLeavesNoTempFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suumo_out.csv")
	require.NoError(t, NewCSVWriter(path).Write([]*models.Listing{sampleListing()}))

	_, err := os.Stat(path + ".tmp")
	require.True(t, os.IsNotExist(err))
}

func TestCSVWriteCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "runs", "suumo_out.csv")
	require.NoError(t, NewCSVWriter(path).Write([]*models.Listing{sampleListing()}))

	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestCSVWriteReportsWriteError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	// The parent "directory" is a regular file, so the write cannot proceed.
	err := NewCSVWriter(filepath.Join(blocker, "suumo_out.csv")).Write(nil)
	require.Error(t, err)

	var werr *WriteError
	require.True(t, errors.As(err, &werr))
	require.Equal(t, "csv", werr.Format)
}

func TestReadCSVFileRejectsColumnMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suumo_bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b,c\n1,2,3\n"), 0o644))

	_, err := ReadCSVFile(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "columns")
}

func TestReadCSVFileReportsBadCell(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suumo_渋谷_20240601_123045.csv")
	require.NoError(t, NewCSVWriter(path).Write([]*models.Listing{sampleListing()}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	corrupted := strings.Replace(string(data), "85000", "eighty-five", 1)
	require.NoError(t, os.WriteFile(path, []byte(corrupted), 0o644))

	_, err = ReadCSVFile(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 2")
	require.Contains(t, err.Error(), "rent_numeric")
}
