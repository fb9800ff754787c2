package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"suumo-scraper/models"
	"suumo-scraper/storage"
)

func writeCSVFixture(t *testing.T, path string, listings []*models.Listing) {
	t.Helper()
	require.NoError(t, storage.NewCSVWriter(path).Write(listings))
}

func TestLoadMergesAndSortsByScrapeTime(t *testing.T) {
	dir := t.TempDir()

	early := fixtureListing("渋谷", "1K", 100000, 25, 3)
	early.ScrapedAt = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	mid := fixtureListing("渋谷", "1K", 110000, 28, 5)
	mid.ScrapedAt = time.Date(2024, 6, 2, 10, 0, 0, 0, time.UTC)
	late := fixtureListing("新宿", "1LDK", 150000, 40, 8)
	late.ScrapedAt = time.Date(2024, 6, 2, 11, 0, 0, 0, time.UTC)

	writeCSVFixture(t, filepath.Join(dir, "suumo_渋谷_20240602_110000.csv"), []*models.Listing{mid, late})
	writeCSVFixture(t, filepath.Join(dir, "suumo_渋谷_20240601_100000.csv"), []*models.Listing{early})

	loader := NewDatasetLoader(testLogger())
	listings, err := loader.Load(dir, false)
	require.NoError(t, err)
	require.Len(t, listings, 3)
	require.Equal(t, early.ScrapedAt, listings[0].ScrapedAt)
	require.Equal(t, late.ScrapedAt, listings[2].ScrapedAt)
}

func TestLoadLatestOnly(t *testing.T) {
	dir := t.TempDir()

	old := fixtureListing("渋谷", "1K", 100000, 25, 3)
	fresh := fixtureListing("新宿", "1LDK", 150000, 40, 8)

	oldPath := filepath.Join(dir, "suumo_渋谷_20240601_100000.csv")
	freshPath := filepath.Join(dir, "suumo_新宿_20240602_100000.csv")
	writeCSVFixture(t, oldPath, []*models.Listing{old})
	writeCSVFixture(t, freshPath, []*models.Listing{fresh})

	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(oldPath, past, past))

	loader := NewDatasetLoader(testLogger())
	listings, err := loader.Load(dir, true)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	require.Equal(t, "新宿", listings[0].SearchStation)
}

func TestLoadFallsBackToJSON(t *testing.T) {
	dir := t.TempDir()

	l := fixtureListing("渋谷", "1K", 100000, 25, 3)
	path := filepath.Join(dir, "suumo_渋谷_20240601_100000.json")
	require.NoError(t, storage.NewJSONWriter(path).Write([]*models.Listing{l}))

	loader := NewDatasetLoader(testLogger())
	listings, err := loader.Load(dir, false)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	require.NotNil(t, listings[0].RentPerSqm)
	require.Equal(t, 4000.0, *listings[0].RentPerSqm)
}

func TestLoadSkipsUnreadableFiles(t *testing.T) {
	dir := t.TempDir()

	good := fixtureListing("渋谷", "1K", 100000, 25, 3)
	writeCSVFixture(t, filepath.Join(dir, "suumo_渋谷_20240601_100000.csv"), []*models.Listing{good})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "suumo_broken_20240601_110000.csv"), []byte("not,a,dataset\n"), 0o644))

	loader := NewDatasetLoader(testLogger())
	listings, err := loader.Load(dir, false)
	require.NoError(t, err)
	require.Len(t, listings, 1)
}

func TestLoadFailsWhenNothingLoads(t *testing.T) {
	dir := t.TempDir()

	loader := NewDatasetLoader(testLogger())
	_, err := loader.Load(dir, false)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "suumo_broken_20240601_110000.csv"), []byte("not,a,dataset\n"), 0o644))
	_, err = loader.Load(dir, false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no valid data files")
}

func TestCleanDedupsTrimsAndNormalises(t *testing.T) {
	a := fixtureListing("渋谷", "1K", 50000, 20, 3)
	b := fixtureListing("渋谷", "ワンルーム", 50000, 18, 5)
	b.DetailURL = "https://suumo.jp/chintai/jnc_b/"
	c := fixtureListing("渋谷", "1K", 50000, 22, 8)
	c.DetailURL = "https://suumo.jp/chintai/jnc_c/"
	outlier := fixtureListing("渋谷", "3LDK", 9000000, 200, 1)
	dup := fixtureListing("渋谷", "1K", 50000, 20, 3)
	dup.DetailURL = a.DetailURL
	noRent := fixtureListing("渋谷", "1K", 0, 25, 4)
	noRent.RentNumeric = nil
	noRent.Derive()
	noRent.DetailURL = "https://suumo.jp/chintai/jnc_norent/"

	loader := NewDatasetLoader(testLogger())
	out := loader.Clean([]*models.Listing{a, b, c, outlier, dup, noRent})

	require.Len(t, out, 4)
	for _, l := range out {
		if l.RentNumeric != nil {
			require.Less(t, *l.RentNumeric, 9000000.0)
		}
	}
	require.Equal(t, "1R", out[1].Layout)
	require.Nil(t, out[3].RentNumeric)
}

func TestNormalizeLayout(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ワンルーム", "1R"},
		{"One Room", "1R"},
		{"STUDIO", "1R"},
		{"1K", "1K"},
		{"2LDK", "2LDK"},
		{"", ""},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, normalizeLayout(tt.in), "normalizeLayout(%q)", tt.in)
	}
}
