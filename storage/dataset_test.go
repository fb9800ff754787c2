package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultBasename(t *testing.T) {
	at := time.Date(2025, 1, 17, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		stations []string
		want     string
	}{
		{[]string{"渋谷"}, "suumo_渋谷_20250117_143000"},
		{[]string{"渋谷", "新宿"}, "suumo_渋谷-新宿_20250117_143000"},
		{[]string{"渋谷", "新宿", "池袋"}, "suumo_渋谷-新宿-池袋_20250117_143000"},
		{[]string{"渋谷", "新宿", "池袋", "上野", "東京"}, "suumo_渋谷-新宿-池袋-etc5_20250117_143000"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, DefaultBasename(tt.stations, at))
	}
}

func TestFindDatasets(t *testing.T) {
	dir := t.TempDir()
	older := filepath.Join(dir, "suumo_渋谷_20240601_100000.csv")
	newer := filepath.Join(dir, "suumo_新宿_20240602_100000.csv")

	require.NoError(t, os.WriteFile(older, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(newer, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(older, past, past))

	all, err := FindDatasets(dir, "suumo_*.csv", false)
	require.NoError(t, err)
	require.Len(t, all, 2)

	latest, err := FindDatasets(dir, "suumo_*.csv", true)
	require.NoError(t, err)
	require.Equal(t, []string{newer}, latest)
}

func TestFindDatasetsNoMatches(t *testing.T) {
	_, err := FindDatasets(t.TempDir(), "suumo_*.csv", false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no files found")
}
