package marketdata_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/marketpulse/engine/internal/marketdata"
	"github.com/marketpulse/engine/pkg/errs"
	"github.com/marketpulse/engine/pkg/types"
)

func writeCSV(t *testing.T, root string, assetClass types.AssetClass, symbol string, interval types.Interval, rows []string) {
	t.Helper()
	dir := filepath.Join(root, string(assetClass))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	path := filepath.Join(dir, symbol+"_"+string(interval)+".csv")
	content := ""
	for _, r := range rows {
		content += r + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func sampleRows(n int) []string {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]string, n)
	for i := 0; i < n; i++ {
		ts := base.Add(time.Duration(i) * time.Hour).Format(time.RFC3339)
		rows[i] = ts + ",100,101,99,100.5,1000"
	}
	return rows
}

func TestFetchReadsAndCachesFrame(t *testing.T) {
	root := t.TempDir()
	writeCSV(t, root, types.AssetForex, "EURUSD", types.Interval1h, sampleRows(10))

	p := marketdata.New(nil, marketdata.Config{RootDir: root, CacheTTL: time.Minute})
	frame, err := p.Fetch(context.Background(), "EURUSD", types.AssetForex, types.Interval1h, types.Period1d)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if frame.Len() == 0 {
		t.Fatal("expected a non-empty frame")
	}

	// Remove the backing file; a cache hit should still succeed.
	if err := os.RemoveAll(filepath.Join(root, string(types.AssetForex))); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}
	if _, err := p.Fetch(context.Background(), "EURUSD", types.AssetForex, types.Interval1h, types.Period1d); err != nil {
		t.Fatalf("expected cached fetch to succeed, got %v", err)
	}
}

func TestFetchMissingFileReturnsDataUnavailable(t *testing.T) {
	root := t.TempDir()
	p := marketdata.New(nil, marketdata.Config{RootDir: root})

	_, err := p.Fetch(context.Background(), "GBPUSD", types.AssetForex, types.Interval1h, types.Period1d)
	if err == nil {
		t.Fatal("expected an error for a missing CSV file")
	}
	if !errs.Is(err, errs.KindDataUnavailable) {
		t.Fatalf("expected KindDataUnavailable, got %v", err)
	}
}

func TestFetchTrimsToRequestedPeriod(t *testing.T) {
	root := t.TempDir()
	writeCSV(t, root, types.AssetCrypto, "BTCUSD", types.Interval1h, sampleRows(100))

	p := marketdata.New(nil, marketdata.Config{RootDir: root})
	frame, err := p.Fetch(context.Background(), "BTCUSD", types.AssetCrypto, types.Interval1h, types.Period1d)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if frame.Len() != 24 {
		t.Fatalf("expected 24 bars for a 1d period at 1h interval, got %d", frame.Len())
	}
}
