// Package marketdata provides a minimal, file-backed reference
// implementation of types.DataProvider. The engine treats its data provider
// as an injected black box (pkg/types/provider.go); CSVProvider exists so
// the engine is runnable end to end without a live exchange feed. Production
// deployments are expected to supply their own DataProvider backed by a real
// market-data source.
package marketdata

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/marketpulse/engine/pkg/errs"
	"github.com/marketpulse/engine/pkg/types"
	"go.uber.org/zap"
)

// Config configures a CSVProvider.
type Config struct {
	// RootDir holds one CSV file per (asset class, symbol, interval), at
	// <RootDir>/<asset_class>/<symbol>_<interval>.csv. Each row is
	// "timestamp,open,high,low,close,volume" with an RFC3339 timestamp.
	RootDir string
	// CacheTTL is how long a fetched Frame is reused before the backing file
	// is re-read. Zero selects the default of 30 seconds.
	CacheTTL time.Duration
}

func (c Config) withDefaults() Config {
	if c.CacheTTL == 0 {
		c.CacheTTL = 30 * time.Second
	}
	return c
}

type cacheEntry struct {
	frame     *types.Frame
	fetchedAt time.Time
}

// CSVProvider reads OHLCV history from flat CSV files on disk, caching
// parsed Frames in memory for a configurable TTL to avoid re-parsing on
// every scheduler tick.
type CSVProvider struct {
	logger *zap.Logger
	cfg    Config

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// New builds a CSVProvider rooted at cfg.RootDir.
func New(logger *zap.Logger, cfg Config) *CSVProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CSVProvider{
		logger: logger,
		cfg:    cfg.withDefaults(),
		cache:  make(map[string]cacheEntry),
	}
}

// Fetch implements types.DataProvider.
func (p *CSVProvider) Fetch(ctx context.Context, symbol string, assetClass types.AssetClass, interval types.Interval, period types.Period) (*types.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := cacheKey(symbol, assetClass, interval, period)
	if frame, ok := p.cached(key); ok {
		return frame, nil
	}

	bars, err := p.readBars(symbol, assetClass, interval)
	if err != nil {
		return nil, errs.Wrap(errs.KindDataUnavailable, fmt.Sprintf("fetch %s %s/%s", symbol, assetClass, interval), err)
	}

	bars = trimToPeriod(bars, interval, period)
	frame, err := types.NewFrame(symbol, interval, bars)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.cache[key] = cacheEntry{frame: frame, fetchedAt: time.Now()}
	p.mu.Unlock()

	return frame, nil
}

func cacheKey(symbol string, assetClass types.AssetClass, interval types.Interval, period types.Period) string {
	return fmt.Sprintf("%s|%s|%s|%s", assetClass, symbol, interval, period)
}

func (p *CSVProvider) cached(key string) (*types.Frame, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	entry, ok := p.cache[key]
	if !ok || time.Since(entry.fetchedAt) > p.cfg.CacheTTL {
		return nil, false
	}
	return entry.frame, true
}

func (p *CSVProvider) readBars(symbol string, assetClass types.AssetClass, interval types.Interval) ([]types.Bar, error) {
	path := filepath.Join(p.cfg.RootDir, string(assetClass), fmt.Sprintf("%s_%s.csv", symbol, interval))
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var bars []types.Bar
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		row := strings.TrimSpace(scanner.Text())
		if row == "" || strings.HasPrefix(row, "#") {
			continue
		}
		bar, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		bars = append(bars, bar)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: no bars", path)
	}
	return bars, nil
}

func parseRow(row string) (types.Bar, error) {
	fields := strings.Split(row, ",")
	if len(fields) != 6 {
		return types.Bar{}, fmt.Errorf("expected 6 fields, got %d", len(fields))
	}
	ts, err := time.Parse(time.RFC3339, strings.TrimSpace(fields[0]))
	if err != nil {
		return types.Bar{}, fmt.Errorf("timestamp: %w", err)
	}
	values := make([]float64, 5)
	for i, raw := range fields[1:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return types.Bar{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		values[i] = v
	}
	return types.Bar{Timestamp: ts, Open: values[0], High: values[1], Low: values[2], Close: values[3], Volume: values[4]}, nil
}

// barsPerPeriod approximates how many trailing bars satisfy a Period at a
// given Interval. It is deliberately coarse: callers needing exact trading
// calendars belong to a real provider, not this reference one.
func barsPerPeriod(interval types.Interval, period types.Period) int {
	intervalMinutes := map[types.Interval]float64{
		types.Interval1m: 1, types.Interval5m: 5, types.Interval15m: 15,
		types.Interval30m: 30, types.Interval1h: 60, types.Interval2h: 120,
		types.Interval4h: 240, types.Interval1d: 1440, types.Interval1wk: 10080,
		types.Interval1mo: 43200,
	}
	periodMinutes := map[types.Period]float64{
		types.Period1d: 1440, types.Period5d: 5 * 1440, types.Period7d: 7 * 1440,
		types.Period1wk: 7 * 1440, types.Period1mo: 30 * 1440, types.Period3mo: 90 * 1440,
		types.Period6mo: 182 * 1440, types.Period1y: 365 * 1440, types.Period2y: 2 * 365 * 1440,
		types.Period5y: 5 * 365 * 1440, types.PeriodMax: -1,
	}
	pm, ok := periodMinutes[period]
	if !ok || pm < 0 {
		return -1
	}
	im, ok := intervalMinutes[interval]
	if !ok || im <= 0 {
		return -1
	}
	n := int(pm / im)
	if n < 1 {
		return 1
	}
	return n
}

func trimToPeriod(bars []types.Bar, interval types.Interval, period types.Period) []types.Bar {
	n := barsPerPeriod(interval, period)
	if n < 0 || n >= len(bars) {
		return bars
	}
	return bars[len(bars)-n:]
}
