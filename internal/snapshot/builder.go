// Package snapshot precomputes the 366-row daily_statistics table: one row
// per calendar day of the year, Feb 29 included, each summarizing a sliding
// window over every year of a station's history.
package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/jihsin/auspicious/internal/analytics"
	"github.com/jihsin/auspicious/internal/metrics"
	"github.com/jihsin/auspicious/internal/models"
	"github.com/jihsin/auspicious/internal/store"
)

// WindowRadius is the sliding window half-width used for every snapshot
// row. Three days either side smooths single-day noise without blurring
// seasonal transitions.
const WindowRadius = 3

// MinYears is the history depth below which a snapshot is refused. Thinner
// records produce percentages that read as precise but mean nothing.
const MinYears = 10

// InsufficientDataError reports a station whose record is too shallow to
// snapshot.
type InsufficientDataError struct {
	StationID string
	Years     int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("station %s has %d years of data, need at least %d", e.StationID, e.Years, MinYears)
}

type Builder struct {
	store   *store.Store
	workers int
}

func NewBuilder(s *store.Store, workers int) *Builder {
	if workers < 1 {
		workers = 4
	}
	return &Builder{store: s, workers: workers}
}

// Run computes and persists the full 366-day snapshot for one station. The
// whole batch lands in a single transaction, so a rerun replaces the
// previous snapshot rather than stacking on top of it. Days that fail to
// compute are logged and skipped; the batch carries on.
func (b *Builder) Run(ctx context.Context, stationID string) error {
	started := time.Now()

	observations, err := b.store.GetAllObservations(stationID)
	if err != nil {
		metrics.SnapshotRunsTotal.WithLabelValues(stationID, "error").Inc()
		return fmt.Errorf("load observations for %s: %w", stationID, err)
	}

	years := map[int]bool{}
	startYear, endYear := 0, 0
	for _, obs := range observations {
		y := obs.ObservedDate.Year()
		years[y] = true
		if startYear == 0 || y < startYear {
			startYear = y
		}
		if y > endYear {
			endYear = y
		}
	}
	if len(years) < MinYears {
		metrics.SnapshotRunsTotal.WithLabelValues(stationID, "insufficient_data").Inc()
		return &InsufficientDataError{StationID: stationID, Years: len(years)}
	}

	log.Printf("snapshot: station %s, %d observations over %d-%d", stationID, len(observations), startYear, endYear)

	analyzer := analytics.NewAnalyzer(observations)
	computedAt := time.Now().UTC()
	yearsAnalyzed := endYear - startYear + 1

	type job struct{ month, day int }
	jobs := make(chan job)
	results := make(chan models.DailyStatistics, 366)

	var wg sync.WaitGroup
	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				row, err := buildRow(analyzer, stationID, j.month, j.day, yearsAnalyzed, startYear, endYear, computedAt)
				if err != nil {
					log.Printf("snapshot: skip %02d-%02d: %v", j.month, j.day, err)
					continue
				}
				results <- row
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, d := range calendarDays() {
			select {
			case jobs <- job{month: d[0], day: d[1]}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var rows []models.DailyStatistics
	for row := range results {
		rows = append(rows, row)
	}
	if err := ctx.Err(); err != nil {
		metrics.SnapshotRunsTotal.WithLabelValues(stationID, "canceled").Inc()
		return err
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].MonthDay < rows[j].MonthDay })

	if err := b.store.ReplaceDailyStatistics(stationID, rows); err != nil {
		metrics.SnapshotRunsTotal.WithLabelValues(stationID, "error").Inc()
		return fmt.Errorf("persist snapshot for %s: %w", stationID, err)
	}

	metrics.SnapshotRunsTotal.WithLabelValues(stationID, "ok").Inc()
	metrics.SnapshotDuration.WithLabelValues(stationID).Observe(time.Since(started).Seconds())
	log.Printf("snapshot: station %s, %d rows in %s", stationID, len(rows), time.Since(started).Round(time.Millisecond))
	return nil
}

func buildRow(a *analytics.Analyzer, stationID string, month, day, yearsAnalyzed, startYear, endYear int, computedAt time.Time) (models.DailyStatistics, error) {
	stats, err := a.DateRangeStats(month, day, WindowRadius)
	if err != nil {
		return models.DailyStatistics{}, err
	}

	row := models.DailyStatistics{
		StationID:     stationID,
		MonthDay:      fmt.Sprintf("%02d-%02d", month, day),
		YearsAnalyzed: sql.NullInt64{Int64: int64(yearsAnalyzed), Valid: true},
		StartYear:     sql.NullInt64{Int64: int64(startYear), Valid: true},
		EndYear:       sql.NullInt64{Int64: int64(endYear), Valid: true},
		ComputedAt:    computedAt,

		TempAvgMean:   nullable(stats.Temperature.Mean),
		TempAvgMedian: nullable(stats.Temperature.Median),
		TempAvgStddev: nullable(stats.Temperature.StdDev),
		TempMaxMean:   nullable(stats.TempMax.Mean),
		TempMaxRecord: nullable(stats.TempMax.Max),
		TempMinMean:   nullable(stats.TempMin.Mean),
		TempMinRecord: nullable(stats.TempMin.Min),
	}

	if stats.Precip.TotalDays > 0 {
		row.PrecipProbability = nullable(stats.Precip.Probability)
		row.PrecipAvgWhenRain = nullable(stats.Precip.MeanRainDayMM)
		row.PrecipHeavyProb = nullable(stats.Precip.HeavyRainProbability)
		row.PrecipMaxRecord = nullable(stats.Precip.MaxRecordedMM)
	}
	if stats.Tendency.TotalValidDays > 0 {
		row.TendencySunny = nullable(stats.Tendency.Sunny)
		row.TendencyCloudy = nullable(stats.Tendency.Cloudy)
		row.TendencyRainy = nullable(stats.Tendency.Rainy)
	}

	return row, nil
}

// nullable maps the NaN sentinel from empty samples to SQL NULL.
func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// calendarDays enumerates all 366 month-day pairs of a leap year.
func calendarDays() [][2]int {
	lengths := [12]int{31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
	var days [][2]int
	for month := 1; month <= 12; month++ {
		for day := 1; day <= lengths[month-1]; day++ {
			days = append(days, [2]int{month, day})
		}
	}
	return days
}
