package models

import (
	"database/sql"
	"time"
)

type Station struct {
	StationID string
	Name      string
	County    string
	Town      string
	Latitude  sql.NullFloat64
	Longitude sql.NullFloat64
	Altitude  sql.NullFloat64
	Active    bool
}

// DailyObservation is one day of aggregated weather for one station.
// Rows are immutable once loaded; a station's history is only ever
// replaced wholesale, never patched in place. A precipitation of 0
// and "no reading" both arrive as NULL-or-zero from upstream and are
// not distinguished here.
type DailyObservation struct {
	ID            int64
	StationID     string
	ObservedDate  time.Time
	TempAvg       sql.NullFloat64
	TempMax       sql.NullFloat64
	TempMin       sql.NullFloat64
	Precipitation sql.NullFloat64
	HumidityAvg   sql.NullFloat64
	WindSpeedAvg  sql.NullFloat64
	WindSpeedMax  sql.NullFloat64
	SunshineHours sql.NullFloat64
	PressureAvg   sql.NullFloat64
	GlobalRadSum  sql.NullFloat64
	CreatedAt     time.Time
}

// DailyStatistics is the precomputed per-calendar-day snapshot for one
// station: one row per (station_id, month_day), 366 days including 02-29,
// fully replaced by the snapshot batch and read-only everywhere else.
type DailyStatistics struct {
	ID        int64
	StationID string
	MonthDay  string // "MM-DD"

	YearsAnalyzed sql.NullInt64
	StartYear     sql.NullInt64
	EndYear       sql.NullInt64

	TempAvgMean   sql.NullFloat64
	TempAvgMedian sql.NullFloat64
	TempAvgStddev sql.NullFloat64
	TempMaxMean   sql.NullFloat64
	TempMaxRecord sql.NullFloat64
	TempMinMean   sql.NullFloat64
	TempMinRecord sql.NullFloat64

	PrecipProbability sql.NullFloat64
	PrecipAvgWhenRain sql.NullFloat64
	PrecipHeavyProb   sql.NullFloat64
	PrecipMaxRecord   sql.NullFloat64

	TendencySunny  sql.NullFloat64
	TendencyCloudy sql.NullFloat64
	TendencyRainy  sql.NullFloat64

	ComputedAt time.Time
}
