package ingest

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jihsin/auspicious/internal/metrics"
	"github.com/jihsin/auspicious/internal/models"
	"github.com/jihsin/auspicious/internal/store"
)

// CWA climate CSV exports mark missing or suspect values with these
// sentinels rather than leaving the cell empty.
var missingMarkers = map[string]bool{
	"":    true,
	"--":  true,
	"...": true,
	"/":   true,
	"X":   true,
	"x":   true,
}

// ParseHistoryCSV reads a daily-climate CSV export into observations for
// one station. The first row must be a header naming a subset of the known
// columns; observed_date is required. Rows with an unparseable date are
// skipped with a log line rather than aborting the whole file.
func ParseHistoryCSV(r io.Reader, stationID string) ([]models.DailyObservation, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := map[string]int{}
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	dateCol, ok := index["observed_date"]
	if !ok {
		return nil, fmt.Errorf("header missing observed_date column (got %v)", header)
	}

	var observations []models.DailyObservation
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		date, err := time.Parse("2006-01-02", strings.TrimSpace(record[dateCol]))
		if err != nil {
			log.Printf("ingest: line %d: skip bad date %q", line, record[dateCol])
			continue
		}

		obs := models.DailyObservation{
			StationID:    stationID,
			ObservedDate: date,
		}
		obs.TempAvg = parseCell(record, index, "temp_avg")
		obs.TempMax = parseCell(record, index, "temp_max")
		obs.TempMin = parseCell(record, index, "temp_min")
		obs.Precipitation = parseCell(record, index, "precipitation")
		obs.HumidityAvg = parseCell(record, index, "humidity_avg")
		obs.WindSpeedAvg = parseCell(record, index, "wind_speed_avg")
		obs.WindSpeedMax = parseCell(record, index, "wind_speed_max")
		obs.SunshineHours = parseCell(record, index, "sunshine_hours")
		obs.PressureAvg = parseCell(record, index, "pressure_avg")
		obs.GlobalRadSum = parseCell(record, index, "global_rad_sum")

		observations = append(observations, obs)
	}

	return observations, nil
}

// parseCell resolves one named column, treating sentinel markers as NULL
// and the trace-rain marker "T" as 0.0 mm.
func parseCell(record []string, index map[string]int, column string) sql.NullFloat64 {
	i, ok := index[column]
	if !ok || i >= len(record) {
		return sql.NullFloat64{}
	}
	cell := strings.TrimSpace(record[i])
	if missingMarkers[cell] {
		return sql.NullFloat64{}
	}
	if cell == "T" || cell == "t" {
		return sql.NullFloat64{Float64: 0, Valid: true}
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// LoadHistoryFile parses a CSV export and replaces the station's
// observations with its contents. Flagged rows are logged but still
// stored; the flags catch sensor glitches, not fatal corruption.
func LoadHistoryFile(path, stationID string, s *store.Store) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	observations, err := ParseHistoryCSV(f, stationID)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(observations) == 0 {
		return 0, fmt.Errorf("%s: no rows parsed", path)
	}

	flagged := 0
	for i := range observations {
		if flags := ValidateDaily(&observations[i]); len(flags) > 0 {
			flagged++
			log.Printf("ingest: %s %s flagged: %v",
				stationID, observations[i].ObservedDate.Format("2006-01-02"), flags)
		}
	}

	if err := s.ReplaceObservations(stationID, observations); err != nil {
		return 0, fmt.Errorf("store observations: %w", err)
	}

	metrics.ObservationsLoaded.WithLabelValues(stationID).Add(float64(len(observations)))
	log.Printf("ingest: loaded %d observations for %s (%d flagged)", len(observations), stationID, flagged)
	return len(observations), nil
}
