package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jihsin/auspicious/internal/models"
)

const dateLayout = "2006-01-02"

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Ping() error {
	return s.db.Ping()
}

func (s *Store) UpsertStation(st models.Station) error {
	_, err := s.db.Exec(`
		INSERT INTO stations (station_id, name, county, town, latitude, longitude, altitude, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(station_id) DO UPDATE SET
			name = excluded.name,
			county = excluded.county,
			town = excluded.town,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			altitude = excluded.altitude,
			active = excluded.active
	`, st.StationID, st.Name, st.County, st.Town, st.Latitude, st.Longitude, st.Altitude, st.Active)
	return err
}

func (s *Store) GetStation(stationID string) (*models.Station, error) {
	row := s.db.QueryRow(`SELECT station_id, name, county, town, latitude, longitude, altitude, active FROM stations WHERE station_id = ?`, stationID)
	var st models.Station
	err := row.Scan(&st.StationID, &st.Name, &st.County, &st.Town, &st.Latitude, &st.Longitude, &st.Altitude, &st.Active)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Store) GetActiveStations() ([]models.Station, error) {
	rows, err := s.db.Query(`SELECT station_id, name, county, town, latitude, longitude, altitude, active FROM stations WHERE active = TRUE ORDER BY station_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []models.Station
	for rows.Next() {
		var st models.Station
		if err := rows.Scan(&st.StationID, &st.Name, &st.County, &st.Town, &st.Latitude, &st.Longitude, &st.Altitude, &st.Active); err != nil {
			return nil, err
		}
		stations = append(stations, st)
	}
	return stations, rows.Err()
}

// StationWithMostData picks the station with the deepest daily history.
// Analysis endpoints default to it when no station is named.
func (s *Store) StationWithMostData() (string, error) {
	var stationID string
	err := s.db.QueryRow(`
		SELECT station_id FROM daily_observations
		GROUP BY station_id
		ORDER BY COUNT(id) DESC
		LIMIT 1
	`).Scan(&stationID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return stationID, err
}

func (s *Store) InsertObservation(obs models.DailyObservation) error {
	_, err := s.db.Exec(`
		INSERT INTO daily_observations (station_id, observed_date, temp_avg, temp_max, temp_min, precipitation, humidity_avg, wind_speed_avg, wind_speed_max, sunshine_hours, pressure_avg, global_rad_sum)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(station_id, observed_date) DO NOTHING
	`, obs.StationID, obs.ObservedDate.Format(dateLayout), obs.TempAvg, obs.TempMax, obs.TempMin, obs.Precipitation, obs.HumidityAvg, obs.WindSpeedAvg, obs.WindSpeedMax, obs.SunshineHours, obs.PressureAvg, obs.GlobalRadSum)
	return err
}

// ReplaceObservations swaps a station's entire daily history in one
// transaction. Historical loads arrive as a full export, so partial merges
// would only hide gaps in the source file.
func (s *Store) ReplaceObservations(stationID string, observations []models.DailyObservation) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin replace tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM daily_observations WHERE station_id = ?`, stationID); err != nil {
		return fmt.Errorf("clear observations for %s: %w", stationID, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO daily_observations (station_id, observed_date, temp_avg, temp_max, temp_min, precipitation, humidity_avg, wind_speed_avg, wind_speed_max, sunshine_hours, pressure_avg, global_rad_sum)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, obs := range observations {
		if _, err := stmt.Exec(stationID, obs.ObservedDate.Format(dateLayout), obs.TempAvg, obs.TempMax, obs.TempMin, obs.Precipitation, obs.HumidityAvg, obs.WindSpeedAvg, obs.WindSpeedMax, obs.SunshineHours, obs.PressureAvg, obs.GlobalRadSum); err != nil {
			return fmt.Errorf("insert observation %s: %w", obs.ObservedDate.Format(dateLayout), err)
		}
	}

	return tx.Commit()
}

func (s *Store) GetObservations(stationID string, start, end time.Time) ([]models.DailyObservation, error) {
	return s.queryObservations(`
		SELECT id, station_id, observed_date, temp_avg, temp_max, temp_min, precipitation, humidity_avg, wind_speed_avg, wind_speed_max, sunshine_hours, pressure_avg, global_rad_sum, created_at
		FROM daily_observations
		WHERE station_id = ? AND observed_date >= ? AND observed_date <= ?
		ORDER BY observed_date ASC
	`, stationID, start.Format(dateLayout), end.Format(dateLayout))
}

func (s *Store) GetAllObservations(stationID string) ([]models.DailyObservation, error) {
	return s.queryObservations(`
		SELECT id, station_id, observed_date, temp_avg, temp_max, temp_min, precipitation, humidity_avg, wind_speed_avg, wind_speed_max, sunshine_hours, pressure_avg, global_rad_sum, created_at
		FROM daily_observations
		WHERE station_id = ?
		ORDER BY observed_date ASC
	`, stationID)
}

// GetObservationsByMonthDay returns every observation for one calendar day
// across all years, Feb 29 included when monthDay is "02-29".
func (s *Store) GetObservationsByMonthDay(stationID, monthDay string) ([]models.DailyObservation, error) {
	return s.queryObservations(`
		SELECT id, station_id, observed_date, temp_avg, temp_max, temp_min, precipitation, humidity_avg, wind_speed_avg, wind_speed_max, sunshine_hours, pressure_avg, global_rad_sum, created_at
		FROM daily_observations
		WHERE station_id = ? AND SUBSTR(observed_date, 6, 5) = ?
		ORDER BY observed_date ASC
	`, stationID, monthDay)
}

func (s *Store) queryObservations(query string, args ...any) ([]models.DailyObservation, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var observations []models.DailyObservation
	for rows.Next() {
		var obs models.DailyObservation
		var dateStr string
		if err := rows.Scan(&obs.ID, &obs.StationID, &dateStr, &obs.TempAvg, &obs.TempMax, &obs.TempMin, &obs.Precipitation, &obs.HumidityAvg, &obs.WindSpeedAvg, &obs.WindSpeedMax, &obs.SunshineHours, &obs.PressureAvg, &obs.GlobalRadSum, &obs.CreatedAt); err != nil {
			return nil, err
		}
		date, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("parse observed date %q: %w", dateStr, err)
		}
		obs.ObservedDate = date
		observations = append(observations, obs)
	}
	return observations, rows.Err()
}

func (s *Store) CountObservations(stationID string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(id) FROM daily_observations WHERE station_id = ?`, stationID).Scan(&count)
	return count, err
}

// GetObservationYearRange returns the first and last year with any data for
// the station. Both are zero when the station has no history.
func (s *Store) GetObservationYearRange(stationID string) (int, int, error) {
	var minDate, maxDate sql.NullString
	err := s.db.QueryRow(`
		SELECT MIN(observed_date), MAX(observed_date)
		FROM daily_observations
		WHERE station_id = ?
	`, stationID).Scan(&minDate, &maxDate)
	if err != nil {
		return 0, 0, err
	}
	if !minDate.Valid || !maxDate.Valid {
		return 0, 0, nil
	}

	first, err := time.Parse(dateLayout, minDate.String)
	if err != nil {
		return 0, 0, fmt.Errorf("parse min observed date %q: %w", minDate.String, err)
	}
	last, err := time.Parse(dateLayout, maxDate.String)
	if err != nil {
		return 0, 0, fmt.Errorf("parse max observed date %q: %w", maxDate.String, err)
	}
	return first.Year(), last.Year(), nil
}

// ReplaceDailyStatistics swaps the station's whole 366-row snapshot in one
// transaction so readers never see a half-refreshed year.
func (s *Store) ReplaceDailyStatistics(stationID string, stats []models.DailyStatistics) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM daily_statistics WHERE station_id = ?`, stationID); err != nil {
		return fmt.Errorf("clear statistics for %s: %w", stationID, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO daily_statistics (station_id, month_day, years_analyzed, start_year, end_year,
			temp_avg_mean, temp_avg_median, temp_avg_stddev, temp_max_mean, temp_max_record,
			temp_min_mean, temp_min_record, precip_probability, precip_avg_when_rain,
			precip_heavy_prob, precip_max_record, tendency_sunny, tendency_cloudy, tendency_rainy, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range stats {
		if _, err := stmt.Exec(stationID, row.MonthDay, row.YearsAnalyzed, row.StartYear, row.EndYear,
			row.TempAvgMean, row.TempAvgMedian, row.TempAvgStddev, row.TempMaxMean, row.TempMaxRecord,
			row.TempMinMean, row.TempMinRecord, row.PrecipProbability, row.PrecipAvgWhenRain,
			row.PrecipHeavyProb, row.PrecipMaxRecord, row.TendencySunny, row.TendencyCloudy, row.TendencyRainy, row.ComputedAt); err != nil {
			return fmt.Errorf("insert statistics %s: %w", row.MonthDay, err)
		}
	}

	return tx.Commit()
}

func (s *Store) GetDailyStatistics(stationID, monthDay string) (*models.DailyStatistics, error) {
	row := s.db.QueryRow(`
		SELECT id, station_id, month_day, years_analyzed, start_year, end_year,
		       temp_avg_mean, temp_avg_median, temp_avg_stddev, temp_max_mean, temp_max_record,
		       temp_min_mean, temp_min_record, precip_probability, precip_avg_when_rain,
		       precip_heavy_prob, precip_max_record, tendency_sunny, tendency_cloudy, tendency_rainy, computed_at
		FROM daily_statistics
		WHERE station_id = ? AND month_day = ?
	`, stationID, monthDay)

	var st models.DailyStatistics
	err := row.Scan(&st.ID, &st.StationID, &st.MonthDay, &st.YearsAnalyzed, &st.StartYear, &st.EndYear,
		&st.TempAvgMean, &st.TempAvgMedian, &st.TempAvgStddev, &st.TempMaxMean, &st.TempMaxRecord,
		&st.TempMinMean, &st.TempMinRecord, &st.PrecipProbability, &st.PrecipAvgWhenRain,
		&st.PrecipHeavyProb, &st.PrecipMaxRecord, &st.TendencySunny, &st.TendencyCloudy, &st.TendencyRainy, &st.ComputedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Store) GetAllDailyStatistics(stationID string) ([]models.DailyStatistics, error) {
	rows, err := s.db.Query(`
		SELECT id, station_id, month_day, years_analyzed, start_year, end_year,
		       temp_avg_mean, temp_avg_median, temp_avg_stddev, temp_max_mean, temp_max_record,
		       temp_min_mean, temp_min_record, precip_probability, precip_avg_when_rain,
		       precip_heavy_prob, precip_max_record, tendency_sunny, tendency_cloudy, tendency_rainy, computed_at
		FROM daily_statistics
		WHERE station_id = ?
		ORDER BY month_day ASC
	`, stationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []models.DailyStatistics
	for rows.Next() {
		var st models.DailyStatistics
		if err := rows.Scan(&st.ID, &st.StationID, &st.MonthDay, &st.YearsAnalyzed, &st.StartYear, &st.EndYear,
			&st.TempAvgMean, &st.TempAvgMedian, &st.TempAvgStddev, &st.TempMaxMean, &st.TempMaxRecord,
			&st.TempMinMean, &st.TempMinRecord, &st.PrecipProbability, &st.PrecipAvgWhenRain,
			&st.PrecipHeavyProb, &st.PrecipMaxRecord, &st.TendencySunny, &st.TendencyCloudy, &st.TendencyRainy, &st.ComputedAt); err != nil {
			return nil, err
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

func (s *Store) CountDailyStatistics(stationID string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(id) FROM daily_statistics WHERE station_id = ?`, stationID).Scan(&count)
	return count, err
}
