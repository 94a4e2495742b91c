package store

import (
	"database/sql"
	"fmt"
	"log"
	"time"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "Initial schema",
		SQL: `
CREATE TABLE IF NOT EXISTS stations (
    station_id TEXT PRIMARY KEY,
    name TEXT,
    county TEXT,
    town TEXT,
    latitude REAL,
    longitude REAL,
    altitude REAL,
    active BOOLEAN DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS daily_observations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    station_id TEXT NOT NULL,
    observed_date DATE NOT NULL,
    temp_avg REAL,
    temp_max REAL,
    temp_min REAL,
    precipitation REAL,
    humidity_avg REAL,
    wind_speed_avg REAL,
    wind_speed_max REAL,
    sunshine_hours REAL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(station_id, observed_date)
);

CREATE INDEX IF NOT EXISTS idx_daily_obs_station_date ON daily_observations(station_id, observed_date);
`,
	},
	{
		Version:     2,
		Description: "Add pressure and radiation columns from the extended CWA export",
		SQL: `
ALTER TABLE daily_observations ADD COLUMN pressure_avg REAL;
ALTER TABLE daily_observations ADD COLUMN global_rad_sum REAL;
`,
	},
	{
		Version:     3,
		Description: "Add daily_statistics snapshot table",
		SQL: `
CREATE TABLE IF NOT EXISTS daily_statistics (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    station_id TEXT NOT NULL,
    month_day TEXT NOT NULL,
    years_analyzed INTEGER,
    start_year INTEGER,
    end_year INTEGER,
    temp_avg_mean REAL,
    temp_avg_median REAL,
    temp_avg_stddev REAL,
    temp_max_mean REAL,
    temp_max_record REAL,
    temp_min_mean REAL,
    temp_min_record REAL,
    precip_probability REAL,
    precip_avg_when_rain REAL,
    precip_heavy_prob REAL,
    precip_max_record REAL,
    tendency_sunny REAL,
    tendency_cloudy REAL,
    tendency_rainy REAL,
    computed_at DATETIME,
    UNIQUE(station_id, month_day)
);

CREATE INDEX IF NOT EXISTS idx_daily_stats_station ON daily_statistics(station_id);
`,
	},
	{
		Version:     4,
		Description: "Index observations by calendar day for window queries",
		SQL: `
CREATE INDEX IF NOT EXISTS idx_daily_obs_month_day ON daily_observations(station_id, SUBSTR(observed_date, 6, 5));
`,
	},
}

func (s *Store) Migrate() error {
	if err := s.ensureMigrationsTable(); err != nil {
		return fmt.Errorf("ensure migrations table: %w", err)
	}

	applied, err := s.getAppliedMigrations()
	if err != nil {
		return fmt.Errorf("get applied migrations: %w", err)
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}

		log.Printf("migrations: applying %d - %s", m.Version, m.Description)

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin tx for migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("execute migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)",
			m.Version, m.Description, time.Now().UTC(),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}

		log.Printf("migrations: completed %d", m.Version)
	}

	return nil
}

func (s *Store) ensureMigrationsTable() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT,
			applied_at DATETIME
		)
	`)
	return err
}

func (s *Store) getAppliedMigrations() (map[int]bool, error) {
	rows, err := s.db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func (s *Store) MigrationVersion() (int, error) {
	var version sql.NullInt64
	err := s.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, err
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}
