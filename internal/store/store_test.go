package store

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jihsin/auspicious/internal/models"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := New(db)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func nf(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: true}
}

func ni(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: true}
}

func testObservation(stationID string, date time.Time) models.DailyObservation {
	return models.DailyObservation{
		StationID:     stationID,
		ObservedDate:  date,
		TempAvg:       nf(22.5),
		TempMax:       nf(27.0),
		TempMin:       nf(19.1),
		Precipitation: nf(3.2),
		HumidityAvg:   nf(78),
		SunshineHours: nf(4.5),
	}
}

func TestUpsertAndGetStation(t *testing.T) {
	store := setupTestStore(t)

	station := models.Station{
		StationID: "466920",
		Name:      "臺北",
		County:    "臺北市",
		Town:      "中正區",
		Latitude:  nf(25.0377),
		Longitude: nf(121.5149),
		Altitude:  nf(6.3),
		Active:    true,
	}

	if err := store.UpsertStation(station); err != nil {
		t.Fatalf("UpsertStation: %v", err)
	}

	stations, err := store.GetActiveStations()
	if err != nil {
		t.Fatalf("GetActiveStations: %v", err)
	}
	if len(stations) != 1 {
		t.Fatalf("len(stations) = %d, want 1", len(stations))
	}
	if stations[0].StationID != "466920" {
		t.Errorf("StationID = %q, want 466920", stations[0].StationID)
	}
	if stations[0].Name != "臺北" {
		t.Errorf("Name = %q", stations[0].Name)
	}

	got, err := store.GetStation("466920")
	if err != nil {
		t.Fatalf("GetStation: %v", err)
	}
	if got == nil || got.County != "臺北市" {
		t.Errorf("GetStation = %+v", got)
	}
	if !got.Latitude.Valid || got.Latitude.Float64 != 25.0377 {
		t.Errorf("Latitude = %+v", got.Latitude)
	}
	if !got.Longitude.Valid || got.Longitude.Float64 != 121.5149 {
		t.Errorf("Longitude = %+v", got.Longitude)
	}
}

func TestStationWithoutCoordinates(t *testing.T) {
	store := setupTestStore(t)

	// Some CWA stations publish no WGS84 coordinates; those must round-trip
	// as NULL, not as 0,0.
	station := models.Station{StationID: "C0A520", Name: "山區站", Active: true}
	if err := store.UpsertStation(station); err != nil {
		t.Fatalf("UpsertStation: %v", err)
	}

	got, err := store.GetStation("C0A520")
	if err != nil {
		t.Fatalf("GetStation: %v", err)
	}
	if got.Latitude.Valid || got.Longitude.Valid || got.Altitude.Valid {
		t.Errorf("coordinates should be NULL: %+v", got)
	}
}

func TestUpsertStation_Update(t *testing.T) {
	store := setupTestStore(t)

	station := models.Station{StationID: "466920", Name: "old name", Active: true}
	if err := store.UpsertStation(station); err != nil {
		t.Fatalf("UpsertStation: %v", err)
	}

	station.Name = "new name"
	station.Active = false
	if err := store.UpsertStation(station); err != nil {
		t.Fatalf("UpsertStation update: %v", err)
	}

	got, err := store.GetStation("466920")
	if err != nil {
		t.Fatalf("GetStation: %v", err)
	}
	if got.Name != "new name" || got.Active {
		t.Errorf("after update: %+v", got)
	}

	active, err := store.GetActiveStations()
	if err != nil {
		t.Fatalf("GetActiveStations: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("inactive station still listed: %+v", active)
	}
}

func TestInsertObservationIgnoresDuplicates(t *testing.T) {
	store := setupTestStore(t)

	date := time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC)
	obs := testObservation("466920", date)
	if err := store.InsertObservation(obs); err != nil {
		t.Fatalf("InsertObservation: %v", err)
	}
	if err := store.InsertObservation(obs); err != nil {
		t.Fatalf("InsertObservation duplicate: %v", err)
	}

	count, err := store.CountObservations("466920")
	if err != nil {
		t.Fatalf("CountObservations: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestReplaceObservations(t *testing.T) {
	store := setupTestStore(t)

	old := []models.DailyObservation{
		testObservation("466920", time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)),
		testObservation("466920", time.Date(2022, 1, 2, 0, 0, 0, 0, time.UTC)),
	}
	if err := store.ReplaceObservations("466920", old); err != nil {
		t.Fatalf("ReplaceObservations: %v", err)
	}

	fresh := []models.DailyObservation{
		testObservation("466920", time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)),
	}
	if err := store.ReplaceObservations("466920", fresh); err != nil {
		t.Fatalf("ReplaceObservations again: %v", err)
	}

	got, err := store.GetAllObservations("466920")
	if err != nil {
		t.Fatalf("GetAllObservations: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1 after replace", len(got))
	}
	if !got[0].ObservedDate.Equal(time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("ObservedDate = %v", got[0].ObservedDate)
	}

	// Other stations are untouched.
	if err := store.ReplaceObservations("467410", old); err != nil {
		t.Fatalf("ReplaceObservations other station: %v", err)
	}
	count, err := store.CountObservations("466920")
	if err != nil {
		t.Fatalf("CountObservations: %v", err)
	}
	if count != 1 {
		t.Errorf("first station count = %d after replacing another station", count)
	}
}

func TestGetObservationsRange(t *testing.T) {
	store := setupTestStore(t)

	var all []models.DailyObservation
	for d := 1; d <= 10; d++ {
		all = append(all, testObservation("466920", time.Date(2023, 7, d, 0, 0, 0, 0, time.UTC)))
	}
	if err := store.ReplaceObservations("466920", all); err != nil {
		t.Fatalf("ReplaceObservations: %v", err)
	}

	got, err := store.GetObservations("466920",
		time.Date(2023, 7, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 7, 6, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("GetObservations: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4", len(got))
	}
	if got[0].ObservedDate.Day() != 3 || got[3].ObservedDate.Day() != 6 {
		t.Errorf("range = %v .. %v", got[0].ObservedDate, got[3].ObservedDate)
	}
	if !got[0].TempAvg.Valid || got[0].TempAvg.Float64 != 22.5 {
		t.Errorf("TempAvg = %+v", got[0].TempAvg)
	}
}

func TestGetObservationsByMonthDay(t *testing.T) {
	store := setupTestStore(t)

	var all []models.DailyObservation
	for year := 2019; year <= 2023; year++ {
		all = append(all, testObservation("466920", time.Date(year, 6, 15, 0, 0, 0, 0, time.UTC)))
		all = append(all, testObservation("466920", time.Date(year, 6, 16, 0, 0, 0, 0, time.UTC)))
	}
	if err := store.ReplaceObservations("466920", all); err != nil {
		t.Fatalf("ReplaceObservations: %v", err)
	}

	got, err := store.GetObservationsByMonthDay("466920", "06-15")
	if err != nil {
		t.Fatalf("GetObservationsByMonthDay: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("len = %d, want 5", len(got))
	}
	for _, obs := range got {
		if obs.ObservedDate.Month() != 6 || obs.ObservedDate.Day() != 15 {
			t.Errorf("unexpected date %v", obs.ObservedDate)
		}
	}
}

func TestGetObservationYearRange(t *testing.T) {
	store := setupTestStore(t)

	first, last, err := store.GetObservationYearRange("466920")
	if err != nil {
		t.Fatalf("GetObservationYearRange empty: %v", err)
	}
	if first != 0 || last != 0 {
		t.Errorf("empty range = %d-%d, want 0-0", first, last)
	}

	obs := []models.DailyObservation{
		testObservation("466920", time.Date(1990, 3, 1, 0, 0, 0, 0, time.UTC)),
		testObservation("466920", time.Date(2023, 11, 30, 0, 0, 0, 0, time.UTC)),
	}
	if err := store.ReplaceObservations("466920", obs); err != nil {
		t.Fatalf("ReplaceObservations: %v", err)
	}

	first, last, err = store.GetObservationYearRange("466920")
	if err != nil {
		t.Fatalf("GetObservationYearRange: %v", err)
	}
	if first != 1990 || last != 2023 {
		t.Errorf("range = %d-%d, want 1990-2023", first, last)
	}
}

func TestStationWithMostData(t *testing.T) {
	store := setupTestStore(t)

	got, err := store.StationWithMostData()
	if err != nil {
		t.Fatalf("StationWithMostData empty: %v", err)
	}
	if got != "" {
		t.Errorf("empty db returned %q", got)
	}

	small := []models.DailyObservation{
		testObservation("467410", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)),
	}
	var big []models.DailyObservation
	for d := 1; d <= 5; d++ {
		big = append(big, testObservation("466920", time.Date(2023, 1, d, 0, 0, 0, 0, time.UTC)))
	}
	if err := store.ReplaceObservations("467410", small); err != nil {
		t.Fatalf("ReplaceObservations: %v", err)
	}
	if err := store.ReplaceObservations("466920", big); err != nil {
		t.Fatalf("ReplaceObservations: %v", err)
	}

	got, err = store.StationWithMostData()
	if err != nil {
		t.Fatalf("StationWithMostData: %v", err)
	}
	if got != "466920" {
		t.Errorf("StationWithMostData = %q, want 466920", got)
	}
}

func TestReplaceDailyStatisticsIdempotent(t *testing.T) {
	store := setupTestStore(t)

	computedAt := time.Date(2024, 1, 15, 3, 0, 0, 0, time.UTC)
	stats := []models.DailyStatistics{
		{
			StationID:         "466920",
			MonthDay:          "06-15",
			YearsAnalyzed:     ni(30),
			StartYear:         ni(1994),
			EndYear:           ni(2023),
			TempAvgMean:       nf(27.8),
			TempAvgMedian:     nf(28.0),
			TempAvgStddev:     nf(1.4),
			TempMaxMean:       nf(32.1),
			TempMaxRecord:     nf(37.2),
			TempMinMean:       nf(24.9),
			TempMinRecord:     nf(20.6),
			PrecipProbability: nf(0.42),
			PrecipAvgWhenRain: nf(11.3),
			PrecipHeavyProb:   nf(0.05),
			PrecipMaxRecord:   nf(182.0),
			TendencySunny:     nf(0.3),
			TendencyCloudy:    nf(0.3),
			TendencyRainy:     nf(0.4),
			ComputedAt:        computedAt,
		},
		{
			StationID:  "466920",
			MonthDay:   "06-16",
			ComputedAt: computedAt,
		},
	}

	if err := store.ReplaceDailyStatistics("466920", stats); err != nil {
		t.Fatalf("ReplaceDailyStatistics: %v", err)
	}
	// Second run replaces rather than duplicates.
	if err := store.ReplaceDailyStatistics("466920", stats); err != nil {
		t.Fatalf("ReplaceDailyStatistics rerun: %v", err)
	}

	count, err := store.CountDailyStatistics("466920")
	if err != nil {
		t.Fatalf("CountDailyStatistics: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}

	got, err := store.GetDailyStatistics("466920", "06-15")
	if err != nil {
		t.Fatalf("GetDailyStatistics: %v", err)
	}
	if got == nil {
		t.Fatal("GetDailyStatistics returned nil")
	}
	if !got.TempAvgMean.Valid || got.TempAvgMean.Float64 != 27.8 {
		t.Errorf("TempAvgMean = %+v", got.TempAvgMean)
	}
	if got.YearsAnalyzed.Int64 != 30 {
		t.Errorf("YearsAnalyzed = %+v", got.YearsAnalyzed)
	}

	missing, err := store.GetDailyStatistics("466920", "12-25")
	if err != nil {
		t.Fatalf("GetDailyStatistics missing: %v", err)
	}
	if missing != nil {
		t.Errorf("missing day returned %+v", missing)
	}

	all, err := store.GetAllDailyStatistics("466920")
	if err != nil {
		t.Fatalf("GetAllDailyStatistics: %v", err)
	}
	if len(all) != 2 || all[0].MonthDay != "06-15" {
		t.Errorf("GetAllDailyStatistics = %d rows, first %q", len(all), all[0].MonthDay)
	}
}

func TestMigrationVersion(t *testing.T) {
	store := setupTestStore(t)

	version, err := store.MigrationVersion()
	if err != nil {
		t.Fatalf("MigrationVersion: %v", err)
	}
	if version != migrations[len(migrations)-1].Version {
		t.Errorf("version = %d, want %d", version, migrations[len(migrations)-1].Version)
	}
}
