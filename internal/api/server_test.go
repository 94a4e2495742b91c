package api_test

import (
	"database/sql"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jihsin/auspicious/internal/api"
	"github.com/jihsin/auspicious/internal/models"
	"github.com/jihsin/auspicious/internal/store"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	s := store.New(db)
	if err := s.Migrate(); err != nil {
		t.Fatal(err)
	}
	return s
}

func nf(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: true}
}

// seedJanuary loads a decade of identical January observations so the
// date-range endpoints have something deterministic to chew on.
func seedJanuary(t *testing.T, s *store.Store, stationID string) {
	t.Helper()
	var observations []models.DailyObservation
	for year := 2011; year <= 2020; year++ {
		for day := 1; day <= 31; day++ {
			observations = append(observations, models.DailyObservation{
				StationID:     stationID,
				ObservedDate:  time.Date(year, 1, day, 0, 0, 0, 0, time.UTC),
				TempAvg:       nf(16.0),
				TempMax:       nf(20.0),
				TempMin:       nf(13.0),
				Precipitation: nf(0),
				SunshineHours: nf(5.0),
				HumidityAvg:   nf(75),
			})
		}
	}
	if err := s.ReplaceObservations(stationID, observations); err != nil {
		t.Fatal(err)
	}
}

func get(t *testing.T, srv *api.Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	srv := api.NewServer(s, "8080")

	w := get(t, srv, "/health")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("expected ok status, got %s", w.Body.String())
	}
}

func TestStationsEndpoint(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	s.UpsertStation(models.Station{
		StationID: "466920",
		Name:      "Taipei",
		County:    "Taipei City",
		Latitude:  nf(25.0394),
		Active:    true,
	})
	srv := api.NewServer(s, "8080")

	w := get(t, srv, "/api/v1/stations")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var stations []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &stations); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(stations) != 1 {
		t.Fatalf("got %d stations, want 1", len(stations))
	}
	if stations[0]["station_id"] != "466920" {
		t.Errorf("station_id = %v", stations[0]["station_id"])
	}
	if stations[0]["latitude"] != 25.0394 {
		t.Errorf("latitude = %v", stations[0]["latitude"])
	}
}

func TestDailyEndpoint(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	seedJanuary(t, s, "466920")
	srv := api.NewServer(s, "8080")

	w := get(t, srv, "/api/v1/weather/daily?month=1&day=15")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var stats struct {
		TargetDate  string `json:"target_date"`
		SampleSize  int    `json:"sample_size"`
		Temperature struct {
			Mean float64 `json:"mean"`
		} `json:"temperature"`
		Tendency struct {
			Dominant string `json:"dominant"`
		} `json:"weather_tendency"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.TargetDate != "01-15" {
		t.Errorf("target_date = %s, want 01-15", stats.TargetDate)
	}
	// 7-day window over 10 years of full Januaries.
	if stats.SampleSize != 70 {
		t.Errorf("sample_size = %d, want 70", stats.SampleSize)
	}
	if stats.Temperature.Mean != 16.0 {
		t.Errorf("mean = %v, want 16.0", stats.Temperature.Mean)
	}
	if stats.Tendency.Dominant != "sunny" {
		t.Errorf("dominant = %s, want sunny", stats.Tendency.Dominant)
	}
}

func TestDailyEndpointBadParams(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	srv := api.NewServer(s, "8080")

	for _, path := range []string{
		"/api/v1/weather/daily",
		"/api/v1/weather/daily?month=13&day=1",
		"/api/v1/weather/daily?month=2&day=30",
		"/api/v1/weather/daily?month=1&day=1&radius=99",
	} {
		if w := get(t, srv, path); w.Code != 400 {
			t.Errorf("%s: expected 400, got %d", path, w.Code)
		}
	}
}

func TestSnapshotEndpointNotFound(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	srv := api.NewServer(s, "8080")

	w := get(t, srv, "/api/v1/weather/snapshot?date=07-15")
	if w.Code != 404 {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestSnapshotEndpoint(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	err := s.ReplaceDailyStatistics("466920", []models.DailyStatistics{{
		StationID:   "466920",
		MonthDay:    "07-15",
		TempAvgMean: nf(29.1),
		ComputedAt:  time.Now().UTC(),
	}})
	if err != nil {
		t.Fatal(err)
	}
	srv := api.NewServer(s, "8080")

	w := get(t, srv, "/api/v1/weather/snapshot?date=07-15")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var row map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &row); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if row["temp_avg_mean"] != 29.1 {
		t.Errorf("temp_avg_mean = %v, want 29.1", row["temp_avg_mean"])
	}
	// NULL columns are omitted, not rendered as zero.
	if _, present := row["precip_probability"]; present {
		t.Error("precip_probability should be omitted when NULL")
	}
}

func TestSolarTermsEndpoint(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	srv := api.NewServer(s, "8080")

	w := get(t, srv, "/api/v1/solar-terms")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var terms []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &terms); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(terms) != 24 {
		t.Errorf("got %d terms, want 24", len(terms))
	}

	w = get(t, srv, "/api/v1/solar-terms/nearest?date=2023-04-04")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"qingming"`) {
		t.Errorf("expected qingming, got %s", w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"anchor_date":"2023-04-05"`) {
		t.Errorf("expected anchor 2023-04-05, got %s", w.Body.String())
	}

	// At the December boundary the anchor comes from the following year.
	w = get(t, srv, "/api/v1/solar-terms/nearest?date=2025-12-30")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"xiaohan"`) {
		t.Errorf("expected xiaohan, got %s", w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"anchor_date":"2026-01-06"`) {
		t.Errorf("expected anchor 2026-01-06, got %s", w.Body.String())
	}
}

func TestProverbsEndpoint(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	srv := api.NewServer(s, "8080")

	w := get(t, srv, "/api/v1/proverbs")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var all []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &all); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(all) == 0 {
		t.Fatal("expected a non-empty catalog")
	}

	w = get(t, srv, "/api/v1/proverbs?id=qingming_rain")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	w = get(t, srv, "/api/v1/proverbs?id=no_such_proverb")
	if w.Code != 404 {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestVerifyProverbEndpoint(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	seedJanuary(t, s, "466920")
	srv := api.NewServer(s, "8080")

	w := get(t, srv, "/api/v1/proverbs/verify?id=qingming_rain")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var result struct {
		ProverbID       string `json:"proverb_id"`
		ConfidenceLevel string `json:"confidence_level"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.ProverbID != "qingming_rain" {
		t.Errorf("proverb_id = %s", result.ProverbID)
	}
	// January-only data gives the April rule nothing to evaluate.
	if result.ConfidenceLevel != "low" {
		t.Errorf("confidence = %s, want low", result.ConfidenceLevel)
	}

	if w := get(t, srv, "/api/v1/proverbs/verify?id=bogus"); w.Code != 404 {
		t.Errorf("expected 404 for unknown proverb, got %d", w.Code)
	}
	if w := get(t, srv, "/api/v1/proverbs/verify"); w.Code != 400 {
		t.Errorf("expected 400 for missing id, got %d", w.Code)
	}
}

func TestVerifyAllEndpoint(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	seedJanuary(t, s, "466920")
	srv := api.NewServer(s, "8080")

	w := get(t, srv, "/api/v1/proverbs/verify-all")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var payload struct {
		StationID string           `json:"station_id"`
		Results   []map[string]any `json:"results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.StationID != "466920" {
		t.Errorf("station_id = %s", payload.StationID)
	}
	if len(payload.Results) == 0 {
		t.Error("expected verification results")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	srv := api.NewServer(s, "8080")

	w := get(t, srv, "/metrics")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Error("expected runtime metrics in output")
	}
}
