package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/jihsin/auspicious/internal/analytics"
	"github.com/jihsin/auspicious/internal/metrics"
	"github.com/jihsin/auspicious/internal/models"
	"github.com/jihsin/auspicious/internal/proverb"
	"github.com/jihsin/auspicious/internal/solarterm"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// analyticsError maps window/month validation failures to 400 and
// everything else to 500.
func analyticsError(w http.ResponseWriter, err error) {
	var validationErr *analytics.ValidationError
	if errors.As(err, &validationErr) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.store.Ping(); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]string{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// stationParam resolves the station query parameter, defaulting to the
// Taipei station.
func stationParam(r *http.Request) string {
	if id := r.URL.Query().Get("station"); id != "" {
		return id
	}
	return DefaultStation
}

// dayParams parses month, day and the optional radius (default 3).
func dayParams(r *http.Request) (month, day, radius int, err error) {
	q := r.URL.Query()
	month, err = strconv.Atoi(q.Get("month"))
	if err != nil {
		return 0, 0, 0, errors.New("month must be an integer")
	}
	day, err = strconv.Atoi(q.Get("day"))
	if err != nil {
		return 0, 0, 0, errors.New("day must be an integer")
	}
	radius = 3
	if raw := q.Get("radius"); raw != "" {
		radius, err = strconv.Atoi(raw)
		if err != nil || radius < 0 || radius > 45 {
			return 0, 0, 0, errors.New("radius must be an integer between 0 and 45")
		}
	}
	return month, day, radius, nil
}

type stationResponse struct {
	StationID string   `json:"station_id"`
	Name      string   `json:"name"`
	County    string   `json:"county,omitempty"`
	Town      string   `json:"town,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Altitude  *float64 `json:"altitude,omitempty"`
}

func toStationResponse(st models.Station) stationResponse {
	return stationResponse{
		StationID: st.StationID,
		Name:      st.Name,
		County:    st.County,
		Town:      st.Town,
		Latitude:  nullToPtr(st.Latitude),
		Longitude: nullToPtr(st.Longitude),
		Altitude:  nullToPtr(st.Altitude),
	}
}

func nullToPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func (s *Server) handleStations(w http.ResponseWriter, r *http.Request) {
	stations, err := s.store.GetActiveStations()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]stationResponse, 0, len(stations))
	for _, st := range stations {
		out = append(out, toStationResponse(st))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	month, day, radius, err := dayParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	analyzer, err := s.analyzerFor(stationParam(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	stats, err := analyzer.DateRangeStats(month, day, radius)
	if err != nil {
		analyticsError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "month must be an integer")
		return
	}
	analyzer, err := s.analyzerFor(stationParam(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	summary, err := analyzer.MonthlySummary(month)
	if err != nil {
		analyticsError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type snapshotResponse struct {
	StationID     string `json:"station_id"`
	MonthDay      string `json:"month_day"`
	YearsAnalyzed *int64 `json:"years_analyzed,omitempty"`
	StartYear     *int64 `json:"start_year,omitempty"`
	EndYear       *int64 `json:"end_year,omitempty"`

	TempAvgMean   *float64 `json:"temp_avg_mean,omitempty"`
	TempAvgMedian *float64 `json:"temp_avg_median,omitempty"`
	TempAvgStddev *float64 `json:"temp_avg_stddev,omitempty"`
	TempMaxMean   *float64 `json:"temp_max_mean,omitempty"`
	TempMaxRecord *float64 `json:"temp_max_record,omitempty"`
	TempMinMean   *float64 `json:"temp_min_mean,omitempty"`
	TempMinRecord *float64 `json:"temp_min_record,omitempty"`

	PrecipProbability *float64 `json:"precip_probability,omitempty"`
	PrecipAvgWhenRain *float64 `json:"precip_avg_when_rain,omitempty"`
	PrecipHeavyProb   *float64 `json:"precip_heavy_probability,omitempty"`
	PrecipMaxRecord   *float64 `json:"precip_max_record,omitempty"`

	TendencySunny  *float64 `json:"tendency_sunny,omitempty"`
	TendencyCloudy *float64 `json:"tendency_cloudy,omitempty"`
	TendencyRainy  *float64 `json:"tendency_rainy,omitempty"`

	ComputedAt time.Time `json:"computed_at"`
}

func toSnapshotResponse(row models.DailyStatistics) snapshotResponse {
	intPtr := func(v sql.NullInt64) *int64 {
		if !v.Valid {
			return nil
		}
		n := v.Int64
		return &n
	}
	return snapshotResponse{
		StationID:     row.StationID,
		MonthDay:      row.MonthDay,
		YearsAnalyzed: intPtr(row.YearsAnalyzed),
		StartYear:     intPtr(row.StartYear),
		EndYear:       intPtr(row.EndYear),

		TempAvgMean:   nullToPtr(row.TempAvgMean),
		TempAvgMedian: nullToPtr(row.TempAvgMedian),
		TempAvgStddev: nullToPtr(row.TempAvgStddev),
		TempMaxMean:   nullToPtr(row.TempMaxMean),
		TempMaxRecord: nullToPtr(row.TempMaxRecord),
		TempMinMean:   nullToPtr(row.TempMinMean),
		TempMinRecord: nullToPtr(row.TempMinRecord),

		PrecipProbability: nullToPtr(row.PrecipProbability),
		PrecipAvgWhenRain: nullToPtr(row.PrecipAvgWhenRain),
		PrecipHeavyProb:   nullToPtr(row.PrecipHeavyProb),
		PrecipMaxRecord:   nullToPtr(row.PrecipMaxRecord),

		TendencySunny:  nullToPtr(row.TendencySunny),
		TendencyCloudy: nullToPtr(row.TendencyCloudy),
		TendencyRainy:  nullToPtr(row.TendencyRainy),

		ComputedAt: row.ComputedAt,
	}
}

// handleSnapshot serves precomputed rows. With no date parameter it returns
// the full 366-day table; with date=MM-DD it returns one row.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	stationID := stationParam(r)
	monthDay := r.URL.Query().Get("date")

	if monthDay == "" {
		rows, err := s.store.GetAllDailyStatistics(stationID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		out := make([]snapshotResponse, 0, len(rows))
		for _, row := range rows {
			out = append(out, toSnapshotResponse(row))
		}
		writeJSON(w, http.StatusOK, out)
		return
	}

	row, err := s.store.GetDailyStatistics(stationID, monthDay)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if row == nil {
		writeError(w, http.StatusNotFound, "no snapshot for "+monthDay)
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotResponse(*row))
}

func (s *Server) handleDecades(w http.ResponseWriter, r *http.Request) {
	month, day, radius, err := dayParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	analyzer, err := s.analyzerFor(stationParam(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	comparison, err := analyzer.CompareDecades(month, day, radius)
	if err != nil {
		analyticsError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comparison)
}

func (s *Server) handleExtremes(w http.ResponseWriter, r *http.Request) {
	month, day, radius, err := dayParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	analyzer, err := s.analyzerFor(stationParam(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	extremes, err := analyzer.FindExtremes(month, day, radius)
	if err != nil {
		analyticsError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, extremes)
}

func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	month, day, radius, err := dayParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	value, err := strconv.ParseFloat(r.URL.Query().Get("value"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "value must be a number")
		return
	}
	analyzer, err := s.analyzerFor(stationParam(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	rank, sampleSize, err := analyzer.RankTemperature(month, day, radius, value)
	if err != nil {
		analyticsError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"value":       value,
		"percentile":  rank,
		"sample_size": sampleSize,
	})
}

func (s *Server) handleSolarTerms(w http.ResponseWriter, r *http.Request) {
	if season := r.URL.Query().Get("season"); season != "" {
		writeJSON(w, http.StatusOK, solarterm.BySeason(season))
		return
	}
	writeJSON(w, http.StatusOK, solarterm.All())
}

func (s *Server) handleNearestTerm(w http.ResponseWriter, r *http.Request) {
	date := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}

	term, anchor := solarterm.Nearest(date)
	writeJSON(w, http.StatusOK, map[string]any{
		"term":        term,
		"anchor_date": anchor.Format("2006-01-02"),
	})
}

func (s *Server) handleProverbs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var proverbs []proverb.Proverb
	switch {
	case q.Get("id") != "":
		p, ok := proverb.ByID(q.Get("id"))
		if !ok {
			writeError(w, http.StatusNotFound, "unknown proverb "+q.Get("id"))
			return
		}
		writeJSON(w, http.StatusOK, p)
		return
	case q.Get("category") != "":
		proverbs = proverb.ByCategory(q.Get("category"))
	case q.Get("region") != "":
		proverbs = proverb.ByRegion(q.Get("region"))
	case q.Get("solar_term") != "":
		proverbs = proverb.BySolarTerm(q.Get("solar_term"))
	case q.Get("month") != "":
		month, err := strconv.Atoi(q.Get("month"))
		if err != nil || month < 1 || month > 12 {
			writeError(w, http.StatusBadRequest, "month must be 1-12")
			return
		}
		proverbs = proverb.ByMonth(month)
	case q.Get("q") != "":
		proverbs = proverb.Search(q.Get("q"))
	default:
		proverbs = proverb.All()
	}
	writeJSON(w, http.StatusOK, proverbs)
}

func (s *Server) handleVerifyProverb(w http.ResponseWriter, r *http.Request) {
	proverbID := r.URL.Query().Get("id")
	if proverbID == "" {
		writeError(w, http.StatusBadRequest, "id parameter required")
		return
	}

	stationID := stationParam(r)
	observations, err := s.observationsFor(stationID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	verifier := proverb.NewVerifier(s.registry, stationID, observations)
	result, err := verifier.Verify(proverbID)
	if err != nil {
		var unknownErr *proverb.UnknownProverbError
		if errors.As(err, &unknownErr) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	metrics.ProverbVerifications.WithLabelValues(proverbID).Inc()
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleVerifyAll(w http.ResponseWriter, r *http.Request) {
	stationID := stationParam(r)
	observations, err := s.observationsFor(stationID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	verifier := proverb.NewVerifier(s.registry, stationID, observations)
	results := verifier.VerifyAll()
	for _, result := range results {
		metrics.ProverbVerifications.WithLabelValues(result.ProverbID).Inc()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"station_id": stationID,
		"summary":    verifier.Summarize(),
		"results":    results,
	})
}
