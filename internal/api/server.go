// Package api exposes the climatology engine over JSON HTTP.
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jihsin/auspicious/internal/analytics"
	"github.com/jihsin/auspicious/internal/models"
	"github.com/jihsin/auspicious/internal/proverb"
	"github.com/jihsin/auspicious/internal/store"
)

// DefaultStation is the fallback when a request names no station. 466920 is
// the Taipei station, the longest continuous record in the dataset.
const DefaultStation = "466920"

type Server struct {
	store    *store.Store
	port     string
	registry *proverb.Registry

	// Analyzers are built from the full observation history of a station,
	// which only changes on ingest. Cache them with a short TTL rather
	// than re-reading thousands of rows per request.
	mu        sync.Mutex
	analyzers map[string]cachedAnalyzer
}

type cachedAnalyzer struct {
	analyzer *analytics.Analyzer
	loadedAt time.Time
}

const analyzerTTL = 10 * time.Minute

func NewServer(store *store.Store, port string) *Server {
	return &Server{
		store:     store,
		port:      port,
		registry:  proverb.NewRegistry(),
		analyzers: make(map[string]cachedAnalyzer),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/v1/stations", s.handleStations)
	mux.HandleFunc("/api/v1/weather/daily", s.handleDaily)
	mux.HandleFunc("/api/v1/weather/monthly", s.handleMonthly)
	mux.HandleFunc("/api/v1/weather/snapshot", s.handleSnapshot)
	mux.HandleFunc("/api/v1/weather/decades", s.handleDecades)
	mux.HandleFunc("/api/v1/weather/extremes", s.handleExtremes)
	mux.HandleFunc("/api/v1/weather/rank", s.handleRank)
	mux.HandleFunc("/api/v1/solar-terms", s.handleSolarTerms)
	mux.HandleFunc("/api/v1/solar-terms/nearest", s.handleNearestTerm)
	mux.HandleFunc("/api/v1/proverbs", s.handleProverbs)
	mux.HandleFunc("/api/v1/proverbs/verify", s.handleVerifyProverb)
	mux.HandleFunc("/api/v1/proverbs/verify-all", s.handleVerifyAll)
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// analyzerFor loads (or reuses) the analyzer over a station's full history.
func (s *Server) analyzerFor(stationID string) (*analytics.Analyzer, error) {
	s.mu.Lock()
	cached, ok := s.analyzers[stationID]
	s.mu.Unlock()
	if ok && time.Since(cached.loadedAt) < analyzerTTL {
		return cached.analyzer, nil
	}

	observations, err := s.store.GetAllObservations(stationID)
	if err != nil {
		return nil, err
	}
	analyzer := analytics.NewAnalyzer(observations)

	s.mu.Lock()
	s.analyzers[stationID] = cachedAnalyzer{analyzer: analyzer, loadedAt: time.Now()}
	s.mu.Unlock()
	return analyzer, nil
}

// observationsFor returns a station's full history, via the analyzer cache.
func (s *Server) observationsFor(stationID string) ([]models.DailyObservation, error) {
	analyzer, err := s.analyzerFor(stationID)
	if err != nil {
		return nil, err
	}
	return analyzer.Observations(), nil
}
