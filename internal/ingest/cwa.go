// Package ingest brings observation data into the store: station metadata
// from the CWA Open Data platform and historical daily records from CSV
// exports.
package ingest

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/jihsin/auspicious/internal/httputil"
	"github.com/jihsin/auspicious/internal/metrics"
	"github.com/jihsin/auspicious/internal/models"
	"github.com/jihsin/auspicious/internal/store"
)

const (
	cwaBaseURL      = "https://opendata.cwa.gov.tw/api/v1/rest/datastore"
	stationsDataset = "O-A0001-001"
)

type CWAClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewCWAClient(apiKey string) *CWAClient {
	return &CWAClient{
		apiKey:  apiKey,
		baseURL: cwaBaseURL,
		client:  httputil.NewClient(),
	}
}

type stationsResponse struct {
	Success string `json:"success"`
	Records struct {
		Station []cwaStation `json:"Station"`
	} `json:"records"`
}

type cwaStation struct {
	StationID   string `json:"StationId"`
	StationName string `json:"StationName"`
	GeoInfo     struct {
		CountyName      string `json:"CountyName"`
		TownName        string `json:"TownName"`
		StationAltitude string `json:"StationAltitude"`
		Coordinates     []struct {
			CoordinateName   string  `json:"CoordinateName"`
			StationLatitude  float64 `json:"StationLatitude"`
			StationLongitude float64 `json:"StationLongitude"`
		} `json:"Coordinates"`
	} `json:"GeoInfo"`
}

// FetchStations pulls the current automatic-station inventory. Transient
// statuses are retried with exponential backoff; anything else fails fast.
func (c *CWAClient) FetchStations(ctx context.Context) ([]models.Station, error) {
	endpoint := fmt.Sprintf("%s/%s?Authorization=%s", c.baseURL, stationsDataset, url.QueryEscape(c.apiKey))

	var body []byte
	operation := func() error {
		started := time.Now()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}
		resp, err := c.client.Do(req)
		if err != nil {
			metrics.CWAAPICallsTotal.WithLabelValues(stationsDataset, "error").Inc()
			return fmt.Errorf("fetch stations: %w", err)
		}
		defer resp.Body.Close()
		metrics.CWAAPILatency.WithLabelValues(stationsDataset).Observe(time.Since(started).Seconds())
		metrics.CWAAPICallsTotal.WithLabelValues(stationsDataset, strconv.Itoa(resp.StatusCode)).Inc()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("fetch stations: status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(fmt.Errorf("fetch stations: status %d: %s", resp.StatusCode, string(b)))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("read body: %w", err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 2 * time.Minute
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}

	var data stationsResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	if data.Success != "true" {
		return nil, fmt.Errorf("cwa api returned success=%q", data.Success)
	}

	var stations []models.Station
	for _, st := range data.Records.Station {
		if st.StationID == "" {
			continue
		}
		station := models.Station{
			StationID: st.StationID,
			Name:      st.StationName,
			County:    st.GeoInfo.CountyName,
			Town:      st.GeoInfo.TownName,
			Active:    true,
		}
		if alt, err := strconv.ParseFloat(st.GeoInfo.StationAltitude, 64); err == nil {
			station.Altitude = sql.NullFloat64{Float64: alt, Valid: true}
		}
		for _, coord := range st.GeoInfo.Coordinates {
			if coord.CoordinateName == "WGS84" {
				station.Latitude = sql.NullFloat64{Float64: coord.StationLatitude, Valid: true}
				station.Longitude = sql.NullFloat64{Float64: coord.StationLongitude, Valid: true}
			}
		}
		stations = append(stations, station)
	}

	return stations, nil
}

// SyncStations refreshes the station table from the CWA inventory.
func (c *CWAClient) SyncStations(ctx context.Context, s *store.Store) error {
	stations, err := c.FetchStations(ctx)
	if err != nil {
		return err
	}

	upserted := 0
	for _, station := range stations {
		if err := s.UpsertStation(station); err != nil {
			log.Printf("ingest: upsert station %s: %v", station.StationID, err)
			continue
		}
		upserted++
	}

	log.Printf("ingest: synced %d of %d stations", upserted, len(stations))
	return nil
}
