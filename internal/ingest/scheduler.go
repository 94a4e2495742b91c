package ingest

import (
	"context"
	"errors"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/jihsin/auspicious/internal/snapshot"
	"github.com/jihsin/auspicious/internal/store"
)

// Scheduler runs the recurring jobs: a nightly station-inventory sync and a
// nightly snapshot rebuild. Daily climate data only changes once a day, so
// there is nothing to gain from tighter intervals.
type Scheduler struct {
	store   *store.Store
	builder *snapshot.Builder
	cwa     *CWAClient
	cron    *cron.Cron
}

func NewScheduler(s *store.Store, builder *snapshot.Builder, cwa *CWAClient) *Scheduler {
	return &Scheduler{
		store:   s,
		builder: builder,
		cwa:     cwa,
		cron:    cron.New(),
	}
}

// Run registers the jobs and blocks until ctx is canceled. Syncs run at
// 02:30 and snapshots at 03:00 server time, keeping the rebuild after any
// station churn.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.cwa != nil {
		if _, err := s.cron.AddFunc("30 2 * * *", func() {
			if err := s.cwa.SyncStations(ctx, s.store); err != nil {
				log.Printf("scheduler: station sync: %v", err)
			}
		}); err != nil {
			return err
		}
	}

	if _, err := s.cron.AddFunc("0 3 * * *", func() {
		s.RefreshSnapshots(ctx)
	}); err != nil {
		return err
	}

	s.cron.Start()
	log.Println("scheduler: started")

	<-ctx.Done()
	log.Println("scheduler: shutting down")
	stopped := s.cron.Stop()
	<-stopped.Done()
	return nil
}

// RefreshSnapshots rebuilds the daily snapshot for every active station.
// Stations without enough history are skipped quietly; everything else is
// logged and the loop carries on.
func (s *Scheduler) RefreshSnapshots(ctx context.Context) {
	stations, err := s.store.GetActiveStations()
	if err != nil {
		log.Printf("scheduler: list stations: %v", err)
		return
	}

	for _, station := range stations {
		if ctx.Err() != nil {
			return
		}
		err := s.builder.Run(ctx, station.StationID)
		var insufficientErr *snapshot.InsufficientDataError
		switch {
		case errors.As(err, &insufficientErr):
			log.Printf("scheduler: skip %s: %v", station.StationID, err)
		case err != nil:
			log.Printf("scheduler: snapshot %s: %v", station.StationID, err)
		}
	}
}
