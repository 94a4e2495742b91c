package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"github.com/jihsin/auspicious/internal/api"
	"github.com/jihsin/auspicious/internal/ingest"
	"github.com/jihsin/auspicious/internal/proverb"
	"github.com/jihsin/auspicious/internal/snapshot"
	"github.com/jihsin/auspicious/internal/store"
)

func main() {
	dbPath := flag.String("db", "data/auspicious.db", "path to SQLite database")
	port := flag.String("port", "8080", "HTTP server port")
	station := flag.String("station", api.DefaultStation, "station ID for one-shot commands")
	migrateOnly := flag.Bool("migrate", false, "apply schema migrations and exit")
	syncStations := flag.Bool("sync", false, "refresh station inventory from CWA and exit")
	loadCSV := flag.String("load", "", "load a historical CSV export for -station and exit")
	buildSnapshot := flag.Bool("snapshot", false, "rebuild the daily snapshot for -station and exit")
	verify := flag.Bool("verify", false, "verify all proverbs against -station and exit")
	noCron := flag.Bool("no-cron", false, "disable scheduled jobs (server only, for local dev)")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("load .env: %v", err)
	}

	db, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	st := store.New(db)
	if err := st.Migrate(); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Println("database migrated")

	var cwa *ingest.CWAClient
	if apiKey := os.Getenv("CWA_API_KEY"); apiKey != "" {
		cwa = ingest.NewCWAClient(apiKey)
	} else {
		log.Println("CWA_API_KEY not set, station sync disabled")
	}

	builder := snapshot.NewBuilder(st, 4)
	scheduler := ingest.NewScheduler(st, builder, cwa)
	server := api.NewServer(st, *port)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch {
	case *migrateOnly:
		return

	case *syncStations:
		if cwa == nil {
			log.Fatal("CWA_API_KEY environment variable required for -sync")
		}
		if err := cwa.SyncStations(ctx, st); err != nil {
			log.Fatalf("sync stations: %v", err)
		}
		return

	case *loadCSV != "":
		n, err := ingest.LoadHistoryFile(*loadCSV, *station, st)
		if err != nil {
			log.Fatalf("load history: %v", err)
		}
		log.Printf("loaded %d observations", n)
		return

	case *buildSnapshot:
		if err := builder.Run(ctx, *station); err != nil {
			log.Fatalf("snapshot: %v", err)
		}
		return

	case *verify:
		observations, err := st.GetAllObservations(*station)
		if err != nil {
			log.Fatalf("load observations: %v", err)
		}
		verifier := proverb.NewVerifier(proverb.NewRegistry(), *station, observations)
		out, err := json.MarshalIndent(map[string]any{
			"summary": verifier.Summarize(),
			"results": verifier.VerifyAll(),
		}, "", "  ")
		if err != nil {
			log.Fatalf("marshal results: %v", err)
		}
		os.Stdout.Write(append(out, '\n'))
		return
	}

	if !*noCron {
		go scheduler.Run(ctx)
	} else {
		log.Println("scheduled jobs disabled (--no-cron)")
	}

	log.Printf("starting server on :%s", *port)
	if err := server.Run(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
}
