// Entry point: loads config, wires the lifecycle services and starts
// the HTTP server plus background sweepers.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"nexttransport/internal/config"
	httptransport "nexttransport/internal/http"
	"nexttransport/internal/infra"
	"nexttransport/internal/maps"
	"nexttransport/internal/modules/assignment"
	"nexttransport/internal/modules/booking"
	"nexttransport/internal/modules/pricing"
	"nexttransport/internal/modules/quote"
	"nexttransport/internal/modules/registry"
	"nexttransport/internal/modules/sequence"
	"nexttransport/internal/notify"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer dbPool.Close()

	redisClient, err := infra.NewRedis(ctx, cfg.Redis.Addr)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}

	var estimator pricing.DistanceEstimator
	if cfg.Maps.APIKey != "" {
		estimator, err = maps.NewDistanceService(cfg.Maps.APIKey)
		if err != nil {
			log.Fatalf("maps: %v", err)
		}
		log.Print("using Google Maps distance estimator")
	}
	engine := pricing.NewEngine(estimator)

	seq := sequence.NewGenerator(redisClient)
	registryStore := registry.NewStore(dbPool)

	quoteSvc := quote.NewService(quote.NewStore(dbPool), engine, registryStore, seq)
	bookingSvc := booking.NewService(booking.NewStore(dbPool), quoteSvc, seq, notify.LogNotifier{})
	assignmentSvc := assignment.NewService(assignment.NewStore(dbPool), bookingSvc)

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Quotes:      quoteSvc,
		Bookings:    bookingSvc,
		Assignments: assignmentSvc,
		AdminToken:  cfg.Admin.APIToken,
	})

	go quoteSvc.RunExpirySweeper(ctx, cfg.Quote.SweepInterval)

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: router}
	go func() {
		log.Printf("listening on %s", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
