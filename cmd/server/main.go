package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/keyduel/keyduel-backend/internal/config"
	"github.com/keyduel/keyduel-backend/internal/httpapi"
	"github.com/keyduel/keyduel-backend/internal/hub"
	"github.com/keyduel/keyduel-backend/internal/match"
	"github.com/keyduel/keyduel-backend/internal/store"
	"github.com/keyduel/keyduel-backend/internal/textpool"
)

func main() {
	cfg := config.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx := context.Background()

	var ps store.PlayerStore
	var texts textpool.Source

	if cfg.MongoURI != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
		cancel()
		if err != nil {
			log.Fatal("mongo connect failed", zap.Error(err))
		}
		defer client.Disconnect(ctx)

		db := client.Database(cfg.DBName)
		ps = store.NewMongo(db)
		texts = textpool.NewMongo(db, log)
		log.Info("using mongo store", zap.String("db", cfg.DBName))
	} else {
		ps = store.NewMemory()
		texts = textpool.Static{}
		log.Warn("MONGO_URI not set, ranks will not survive restarts")
	}

	h := hub.NewHub(ctx, ps, texts, match.DefaultConfig(), log)

	// Build the router *with* the hub injected
	handler := httpapi.SetupRoutes(h, ps, cfg.CORSOrigin, log)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: handler}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-stop
		log.Info("shutting down", zap.String("signal", sig.String()))
		h.Inbox() <- hub.Shutdown{}

		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("listening", zap.String("port", cfg.Port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server error", zap.Error(err))
	}
}
