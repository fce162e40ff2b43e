package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/wrapborne/udaan1/internal/auth"
	"github.com/wrapborne/udaan1/internal/config"
	"github.com/wrapborne/udaan1/internal/handler"
	"github.com/wrapborne/udaan1/internal/parser"
	"github.com/wrapborne/udaan1/internal/store"
)

func main() {
	cfg := config.Load()

	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.CentralDBPath, "central SQLite database path")
	dataDir := flag.String("data-dir", cfg.DataDir, "directory for per-DO tenant databases")
	flag.Parse()

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	parser.SetLogger(logger)

	st, err := store.Open(*dbPath, *dataDir, logger)
	if err != nil {
		logger.Fatal("initializing store", zap.Error(err))
	}
	defer st.Close()

	as := auth.NewService(st, logger)
	h := handler.NewHandler(st, as, logger)

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting server",
		zap.String("addr", addr),
		zap.String("db", *dbPath),
		zap.String("data_dir", *dataDir))
	if err := http.ListenAndServe(addr, h.Routes()); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
