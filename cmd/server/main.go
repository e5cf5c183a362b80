package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/klass-lk/restblog"
	"github.com/klass-lk/restblog/internal/app"
	"github.com/klass-lk/restblog/internal/config"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	level := slog.LevelDebug
	if cfg.IsProduction() {
		level = slog.LevelInfo
		gin.SetMode(gin.ReleaseMode)
	}
	slog.SetDefault(restblog.NewLogger(os.Stdout, cfg.IsProduction(), level))

	db, err := restblog.NewMongoConfig().
		WithURI(cfg.MongoURI).
		WithDatabase(cfg.MongoDatabase).
		Connect(context.Background())
	if err != nil {
		slog.Error("failed to connect to mongo", slog.String("error", err.Error()))
		os.Exit(1)
	}

	server, err := app.Build(cfg, db)
	if err != nil {
		slog.Error("failed to build server", slog.String("error", err.Error()))
		_ = db.Client().Disconnect(context.Background())
		os.Exit(1)
	}

	if err := server.Start(cfg.Port); err != nil {
		slog.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
