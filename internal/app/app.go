package app

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/markdave123-py/storagegate/internal/api/handlers"
	"github.com/markdave123-py/storagegate/internal/config"
	objectclient "github.com/markdave123-py/storagegate/internal/core/object-client"
	"github.com/markdave123-py/storagegate/internal/services"
)

type App struct {
	Server *Server
}

func NewApp(ctx context.Context, cfg *config.Config, logger log.FieldLogger) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	objClient, err := objectclient.NewObjectClient(appCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init object client: %w", err)
	}
	logger.WithFields(log.Fields{
		"backend": cfg.StorageBackend,
		"bucket":  cfg.BucketName,
	}).Info("Object client initialized and ready.")

	objects := services.NewObjectService(objClient, cfg.VideoPublicRead, logger)
	router := NewRouter(cfg,
		handlers.NewObjectHandler(objects, cfg, logger),
		handlers.NewHealthHandler(objClient, logger),
		logger,
	)

	return &App{Server: NewServer(cfg, router, logger)}, nil
}
