package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shareustc/shareustc"
	"github.com/shareustc/shareustc/config"
	"github.com/shareustc/shareustc/database"
	"github.com/shareustc/shareustc/oss"
)

// app holds the collaborators shared by the server and the operator commands.
type app struct {
	cfg     *config.Config
	client  *oss.Client
	db      database.Database
	service *shareustc.StorageService
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.FromContext(ctx)
	if err != nil {
		return nil, err
	}

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}
	slog.Info("connected to audit database", "type", cfg.Database.Type)

	client := oss.NewClient(cfg.OSS.ClientConfig(),
		oss.WithSTSEndpoint(cfg.OSS.STSEndpoint),
		oss.WithLogger(slog.Default()),
	)

	service, err := shareustc.NewStorageService(client, client, client, shareustc.ServiceConfig{
		Audit:  db.GetRepo(),
		Logger: slog.Default(),
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create storage service: %w", err)
	}

	return &app{cfg: cfg, client: client, db: db, service: service}, nil
}

func (a *app) Close() {
	_ = a.db.Close()
}

// operator is the identity recorded for actions taken from the command line.
func operator(name string) shareustc.Identity {
	return shareustc.Identity{
		ID:         uuid.Nil,
		Username:   name,
		Role:       shareustc.RoleAdmin,
		IsVerified: true,
	}
}
