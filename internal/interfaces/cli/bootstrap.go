package cli

import (
	"fmt"

	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/document"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/config"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/logger"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

// environment is the configuration and logger shared by every command
type environment struct {
	cfg *config.Config
	log *zap.Logger
}

// loadEnvironment reads config.toml and BFSE_ variables. CLI logs go to
// stderr so rendered output on stdout stays clean.
func loadEnvironment() (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: "console",
		Output: "stderr",
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return &environment{cfg: cfg, log: log}, nil
}

func (e *environment) openDatabase() (*persistence.Database, error) {
	gormLog := logger.NewGormLogger(e.log, logger.GormLevel(e.cfg.Log.Level), 0)
	db, err := persistence.NewDatabase(e.cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

func organisation(cfg config.DocumentConfig) document.Organisation {
	return document.Organisation{
		Name:    cfg.OrganisationName,
		Address: cfg.Address,
		Phone:   cfg.Phone,
		Email:   cfg.Email,
	}
}
