// Package devauth is a local stand-in for the ElectroBill authentication
// endpoint. It issues signed tokens for a fixed set of accounts.
package devauth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/dtroode/electrobill-session/internal/config"
	"github.com/dtroode/electrobill-session/internal/logger"
	"github.com/dtroode/electrobill-session/internal/metrics"
	"github.com/dtroode/electrobill-session/internal/model"
	"github.com/dtroode/electrobill-session/internal/server"
	"github.com/dtroode/electrobill-session/internal/token"
)

// NewServer builds the endpoint from configuration. Accounts come from
// cfg.UsersFile when set, DefaultSeeds otherwise.
func NewServer(cfg config.DevAuth, m *metrics.Metrics, logger *logger.Logger) (*server.HTTPServer, model.SecurityLayer, error) {
	seeds := DefaultSeeds
	if cfg.UsersFile != "" {
		loaded, err := LoadSeeds(cfg.UsersFile)
		if err != nil {
			return nil, nil, err
		}
		seeds = loaded
	}

	dir, err := NewDirectory(bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, err
	}
	if err := dir.Populate(seeds); err != nil {
		return nil, nil, fmt.Errorf("failed to seed accounts: %w", err)
	}
	logger.Info("Dev auth: accounts loaded", "count", dir.Len())

	h := NewHandler(dir, token.NewJWT(cfg.JWTSecret, cfg.TokenTTL), m, logger)
	router := NewRouter(h, m.Gatherer(), logger)

	sl := server.NewSecurityLayer(cfg.EnableHTTPS, cfg.CertFileName, cfg.PrivateKeyFileName)
	return server.NewHTTPServer(router, cfg.Addr), sl, nil
}
