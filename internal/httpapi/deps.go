package httpapi

import (
	"context"
	"database/sql"
	"sync/atomic"

	"watchscout-engine/internal/config"
	"watchscout-engine/internal/domain"
	"watchscout-engine/internal/events"
)

type Deps struct {
	DB *sql.DB

	Hub *events.Hub

	// Atomic stores
	CfgVal          *atomic.Value // stores config.Config
	DiscoveryStatus *atomic.Value // stores DiscoveryStatus

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	// Discovery entrypoint (inject for testability)
	RunDiscovery func(ctx context.Context, cfg config.Config) (domain.RunStats, error)
}

// DiscoveryStatus is the engine's last-run snapshot exposed on the API.
type DiscoveryStatus struct {
	LastRunAt string `json:"last_run_at"`
	LastOkAt  string `json:"last_ok_at"`
	LastError string `json:"last_error"`
	LastSaved int    `json:"last_saved"`
	Running   bool   `json:"running"`
}
