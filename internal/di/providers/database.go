package providers

import (
	"github.com/samber/do/v2"

	"github.com/bookshareapp/bookshare-server/internal/config"
	"github.com/bookshareapp/bookshare-server/internal/logger"
	"github.com/bookshareapp/bookshare-server/internal/store/sessions"
	"github.com/bookshareapp/bookshare-server/internal/store/sqlite"
)

// StoreHandle wraps the catalog store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the SQLite catalog store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := cfg.CatalogPath()
	st, err := sqlite.Open(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Catalog database initialized", "path", dbPath)

	return &StoreHandle{Store: st}, nil
}

// SessionStoreHandle wraps the session store with shutdown capability.
type SessionStoreHandle struct {
	*sessions.Store
}

// Shutdown implements do.Shutdownable.
func (h *SessionStoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideSessionStore provides the Badger-backed refresh token store.
func ProvideSessionStore(i do.Injector) (*SessionStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	st, err := sessions.Open(cfg.SessionsPath(), log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Session store initialized", "path", cfg.SessionsPath())

	return &SessionStoreHandle{Store: st}, nil
}
