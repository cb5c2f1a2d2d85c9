// Package main provides the entry point for the BookShare server application.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/bookshareapp/bookshare-server/internal/di"
	"github.com/bookshareapp/bookshare-server/internal/di/providers"
	"github.com/bookshareapp/bookshare-server/internal/logger"
)

func main() {
	// Create DI container
	injector := di.NewContainer()

	// Bootstrap all services
	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap server: %v\n", err)
		os.Exit(1)
	}

	// Get logger for shutdown messages
	log := do.MustInvoke[*logger.Logger](injector)

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	// Shutdown all services in reverse order
	// The DI container handles shutdown order automatically
	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown error", "error", err)
	}

	// Stores and the search index use wrapper types, so they need explicit cleanup
	if storeHandle, err := do.Invoke[*providers.StoreHandle](injector); err == nil {
		log.Info("Closing catalog database...")
		if err := storeHandle.Shutdown(); err != nil {
			log.Error("Failed to close catalog database", "error", err)
		} else {
			log.Info("Catalog database closed successfully")
		}
	}

	if sessionHandle, err := do.Invoke[*providers.SessionStoreHandle](injector); err == nil {
		log.Info("Closing session store...")
		if err := sessionHandle.Shutdown(); err != nil {
			log.Error("Failed to close session store", "error", err)
		} else {
			log.Info("Session store closed successfully")
		}
	}

	if searchHandle, err := do.Invoke[*providers.SearchIndexHandle](injector); err == nil {
		log.Info("Closing search index...")
		if err := searchHandle.Shutdown(); err != nil {
			log.Error("Failed to close search index", "error", err)
		} else {
			log.Info("Search index closed successfully")
		}
	}

	log.Info("Happy reading...")
}
