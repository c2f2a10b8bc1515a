package main

import (
	"log"
	"net/http"

	"github.com/keywarden/keywarden/internal/api"
	"github.com/keywarden/keywarden/internal/config"
	"github.com/keywarden/keywarden/internal/db"
	"github.com/keywarden/keywarden/internal/keyconfig"
	"github.com/keywarden/keywarden/internal/provider"
	"github.com/keywarden/keywarden/internal/secretbox"
	"github.com/keywarden/keywarden/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	database, err := db.InitDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	cipher, err := secretbox.NewFromHex(cfg.EncryptionKey)
	if err != nil {
		log.Fatalf("Failed to initialize cipher: %v", err)
	}

	deps := api.Deps{
		DB:       database,
		Provider: provider.NewClient(cfg.Provider.BaseURL),
		Codec:    keyconfig.NewCodec(cipher),
		Cfg:      cfg,
	}

	addr := cfg.Host + ":" + cfg.Port
	log.Printf("🚀 Keywarden %s starting on http://%s", version.Version, addr)
	if !cfg.ManagedKeysEnabled {
		log.Printf("⚠️ Managed keys are disabled; /api/consent will return 403")
	}

	if err := http.ListenAndServe(addr, api.NewRouter(deps)); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
