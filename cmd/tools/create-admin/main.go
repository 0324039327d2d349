// Creates an admin user for the API. Run once after provisioning:
//
//	go run ./cmd/tools/create-admin -config_folder config -email admin@example.com -password ...
package main

import (
	"flag"
	"os"

	"github.com/curator-cms/curator/internal/config"
	"github.com/curator-cms/curator/internal/domain"
	"github.com/curator-cms/curator/internal/logger"
	"github.com/curator-cms/curator/internal/service"
	"github.com/curator-cms/curator/internal/storage/pg"
)

func main() {
	var configFolder, email, password string
	flag.StringVar(&configFolder, "config_folder", "config", "path to folder with configs")
	flag.StringVar(&email, "email", "", "admin email")
	flag.StringVar(&password, "password", "", "admin password")
	flag.Parse()

	if email == "" || password == "" {
		logger.Log.Error("both -email and -password are required")
		os.Exit(1)
	}

	cfg := config.MustLoad(configFolder)
	storage, err := pg.New(cfg)
	if err != nil {
		logger.Log.Error("failed to connect", "error", err)
		os.Exit(1)
	}
	defer storage.Cleanup()

	auth := service.NewAuth(storage, nil)
	id, err := auth.CreateUser(domain.Credentials{Email: email, Password: password}, true)
	if err != nil {
		logger.Log.Error("failed to create admin", "error", err)
		os.Exit(1)
	}
	logger.Log.Info("admin created", "id", id, "email", email)
}
