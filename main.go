package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/workshop-manager/config"
	"github.com/kendall-kelly/workshop-manager/controllers"
	"github.com/kendall-kelly/workshop-manager/repository"
	"github.com/kendall-kelly/workshop-manager/services"
)

func main() {
	log.Println("Starting Workshop Manager API server...")

	if err := run(); err != nil {
		var schemaErr *repository.SchemaError
		if errors.As(err, &schemaErr) {
			log.Printf("FATAL: database schema could not be brought up to date: %v", err)
		} else {
			log.Printf("FATAL: %v", err)
		}
		os.Exit(exitCode(err))
	}
}

// exitCode distinguishes schema failures, which need an operator to look at
// the database file, from ordinary startup errors
func exitCode(err error) int {
	var schemaErr *repository.SchemaError
	if errors.As(err, &schemaErr) {
		return 2
	}
	return 1
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	if err := config.ConnectDatabase(cfg); err != nil {
		return err
	}
	db := config.GetDB()
	if err := repository.EnsureSchema(db); err != nil {
		return err
	}
	log.Println("Database schema is up to date")

	images, receipts, err := services.NewFileStores(context.Background(), cfg)
	if err != nil {
		return err
	}
	repos := repository.New(db, images, receipts)
	handler := controllers.NewHandler(repos, images, receipts)
	router := controllers.NewRouter(cfg, handler)

	if cfg.AuthEnabled() {
		log.Printf("Auth0 token validation enabled for %s", cfg.Auth0Domain)
	} else {
		log.Println("WARNING: AUTH0_DOMAIN/AUTH0_AUDIENCE not set, API routes are unauthenticated")
	}

	addr := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", addr)
	return router.Run(addr)
}
