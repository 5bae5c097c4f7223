package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/workshop-manager/config"
	"github.com/kendall-kelly/workshop-manager/controllers"
	"github.com/kendall-kelly/workshop-manager/repository"
	"github.com/kendall-kelly/workshop-manager/services"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// RequireTestEnvironment ensures that tests are running in the test environment.
// This prevents accidental execution of tests against production or development databases.
// It will fail the test immediately if GO_ENV is not set to "test".
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: Tests must run with GO_ENV=test to prevent data loss. Current GO_ENV=%q. Set GO_ENV=test before running tests.", env)
	}
}

// MustSetTestEnvironment sets GO_ENV to test and fails if it cannot be set.
// Use this in TestMain or suite setup functions.
func MustSetTestEnvironment(t *testing.T) {
	t.Helper()

	if err := os.Setenv("GO_ENV", "test"); err != nil {
		t.Fatalf("Failed to set GO_ENV=test: %v", err)
	}

	if os.Getenv("GO_ENV") != "test" {
		t.Fatal("Failed to verify GO_ENV=test")
	}
}

// TestConfig returns a configuration for a throwaway workshop database under
// dir. Auth0 is left unconfigured.
func TestConfig(dir string) *config.Config {
	return &config.Config{
		GoEnv:         "test",
		Port:          "8080",
		DataDir:       dir,
		DatabasePath:  filepath.Join(dir, "workshop.db"),
		BusyTimeoutMS: 5000,
		ImageDir:      filepath.Join(dir, "images"),
		ReceiptDir:    filepath.Join(dir, "receipts"),
		StorageDriver: config.StorageLocal,
	}
}

// OpenTestDatabase opens a fresh database file in a temp directory and
// brings it up to the current schema. It is closed when the test ends.
func OpenTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	RequireTestEnvironment(t)

	db, err := config.OpenDatabase(TestConfig(t.TempDir()))
	require.NoError(t, err, "Failed to open test database")
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	require.NoError(t, repository.EnsureSchema(db), "Failed to apply schema")
	return db
}

// App is a fully wired API over a test database and in-memory file stores
type App struct {
	DB       *gorm.DB
	Repos    *repository.Repositories
	Images   *services.MockFileStore
	Receipts *services.MockFileStore
	Router   *gin.Engine
}

// NewApp wires the application the way main does, against cfg's auth
// settings. A nil cfg means no authentication.
func NewApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if cfg == nil {
		cfg = TestConfig(t.TempDir())
	}
	db := OpenTestDatabase(t)
	images := services.NewMockFileStore()
	receipts := services.NewMockFileStore()
	repos := repository.New(db, images, receipts)
	config.SetConfig(cfg)
	config.SetDB(db)

	return &App{
		DB:       db,
		Repos:    repos,
		Images:   images,
		Receipts: receipts,
		Router:   controllers.NewRouter(cfg, controllers.NewHandler(repos, images, receipts)),
	}
}

// PrintEnvironmentInfo prints the current test environment configuration.
// Useful for debugging test environment issues.
func PrintEnvironmentInfo() {
	fmt.Printf("Test Environment Info:\n")
	fmt.Printf("  GO_ENV: %s\n", os.Getenv("GO_ENV"))
	fmt.Printf("  DATABASE_PATH: %s\n", valueOrUnset(os.Getenv("DATABASE_PATH")))
	fmt.Printf("  DATABASE_URL: %s\n", maskDatabaseURL(os.Getenv("DATABASE_URL")))
	fmt.Printf("  STORAGE_DRIVER: %s\n", valueOrUnset(os.Getenv("STORAGE_DRIVER")))
}

func valueOrUnset(v string) string {
	if v == "" {
		return "(not set)"
	}
	return v
}

// maskDatabaseURL hides everything after the scheme and host prefix
func maskDatabaseURL(url string) string {
	if url == "" {
		return "(not set)"
	}
	if len(url) > 20 {
		return url[:20] + "..."
	}
	return url
}
