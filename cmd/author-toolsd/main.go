package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/elsanchez/author-tools/internal/cache"
	"github.com/elsanchez/author-tools/internal/daemon"
	"github.com/elsanchez/author-tools/internal/fetcher"
	"github.com/elsanchez/author-tools/internal/redditapi"
	"github.com/elsanchez/author-tools/internal/repository/sqlite"
	"github.com/elsanchez/author-tools/internal/resolver"
	"github.com/elsanchez/author-tools/pkg/client"
)

const (
	version = "0.1.0"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("author-toolsd v%s starting...", version)

	// Obtener directorios
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("Failed to get home directory: %v", err)
	}

	// Overrides opcionales desde archivo de entorno
	envFile := filepath.Join(homeDir, ".config", "author-tools", "env")
	if err := godotenv.Load(envFile); err == nil {
		log.Printf("Loaded environment overrides from %s", envFile)
	}

	dataDir := envOr("AUTHOR_TOOLS_DATA_DIR", filepath.Join(homeDir, ".local", "share", "author-tools"))
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory %s: %v", dataDir, err)
	}
	log.Printf("Data directory: %s", dataDir)

	// Inicializar base de datos (jobs + actividad)
	db, err := sqlite.NewDatabase(dataDir)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()
	log.Println("✓ Database initialized")

	// Cargar cache persistente de cuentas
	cachePath := filepath.Join(dataDir, "account_cache.json")
	accountCache := cache.Open(cachePath)
	log.Printf("✓ Account cache loaded (%d entries)", accountCache.Len())

	// Sesión HTTP compartida por los clientes upstream
	session := redditapi.NewSession()
	if envOr("AUTHOR_TOOLS_BROWSER_COOKIES", "") == "1" {
		ctx := context.Background()
		if n, err := session.LoadBrowserCookies(ctx); err != nil {
			log.Printf("Browser cookies unavailable: %v", err)
		} else if n > 0 {
			log.Printf("✓ Loaded %d reddit.com cookies from browser", n)
		} else {
			log.Println("No reddit.com cookies found in browsers, continuing anonymous")
		}
	}

	profile := redditapi.NewProfileClientWithBase(session,
		envOr("AUTHOR_TOOLS_PROFILE_URL", redditapi.DefaultProfileBaseURL))
	history := redditapi.NewHistoryClientWithBase(session,
		envOr("AUTHOR_TOOLS_HISTORY_URL", redditapi.DefaultHistoryBaseURL))

	// Resolver y batch fetcher
	accountResolver := resolver.New(profile, history)
	fetchWorkers := envInt("AUTHOR_TOOLS_FETCH_WORKERS", fetcher.DefaultMaxWorkers)
	batchFetcher := fetcher.New(accountCache, accountResolver, fetchWorkers)
	log.Printf("✓ Batch fetcher initialized (%d workers)", fetchWorkers)

	// Job manager
	skipListPath := filepath.Join(dataDir, "skip_list.txt")
	jobWorkers := envInt("AUTHOR_TOOLS_JOB_WORKERS", 2)
	manager := daemon.NewJobManager(db.JobRepo, batchFetcher, skipListPath, jobWorkers)
	manager.Start()
	defer manager.Stop()
	log.Printf("✓ Job manager started (%d workers)", jobWorkers)

	// Crear handlers y servidor
	handlers := daemon.NewHandlers(db.JobRepo, db.ActivityRepo, accountCache, manager)
	socketPath := client.GetDefaultSocketPath()
	server := daemon.NewServer(socketPath, handlers)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := server.Start(ctx); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	defer server.Stop()

	log.Println("✓ Server started")
	log.Printf("Socket: %s", socketPath)
	log.Println("author-toolsd is ready")

	// Esperar señal de terminación
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Printf("Received signal: %v", sig)
	log.Println("Shutting down gracefully...")

	cancel()
}

// envOr retorna el valor de una variable de entorno o un default
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envInt retorna el valor numérico de una variable de entorno o un default
func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("Ignoring invalid %s=%q", key, v)
		return fallback
	}
	return n
}
