package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/liaowuw/webweek8mvc/config"
	"github.com/liaowuw/webweek8mvc/database"
	"github.com/liaowuw/webweek8mvc/handlers"
	"github.com/liaowuw/webweek8mvc/logging"
	"github.com/liaowuw/webweek8mvc/repository"
	"github.com/liaowuw/webweek8mvc/workers"
)

// requestTimeout bounds a single request. The server's write timeout leaves
// room after it so the timeout response still reaches the client.
const (
	requestTimeout     = 30 * time.Second
	serverWriteTimeout = requestTimeout + 5*time.Second
)

var (
	envFile string
	cfg     config.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "people",
	Short: "People directory web application",
	Long: `people serves a small directory of persons as server-rendered HTML pages:
a sortable, filterable list plus create, edit and delete forms.

Run without arguments to start the web server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}

		var err error
		cfg, err = config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		logger, err = logging.New(cfg.LogLevel, cfg.LogDevelopment)
		if err != nil {
			return err
		}
		for _, warning := range cfg.Warnings {
			logger.Warn(warning)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the schema and seed reference data, then exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase(logger.Sugar())
		if err != nil {
			return err
		}
		defer closeDatabase(db, logger.Sugar())
		return migrate(db, logger.Sugar())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func openDatabase(log *zap.SugaredLogger) (*gorm.DB, error) {
	if cfg.DatabaseDriver == config.DriverSQLite && cfg.DatabaseDSN == "" {
		dir := filepath.Dir(cfg.DatabasePath)
		log.Infof("Ensuring storage directory exists: %s", dir)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
		}
		log.Infof("Using database: %s", cfg.DatabasePath)
	}

	db, err := database.InitGormDB(cfg.DatabaseDriver, cfg.DataSourceName(), log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.SugaredLogger) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warnw("failed to close database", "error", err)
	}
}

func migrate(db *gorm.DB, log *zap.SugaredLogger) error {
	if err := database.AutoMigrateModels(db); err != nil {
		return err
	}
	if err := database.SeedReferenceData(db); err != nil {
		return err
	}
	log.Info("schema migrated and reference data seeded")
	return nil
}

func sessionSecret(log *zap.SugaredLogger) []byte {
	if cfg.SessionSecret != "" {
		return []byte(cfg.SessionSecret)
	}
	log.Warn("SESSION_SECRET is not set, generating a random one; flash messages will not survive a restart")
	return []byte(uuid.NewString() + uuid.NewString())
}

func newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}
}

func runServer(ctx context.Context) error {
	log := logger.Sugar()

	db, err := openDatabase(log)
	if err != nil {
		return err
	}
	defer closeDatabase(db, log)

	if cfg.AutoMigrate {
		if err := migrate(db, log); err != nil {
			return err
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	log.Infof("Initializing database executor (Workers: %d, Queue Size: %d, Timeout: %s)...",
		cfg.NumDBWorkers, cfg.DBQueueSize, cfg.DBOperationTimeout)
	executor := workers.NewDatabaseExecutor(cfg.DBQueueSize, cfg.NumDBWorkers, cfg.DBOperationTimeout, log.Named("executor"))
	defer executor.Stop()

	views, err := handlers.NewRenderer(log.Named("render"))
	if err != nil {
		return err
	}

	personHandler := &handlers.PersonHandler{
		People:   repository.NewPersonRepository(db),
		Sexes:    repository.NewSexRepository(sqlDB, database.StatementBuilder(cfg.DatabaseDriver)),
		Executor: executor,
		Views:    views,
		Flash:    handlers.NewFlashStore(sessionSecret(log)),
		Log:      log.Named("http"),
		PageSize: cfg.PageSize,
	}

	r := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(handlers.RequestLogger(log.Named("access")))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(corsHandler.Handler)

	handlers.RegisterPersonRoutes(r, personHandler)

	serverAddr := ":" + cfg.Port
	server := newHTTPServer(serverAddr, r)

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Server listening on %s", serverAddr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
