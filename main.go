package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyeyeon57/portfolio-backoffice/api"
	"github.com/hyeyeon57/portfolio-backoffice/auth"
	"github.com/hyeyeon57/portfolio-backoffice/config"
	"github.com/hyeyeon57/portfolio-backoffice/database"
	"github.com/hyeyeon57/portfolio-backoffice/models"
	"github.com/hyeyeon57/portfolio-backoffice/services"
	"github.com/hyeyeon57/portfolio-backoffice/storage"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Info().Msg("Initializing app...")

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("Error loading .env file")
	}

	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading configuration")
	}
	setLogLevel(config.GetString(cfg, "LOG_LEVEL", "info"))

	log.Info().Str("DB_TYPE", config.GetString(cfg, "DB_TYPE", "postgres")).Msg("Connecting to database...")
	opener, err := database.OpenerFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Unsupported database configuration")
	}
	connector := database.NewConnector(opener, database.ConnectorOptions{
		ConnectTimeout: config.GetDuration(cfg, "DB_CONNECT_TIMEOUT_SECONDS", 5*time.Second),
		RetryInterval:  config.GetDuration(cfg, "DB_RETRY_INTERVAL_SECONDS", 10*time.Second),
	})
	defer connector.Close()

	// A failed first attempt leaves the server up in degraded mode.
	if err := connector.Connect(ctx); err != nil {
		log.Warn().Err(err).Msg("Starting without a database connection")
	}

	if runOneShot(ctx, cfg, connector) {
		return
	}

	files, err := newStorage(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing upload storage")
	}

	statsLocation, err := time.LoadLocation(config.GetString(cfg, "STATS_TIMEZONE", "UTC"))
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid STATS_TIMEZONE")
	}

	deps := api.Dependencies{
		Connector: connector,
		Files:     files,
		Verifier:  auth.NewVerifierFromConfig(cfg),
		Guard: auth.Guard{
			Tokens: auth.NewTokenIssuer(config.GetFirstString(cfg, "", "JWT_SECRET", "SESSION_SECRET")),
			Cookies: auth.CookiePolicy{
				ForceSecure: config.GetBool(cfg, "COOKIE_SECURE", false),
				CrossSite:   config.GetBool(cfg, "CROSS_SITE_COOKIES", false),
			},
		},
		Assets:        api.NewAssetLocator(config.GetList(cfg, "ADMIN_ASSETS_DIRS", []string{"admin", "server/admin"})...),
		StatsLocation: statsLocation,
	}
	// Keep Notifier a nil interface when mail is not configured.
	if notifier := services.NewResendNotifierFromConfig(cfg); notifier != nil {
		deps.Notifier = notifier
	}

	server, err := api.NewServer(cfg, deps)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing server")
	}

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go connector.Watch(watchCtx, config.GetDuration(cfg, "DB_HEALTH_INTERVAL_SECONDS", 30*time.Second))

	errChannel := make(chan error, 2)

	go server.Start(errChannel)

	// Listen for interrupt signals to gracefully shutdown the server
	go listenToInterrupt(errChannel)

	fatalErr := <-errChannel
	log.Info().Msgf("Closing server: %v", fatalErr)

	server.ShutdownGracefully(30 * time.Second)
}

// runOneShot runs a maintenance mode selected by the environment and reports
// whether one ran.
func runOneShot(ctx context.Context, cfg map[string]string, connector *database.Connector) bool {
	var mode string
	switch {
	case config.GetBool(cfg, "GENERATE_MODELS", false):
		mode = "GENERATE_MODELS"
	case config.GetBool(cfg, "GENERATE_COLUMN_REPORT", false):
		mode = "GENERATE_COLUMN_REPORT"
	case config.GetBool(cfg, "RUN_PROJECT_MIGRATION", false):
		mode = "RUN_PROJECT_MIGRATION"
	default:
		return false
	}

	if !connector.IsConnected() {
		log.Fatal().Err(connector.LastError()).Str("mode", mode).Msg("Database connection required")
	}

	switch mode {
	case "GENERATE_MODELS":
		log.Info().Msg("Generating models and query helpers...")
		models.GenerateModels(connector.DB())
	case "GENERATE_COLUMN_REPORT":
		log.Info().Msg("Generating column mismatch report...")
		models.GenerateColumnMismatchReport(connector.DB())
	case "RUN_PROJECT_MIGRATION":
		catalog, err := services.LoadCatalog(config.GetString(cfg, "MIGRATION_CATALOG_PATH", ""))
		if err != nil {
			log.Fatal().Err(err).Msg("Error loading project catalog")
		}
		report, err := services.NewMigrationRunner(connector).Run(ctx, catalog)
		if err != nil {
			log.Fatal().Err(err).Msg("Project migration failed")
		}
		log.Info().Stringer("report", report).Msg("Project migration finished")
	}
	return true
}

// newStorage picks the upload backend named by STORAGE_DRIVER.
func newStorage(ctx context.Context, cfg map[string]string) (storage.Storage, error) {
	prefix := config.GetString(cfg, "UPLOAD_URL_PREFIX", "/projects")

	switch driver := strings.ToLower(config.GetString(cfg, "STORAGE_DRIVER", "local")); driver {
	case "local":
		dir := config.GetString(cfg, "UPLOAD_DIR", "uploads/projects")
		log.Info().Str("dir", dir).Str("prefix", prefix).Msg("Storing uploads on local disk")
		return storage.NewLocalStorage(dir, prefix), nil
	case "s3":
		opts := storage.S3Options{
			Bucket:    config.GetString(cfg, "S3_BUCKET", ""),
			Region:    config.GetFirstString(cfg, "", "S3_REGION", "AWS_REGION"),
			Endpoint:  config.GetString(cfg, "S3_ENDPOINT", ""),
			Prefix:    prefix,
			PublicURL: config.GetString(cfg, "S3_PUBLIC_URL", ""),
		}
		if opts.Bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET is required when STORAGE_DRIVER=s3")
		}
		client, err := storage.NewS3Client(ctx, opts)
		if err != nil {
			return nil, err
		}
		log.Info().Str("bucket", opts.Bucket).Msg("Storing uploads in S3")
		return storage.NewS3Storage(client, opts), nil
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", driver)
	}
}

func setLogLevel(level string) {
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		log.Warn().Str("LOG_LEVEL", level).Msg("Unknown log level, using info")
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}
