// Gray Logic Blink - pattern playback for blink(1) status lights
//
// This is the main entry point for the Gray Logic Blink service. It owns the
// pattern catalog, plays patterns on a blink(1) through the MQTT bridge, and
// accepts play requests over MQTT and the REST API.
//
// Usage:
//
//	graylogic-blink                      run the service
//	graylogic-blink -ephemeral           run with an in-memory database
//	graylogic-blink -token ci -role operator
//	                                     print an API token and exit
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/gray-logic-blink/migrations"

	"github.com/nerrad567/gray-logic-blink/internal/api"
	"github.com/nerrad567/gray-logic-blink/internal/audit"
	"github.com/nerrad567/gray-logic-blink/internal/auth"
	"github.com/nerrad567/gray-logic-blink/internal/blink1"
	"github.com/nerrad567/gray-logic-blink/internal/bus"
	"github.com/nerrad567/gray-logic-blink/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-blink/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-blink/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-blink/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-blink/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-blink/internal/pattern"
	"github.com/nerrad567/gray-logic-blink/internal/settings"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// options are the command line flags.
type options struct {
	tokenSubject string
	tokenRole    string
	ephemeral    bool
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}

	if opts.tokenSubject != "" {
		if err := printToken(os.Stdout, opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("graylogic-blink", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.tokenSubject, "token", "", "print an API token for `subject` and exit")
	fs.StringVar(&opts.tokenRole, "role", string(auth.RoleOperator), "role of the token printed by -token (viewer, operator, admin)")
	fs.BoolVar(&opts.ephemeral, "ephemeral", false, "keep settings and audit logs in memory only")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

// printToken mints an API token with the configured secret.
func printToken(w io.Writer, opts options) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if !cfg.AuthEnabled() {
		return fmt.Errorf("security.jwt.secret is not set: %w", auth.ErrNoSecret)
	}

	token, err := auth.GenerateToken(opts.tokenSubject, auth.Role(opts.tokenRole), cfg.Security.JWT.Secret, cfg.Security.JWT.AccessTokenTTL)
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}
	fmt.Fprintln(w, token)
	return nil
}

// run is the actual application logic, separated from main for testability.
// It blocks until ctx is cancelled, then shuts components down in reverse
// start order.
func run(ctx context.Context, opts options) error {
	log := logging.Default()
	log.Info("starting Gray Logic Blink",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", configPath, "level", cfg.Logging.Level)

	// Database
	db, err := openDatabase(cfg, opts.ephemeral)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", db.Path(), "ephemeral", opts.ephemeral)

	// Audit trail
	auditRepo := audit.NewSQLiteRepository(db.DB)
	recorder := audit.NewRecorder(auditRepo, log.Component("audit"))
	stopRecorder := startWorker(recorder.Run)
	defer stopRecorder()

	// MQTT
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	mqttClient.SetLogger(log.Component("mqtt"))
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// InfluxDB (optional)
	influxClient, err := connectInflux(cfg, log)
	if err != nil {
		return err
	}
	if influxClient != nil {
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
	}

	// Device sink
	var metrics blink1.Metrics
	if influxClient != nil {
		metrics = influxClient
	}
	sink := blink1.New(mqttClient, metrics, blink1.Config{
		Protocol: cfg.Device.Protocol,
		DeviceID: cfg.Device.ID,
		QoS:      byte(cfg.MQTT.QoS),
		Buffer:   cfg.Patterns.SinkBuffer,
	}, log.Component("blink1"))
	stopSink := startWorker(sink.Run)
	defer stopSink()

	// Pattern service
	templates, err := loadTemplates(cfg.Patterns.TemplatesFile)
	if err != nil {
		return err
	}
	svcOpts := pattern.Options{
		Sink:      sink,
		Store:     settings.NewStore(db.DB),
		Logger:    log.Component("pattern"),
		Templates: templates,
		Config:    pattern.ServiceConfig{PlayingSerialize: cfg.Patterns.PlayingSerialize},
	}
	if influxClient != nil {
		svcOpts.Events = influxClient
	}
	patterns := pattern.NewService(svcOpts)
	defer func() {
		log.Info("stopping pattern playback")
		patterns.Close()
	}()
	if initErr := patterns.Initialize(ctx); initErr != nil {
		return fmt.Errorf("loading patterns: %w", initErr)
	}
	log.Info("pattern service initialised",
		"patterns", len(patterns.Patterns()),
		"serialize", patterns.Config().PlayingSerialize,
	)

	// MQTT request bus
	requestBus, err := bus.New(bus.Options{
		MQTT:     mqttClient,
		Patterns: patterns,
		Audit:    recorder,
		Logger:   log.Component("bus"),
	})
	if err != nil {
		return fmt.Errorf("creating request bus: %w", err)
	}
	if startErr := requestBus.Start(); startErr != nil {
		return fmt.Errorf("starting request bus: %w", startErr)
	}
	defer requestBus.Stop()

	// REST API
	apiServer, err := api.New(api.Deps{
		Config:    cfg.API,
		WS:        cfg.WebSocket,
		Security:  cfg.Security,
		Logger:    log.Component("api"),
		Patterns:  patterns,
		Audit:     recorder,
		AuditRepo: auditRepo,
		Sink:      sink,
		Version:   version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := apiServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// startWorker runs fn in a goroutine. The returned func cancels fn's
// context and waits for it to return.
func startWorker(fn func(context.Context)) (stop func()) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn(ctx)
	}()
	return func() {
		cancel()
		<-done
	}
}

// getConfigPath returns the configuration file path from environment or default.
func getConfigPath() string {
	if path := os.Getenv("GRAYLOGIC_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

func openDatabase(cfg *config.Config, ephemeral bool) (*database.DB, error) {
	if ephemeral {
		return database.OpenMemory()
	}
	return database.Open(cfg.Database)
}

// connectInflux returns nil without error when InfluxDB is disabled.
func connectInflux(cfg *config.Config, log *logging.Logger) (*influxdb.Client, error) {
	client, err := influxdb.Connect(cfg.InfluxDB)
	if errors.Is(err, influxdb.ErrDisabled) {
		log.Info("InfluxDB disabled")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to InfluxDB: %w", err)
	}
	client.SetOnError(func(err error) {
		log.Error("InfluxDB write error", "error", err)
	})
	log.Info("InfluxDB connected",
		"url", cfg.InfluxDB.URL,
		"org", cfg.InfluxDB.Org,
		"bucket", cfg.InfluxDB.Bucket,
	)
	return client, nil
}

// loadTemplates returns the built-in patterns plus any from path.
func loadTemplates(path string) ([]pattern.Template, error) {
	templates := pattern.DefaultTemplates()
	if path == "" {
		return templates, nil
	}
	extra, err := pattern.LoadTemplatesFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading pattern templates: %w", err)
	}
	return append(templates, extra...), nil
}

// healthCheck verifies all infrastructure components are healthy.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
