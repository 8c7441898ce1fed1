// Command antclient plays one ant-arena match for a team and records it.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/antarena/antclient/internal/api"
	"github.com/antarena/antclient/internal/client"
	"github.com/antarena/antclient/internal/config"
	"github.com/antarena/antclient/internal/dispatcher"
	"github.com/antarena/antclient/internal/influx"
	"github.com/antarena/antclient/internal/logging"
	"github.com/antarena/antclient/internal/match"
	"github.com/antarena/antclient/internal/monitor"
	intOtel "github.com/antarena/antclient/internal/otel"
	"github.com/antarena/antclient/internal/parser"
	"github.com/antarena/antclient/internal/roles"
	"github.com/antarena/antclient/internal/storage"
	"github.com/antarena/antclient/internal/strategy"
	"github.com/antarena/antclient/internal/worker"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version and BuildDate can be set at build time via ldflags.
var (
	Version   = "0.0.1"
	BuildDate = "unknown"
)

// Exit codes.
const (
	exitOK     = 0
	exitError  = 1
	exitConfig = 2
)

// shutdownTimeout bounds draining the recorder and flushing telemetry.
const shutdownTimeout = 15 * time.Second

type app struct {
	start       time.Time
	logs        *logging.SlogManager
	log         *slog.Logger
	logFile     *os.File
	logFilePath string
	otel        *intOtel.Provider

	backend    storage.Backend
	influx     *influx.Manager
	dispatcher *dispatcher.Dispatcher
	workers    *worker.Manager
	monitor    *monitor.Service
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet()
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitConfig
	}
	if v, _ := fs.GetBool("version"); v {
		fmt.Fprintf(stdout, "antclient %s (%s)\n", Version, BuildDate)
		return exitOK
	}

	configDir, _ := fs.GetString("config-dir")
	if err := config.Load(configDir); err != nil {
		fmt.Fprintln(stderr, err)
		return exitConfig
	}
	if err := bindFlags(fs); err != nil {
		fmt.Fprintln(stderr, err)
		return exitConfig
	}

	// everything that can be rejected is checked before dialing
	teamName := viper.GetString("teamName")
	if _, err := parser.EncodeRegister(teamName); err != nil {
		fmt.Fprintf(stderr, "invalid team name %q: %v\n", teamName, err)
		return exitConfig
	}
	jobs := config.GetJobsConfig()
	roleTable, err := roles.FromConfig(jobs, newRand(jobs.Seed, time.Now()))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitConfig
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{start: time.Now()}
	mc := match.NewContext()
	a.setupLogging(teamName, mc)
	defer a.shutdown()

	a.log.Info("Starting up...", "version", Version, "buildDate", BuildDate, "team", teamName)
	a.log.Info("Roles assigned", "mode", jobs.Mode, "roles", roles.Summary(roleTable))

	if err := a.setupRecording(ctx, teamName, mc); err != nil {
		a.log.Error("Recording setup failed", "error", err)
		return exitError
	}

	stratCfg := config.GetStrategyConfig()
	engine := strategy.NewEngine(
		strategyConfig(stratCfg),
		strategy.NewRandomPicker(newRand(stratCfg.Seed, time.Now())),
	)

	serverCfg := config.GetServerConfig()
	opts := client.Options{
		TeamName:      teamName,
		Roles:         roleTable,
		ReadTimeout:   serverCfg.ReadTimeout,
		WriteTimeout:  serverCfg.WriteTimeout,
		PrintAnts:     viper.GetBool("printAnts"),
		ClientVersion: Version,
		Tag:           viper.GetString("tag"),
		Logger:        a.log,
		Dispatcher:    a.dispatcher,
	}

	dialCtx, cancel := ctx, context.CancelFunc(func() {})
	if serverCfg.DialTimeout > 0 {
		dialCtx, cancel = context.WithTimeout(ctx, serverCfg.DialTimeout)
	}
	c, err := client.Dial(dialCtx, serverCfg.Address(), engine, opts)
	cancel()
	if err != nil {
		a.log.Error("Failed to join the match", "error", err)
		return exitError
	}
	defer c.Close()

	a.monitor = monitor.NewService(monitor.Dependencies{
		Logger:       a.log,
		MatchContext: mc,
		Client:       c,
		Writer:       a.workers,
		StatusDir:    viper.GetString("logsDir"),
	})
	if err := a.monitor.Start(); err != nil {
		a.log.Warn("Status monitor not started", "error", err)
	}

	result, err := c.Run(ctx)
	if err != nil {
		a.log.Error("Match ended abnormally", "turns", result.Turns, "error", err)
		return exitError
	}
	a.log.Info("Match finished", "turns", result.Turns, "reason", result.Reason)
	return exitOK
}

// setupRecording creates the storage backend, the optional InfluxDB writer
// and the dispatcher that feeds them.
func (a *app) setupRecording(ctx context.Context, teamName string, mc *match.Context) error {
	backend, err := initStorage(teamName, a.start, a.log)
	if err != nil {
		return err
	}
	a.backend = backend
	a.influx = a.setupInflux(ctx)

	d, err := dispatcher.New(logging.NewDispatcherLogger(a.logs.Component("dispatcher")))
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}
	a.dispatcher = d

	deps := worker.Dependencies{
		Logger:       a.logs.Component("worker"),
		MatchContext: mc,
	}
	if a.influx != nil {
		deps.Metrics = a.influx
	}
	a.workers = worker.NewManager(deps, a.backend)
	a.workers.RegisterHandlers(d)
	a.log.Debug("Worker handlers registered with dispatcher")
	return nil
}

// shutdown drains the recorder before closing the sinks it writes to, then
// uploads the export when configured.
func (a *app) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.dispatcher != nil {
		if err := a.dispatcher.Close(ctx); err != nil {
			a.log.Warn("Dispatcher did not drain", "error", err)
		}
	}
	if a.monitor != nil {
		a.monitor.Stop()
	}
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			a.log.Error("Failed to close storage backend", "error", err)
		}
		a.upload()
	}
	if a.influx != nil {
		if err := a.influx.Close(); err != nil {
			a.log.Warn("Failed to close InfluxDB client", "error", err)
		}
	}
	if a.otel != nil {
		if err := a.otel.Shutdown(ctx); err != nil {
			a.log.Warn("Failed to shut down OTel provider", "error", err)
		}
	}
	if a.logs != nil {
		_ = a.logs.Flush(ctx)
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

// upload sends the exported match to the replay server.
func (a *app) upload() {
	apiCfg := config.GetAPIConfig()
	if !apiCfg.Upload {
		return
	}
	up, ok := a.backend.(storage.Uploadable)
	if !ok {
		a.log.Debug("Storage backend produces no upload file")
		return
	}
	path := up.GetExportedFilePath()
	if path == "" {
		a.log.Warn("Nothing to upload, no match was exported")
		return
	}

	apiClient := api.New(apiCfg.ServerURL, apiCfg.APIKey)
	if err := apiClient.Healthcheck(); err != nil {
		a.log.Warn("Replay server unavailable, keeping local export", "error", err, "path", path)
		return
	}
	if err := apiClient.Upload(path, up.GetExportMetadata()); err != nil {
		a.log.Error("Failed to upload match", "error", err, "path", path)
		return
	}
	a.log.Info("Match uploaded", "server", apiCfg.ServerURL, "path", path)
}
