package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/antarena/antclient/internal/config"
	"github.com/antarena/antclient/internal/influx"
	"github.com/antarena/antclient/internal/logging"
	"github.com/antarena/antclient/internal/match"
	intOtel "github.com/antarena/antclient/internal/otel"
	"github.com/antarena/antclient/internal/strategy"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// setupLogging opens the session log file and wires slog to the console,
// the file and, when enabled, the OTel log provider.
func (a *app) setupLogging(teamName string, mc *match.Context) {
	a.logs = logging.NewSlogManager()
	a.logs.Setup(logging.Options{Level: viper.GetString("logLevel")})
	a.log = a.logs.Logger()

	logsDir := viper.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		a.log.Error("Failed to create logs directory", "error", err, "path", logsDir)
	}

	a.logFilePath = logging.LogFilePath(logsDir, teamName, a.start)
	file, err := os.OpenFile(a.logFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		a.log.Error("Failed to create/open log file!", "error", err, "path", a.logFilePath)
	} else {
		a.logFile = file
	}

	var fileWriter io.Writer
	if a.logFile != nil {
		fileWriter = a.logFile
	}

	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		a.otel, err = intOtel.New(intOtel.FromConfig(otelCfg, teamName, Version, fileWriter))
		if err != nil {
			a.log.Error("Failed to initialize OTel provider", "error", err)
			a.otel = nil
		} else if otelCfg.Endpoint != "" {
			a.log.Info("OTel provider initialized", "file", a.logFilePath, "endpoint", otelCfg.Endpoint)
		} else {
			a.log.Info("OTel provider initialized", "file", a.logFilePath)
		}
	}

	var provider *sdklog.LoggerProvider
	if a.otel != nil {
		provider = a.otel.LoggerProvider()
	}
	a.logs.Setup(logging.Options{
		File:        fileWriter,
		Console:     true,
		Level:       viper.GetString("logLevel"),
		Provider:    provider,
		ServiceName: otelCfg.ServiceName,
		Context:     mc.LogAttrs,
	})
	a.log = a.logs.Logger()
	slog.SetDefault(a.log)
	a.log.Info("Logging to file", "path", a.logFilePath)
}

// setupInflux connects to InfluxDB when enabled. An unreachable server is
// not fatal: points go to a gzip backup next to the logs.
func (a *app) setupInflux(ctx context.Context) *influx.Manager {
	cfg := config.GetInfluxConfig()
	if !cfg.Enabled {
		return nil
	}

	var w io.Writer = os.Stdout
	if a.logFile != nil {
		w = a.logFile
	}
	backup := filepath.Join(
		viper.GetString("logsDir"),
		fmt.Sprintf("influx_backup.%s.log.gz", a.start.Format("20060102_150405")),
	)
	m := influx.NewManager(cfg, logging.NewZerolog(w, viper.GetString("logLevel")), backup)
	if err := m.Connect(ctx); err != nil {
		a.log.Warn("InfluxDB unavailable, turn metrics disabled", "error", err)
		_ = m.Close()
		return nil
	}
	return m
}

// strategyConfig converts the loaded settings. Health is a nibble, so the
// attack ceiling is clamped to 0..15.
func strategyConfig(c config.StrategyConfig) strategy.Config {
	ceiling := c.MaxAttackHealth
	switch {
	case ceiling < 0:
		ceiling = 0
	case ceiling > 15:
		ceiling = 15
	}
	return strategy.Config{
		MaxAttackHealth:    uint8(ceiling),
		HuntEnabled:        c.HuntEnabled,
		ReturnHomeWhenIdle: c.ReturnHomeWhenIdle,
	}
}

// newRand returns a generator for seed, or a time-seeded one for 0.
func newRand(seed int64, now time.Time) *rand.Rand {
	if seed == 0 {
		seed = now.UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
