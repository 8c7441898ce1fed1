package main

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagKeys maps command line flags to the config keys they override.
var flagKeys = map[string]string{
	"team-name":  "teamName",
	"ip":         "server.host",
	"port":       "server.port",
	"print-ants": "printAnts",
	"jobs":       "jobs.mode",
	"storage":    "storage.type",
	"log-level":  "logLevel",
	"logs-dir":   "logsDir",
	"tag":        "tag",
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("antclient", pflag.ContinueOnError)
	fs.SortFlags = false

	fs.StringP("team-name", "t", "Rust_pirates", "The team name under which the client registers at the server")
	fs.StringP("ip", "i", "127.0.0.1", "The ip address of the server")
	fs.Int("port", 5000, "The port of the server")
	fs.BoolP("print-ants", "p", false, "Print the team's ants to the console every turn")

	fs.String("config-dir", ".", "Directory containing antclient.cfg.json")
	fs.String("jobs", "default", "Role assignment mode: default, static or random")
	fs.String("storage", "memory", "Recording backend: memory, sqlite, postgres, websocket or none")
	fs.String("log-level", "info", "Log level: debug, info, warn or error")
	fs.String("logs-dir", "./antlogs", "Directory for log and status files")
	fs.String("tag", "ranked", "Tag stored with the recorded match")
	fs.BoolP("version", "v", false, "Print the version and exit")
	return fs
}

// bindFlags makes explicitly set flags win over the config file.
func bindFlags(fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			return fmt.Errorf("unknown flag %q", name)
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}
