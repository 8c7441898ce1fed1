package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0644))
	return dir
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"teamName": "Sugar_rush",
		"logLevel": "debug",
		"server": { "host": "10.10.10.32", "port": 5001 }
	}`)

	require.NoError(t, Load(dir))

	assert.Equal(t, "Sugar_rush", viper.GetString("teamName"))
	assert.Equal(t, "debug", viper.GetString("logLevel"))
	assert.Equal(t, "10.10.10.32", viper.GetString("server.host"))
	assert.Equal(t, 5001, viper.GetInt("server.port"))
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{}`)))

	assert.Equal(t, "Rust_pirates", viper.GetString("teamName"))
	assert.Equal(t, false, viper.GetBool("printAnts"))
	assert.Equal(t, "info", viper.GetString("logLevel"))
	assert.Equal(t, "./antlogs", viper.GetString("logsDir"))
	assert.Equal(t, "127.0.0.1", viper.GetString("server.host"))
	assert.Equal(t, 5000, viper.GetInt("server.port"))
	assert.Equal(t, "default", viper.GetString("jobs.mode"))
	assert.Equal(t, "memory", viper.GetString("storage.type"))
	assert.Equal(t, "3m", viper.GetString("storage.sqlite.dumpInterval"))
	assert.Equal(t, false, viper.GetBool("influx.enabled"))
	assert.Equal(t, "antclient", viper.GetString("otel.serviceName"))
	assert.Equal(t, "http://localhost:5000", viper.GetString("api.serverUrl"))
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(t.TempDir()))
	assert.Equal(t, "127.0.0.1:5000", GetServerConfig().Address())
}

func TestLoad_MalformedFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load(writeConfig(t, `{ "teamName": `))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestGetString(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testKey", "testValue")
	assert.Equal(t, "testValue", GetString("testKey"))
}

func TestGetInt(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testInt", 42)
	assert.Equal(t, 42, GetInt("testInt"))
}

func TestGetBool(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testBool", true)
	assert.Equal(t, true, GetBool("testBool"))
}

func TestGetServerConfig(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{
		"server": { "host": "::1", "port": 7000, "readTimeout": "2s" }
	}`)))

	sc := GetServerConfig()
	assert.Equal(t, "[::1]:7000", sc.Address())
	assert.Equal(t, 2*time.Second, sc.ReadTimeout)
	assert.Equal(t, 5*time.Second, sc.WriteTimeout)
	assert.Equal(t, 10*time.Second, sc.DialTimeout)
}

func TestGetJobsConfig(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{}`)))
	jc := GetJobsConfig()
	assert.Equal(t, JobsConfig{Mode: "default", Gatherers: 8, Offensive: 4, WasteMovers: 4}, jc)

	viper.Set("jobs.mode", "static")
	viper.Set("jobs.gatherers", 10)
	viper.Set("jobs.seed", 99)
	jc = GetJobsConfig()
	assert.Equal(t, "static", jc.Mode)
	assert.Equal(t, 10, jc.Gatherers)
	assert.Equal(t, int64(99), jc.Seed)
}

func TestGetStrategyConfig(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{ "strategy": { "maxAttackHealth": 9, "huntEnabled": false } }`)))

	sc := GetStrategyConfig()
	assert.Equal(t, 9, sc.MaxAttackHealth)
	assert.False(t, sc.HuntEnabled)
	assert.False(t, sc.ReturnHomeWhenIdle)
}

func TestGetStorageConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{}`)))

	cfg := GetStorageConfig()
	assert.Equal(t, "memory", cfg.Type)
	assert.Equal(t, "./recordings", cfg.Memory.OutputDir)
	assert.Equal(t, true, cfg.Memory.CompressOutput)
	assert.Equal(t, 3*time.Minute, cfg.SQLite.DumpInterval)
	assert.Equal(t, "antarena", cfg.Postgres.Database)
	assert.Equal(t, "ws://localhost:5000/ingest", cfg.WebSocket.URL)
}

func TestGetStorageConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"storage": {
			"type": "sqlite",
			"memory": { "outputDir": "/tmp/out", "compressOutput": false },
			"sqlite": { "dumpInterval": "10m" }
		}
	}`)
	require.NoError(t, Load(dir))

	sc := GetStorageConfig()
	assert.Equal(t, "sqlite", sc.Type)
	assert.Equal(t, "/tmp/out", sc.Memory.OutputDir)
	assert.Equal(t, false, sc.Memory.CompressOutput)
	assert.Equal(t, 10*time.Minute, sc.SQLite.DumpInterval)
}

func TestGetOTelConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{}`)))

	cfg := GetOTelConfig()
	assert.Equal(t, false, cfg.Enabled)
	assert.Equal(t, "antclient", cfg.ServiceName)
	assert.Equal(t, 5*time.Second, cfg.BatchTimeout)
	assert.Equal(t, "", cfg.Endpoint)
	assert.Equal(t, true, cfg.Insecure)
}

func TestGetOTelConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"otel": {
			"enabled": true,
			"serviceName": "my-client",
			"batchTimeout": "30s",
			"endpoint": "localhost:4318",
			"insecure": false
		}
	}`)
	require.NoError(t, Load(dir))

	oc := GetOTelConfig()
	assert.Equal(t, true, oc.Enabled)
	assert.Equal(t, "my-client", oc.ServiceName)
	assert.Equal(t, 30*time.Second, oc.BatchTimeout)
	assert.Equal(t, "localhost:4318", oc.Endpoint)
	assert.Equal(t, false, oc.Insecure)
}

func TestGetInfluxAndAPIConfig(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{ "influx": { "enabled": true, "bucket": "games" }, "api": { "upload": true } }`)))

	ic := GetInfluxConfig()
	assert.True(t, ic.Enabled)
	assert.Equal(t, "games", ic.Bucket)
	assert.Equal(t, "8086", ic.Port)

	ac := GetAPIConfig()
	assert.True(t, ac.Upload)
	assert.Equal(t, "http://localhost:5000", ac.ServerURL)
}
