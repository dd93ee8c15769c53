package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Broker struct {
		URL      string `mapstructure:"url"`
		Exchange string `mapstructure:"exchange"`
	} `mapstructure:"broker"`
	Breaker struct {
		Default struct {
			FailureThreshold int           `mapstructure:"failure_threshold"`
			ResetTimeout     time.Duration `mapstructure:"reset_timeout"`
		} `mapstructure:"default"`
		Resources map[string]struct {
			FailureThreshold int `mapstructure:"failure_threshold"`
		} `mapstructure:"resources"`
	} `mapstructure:"breaker"`
	Gateway struct {
		PublicPaths []string `mapstructure:"public_paths"`
	} `mapstructure:"gateway"`
	Server struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"server"`
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoaderBuilder_Priority(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", `
broker:
  url: amqp://file:5672/
  exchange: from-file
breaker:
  default:
    failure_threshold: 5
    reset_timeout: 10s
server:
  port: 8080
`)
	writeFile(t, dir, "test.yaml", `
broker:
  exchange: from-env-file
`)

	t.Setenv("MARKET_ENV", "test")
	t.Setenv("MARKET_BROKER_URL", "amqp://env:5672/")
	t.Setenv("MARKET_BREAKER__DEFAULT__RESET_TIMEOUT", "30s")
	t.Setenv("MARKET_BREAKER__RESOURCES__CUSTOMER__FAILURE_THRESHOLD", "9")
	t.Setenv("MARKET_GATEWAY__PUBLIC_PATHS", "/customer/login,/customer/signup")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 0, "")
	flags.String("exchange", "", "")
	require.NoError(t, flags.Parse([]string{"--port=9999"}))

	loader, err := NewLoaderBuilder().
		WithDefaults(map[string]any{"breaker": map[string]any{"default": map[string]any{"failure_threshold": 3}}}).
		WithConfigPath(dir).
		WithEnvPrefix("MARKET").
		WithEnvBindings(map[string]string{"broker.url": "BROKER_URL"}).
		WithFlags(flags, map[string]string{"port": "server.port", "exchange": "broker.exchange"}).
		Build()
	require.NoError(t, err)

	var cfg testConfig
	require.NoError(t, loader.Unmarshal(&cfg))

	assert.Equal(t, "amqp://env:5672/", cfg.Broker.URL, "explicit env binding beats file")
	assert.Equal(t, "from-env-file", cfg.Broker.Exchange, "<env>.yaml beats config.yaml; unset flag ignored")
	assert.Equal(t, 5, cfg.Breaker.Default.FailureThreshold, "file beats defaults")
	assert.Equal(t, 30*time.Second, cfg.Breaker.Default.ResetTimeout, "nested env key")
	assert.Equal(t, 9, cfg.Breaker.Resources["customer"].FailureThreshold)
	assert.Equal(t, []string{"/customer/login", "/customer/signup"}, cfg.Gateway.PublicPaths)
	assert.Equal(t, 9999, cfg.Server.Port, "flag beats everything")

	assert.Equal(t, []string{filepath.Join(dir, "config.yaml"), filepath.Join(dir, "test.yaml")}, loader.GetLoadedFiles())
}

func TestFileSource_Missing(t *testing.T) {
	data, err := NewFileSource(filepath.Join(t.TempDir(), "nope.yaml"), 10).Load()
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestFileSource_Invalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "broker: [unterminated")

	loader := NewLoader()
	loader.AddSource(NewFileSource(filepath.Join(dir, "config.yaml"), 10))
	assert.Error(t, loader.Load())
}

func TestEnvSource(t *testing.T) {
	src := NewEnvSource("MARKET_", 50)
	src.environ = func() []string {
		return []string{
			"MARKET_REDIS__ADDR=localhost:6379",
			"MARKET_BROKER_URL=amqp://x/",
			"MARKET_CUSTOMER_SERVICE_URL=http://customer:8001",
			"OTHER__KEY=ignored",
			"MARKET_EMPTY__VALUE=",
		}
	}
	src.AddBinding("gateway.services.customer.base_url", "CUSTOMER_SERVICE_URL")

	data, err := src.Load()
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"redis.addr":                        "localhost:6379",
		"gateway.services.customer.base_url": "http://customer:8001",
	}, data, "unbound single-underscore names are not guessed")
	assert.Equal(t, "env:MARKET", src.Name())
}

func TestUnflatten(t *testing.T) {
	got := unflatten(map[string]any{
		"a":     1,
		"a.b":   2,
		"c.d.e": 3,
	})
	assert.Equal(t, map[string]any{
		"a": map[string]any{"b": 2},
		"c": map[string]any{"d": map[string]any{"e": 3}},
	}, got)
}

func TestGetEnv(t *testing.T) {
	t.Setenv("MARKET_ENV", "")
	t.Setenv("APP_ENV", "")
	assert.Equal(t, "dev", GetEnv())

	t.Setenv("APP_ENV", "staging")
	assert.Equal(t, "staging", GetEnv())

	t.Setenv("MARKET_ENV", "prod")
	assert.Equal(t, "prod", GetEnv())
}
