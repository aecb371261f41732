package config

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	defaultServerPort     = "8080"
	defaultOddsServiceURL = "http://127.0.0.1:5000/api/weather-odds"
	defaultRedisAddr      = "localhost:6379"
	defaultCookieName     = "sid"
	defaultImagesDir      = "./web/images"
)

var once sync.Once
var logger *zap.SugaredLogger
var loggerOnce sync.Once

// configErrs holds load problems until a logger exists to report them.
var configErrs []configError

type configError struct {
	msg string
	err error
}

// isTestRun returns true if the current process is a Go test binary.
func isTestRun() bool {
	return flag.Lookup("test.v") != nil || filepath.Ext(os.Args[0]) == ".test"
}

// initConfig must not log: GetLogger calls it to read log.development.
func initConfig() {
	once.Do(func() {
		configErrs = loadConfig()
	})
}

func loadConfig() []configError {
	var errs []configError
	_ = godotenv.Load()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	root, err := getProjectRoot()
	if err != nil {
		return append(errs, configError{"Error finding project root", err})
	}
	viper.SetConfigType("yaml")
	viper.SetConfigName("config")
	viper.AddConfigPath(root)
	if err = viper.ReadInConfig(); err != nil {
		errs = append(errs, configError{"Error reading config file", err})
	}

	if isTestRun() {
		viper.SetConfigName("config_test")
		if err = viper.MergeInConfig(); err != nil {
			errs = append(errs, configError{"Error merging test config file", err})
		}
	}
	return errs
}

func logConfigErrors() {
	for _, ce := range configErrs {
		GetLogger().Errorw(ce.msg, "error", ce.err)
	}
	configErrs = nil
}

func getProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func getString(key, def string) string {
	initConfig()
	if v := viper.GetString(key); v != "" {
		return v
	}
	return def
}

// getDuration reads a duration key, falling back to def when unset or invalid.
func getDuration(key string, def time.Duration) time.Duration {
	initConfig()
	durStr := viper.GetString(key)
	if durStr == "" {
		return def
	}
	dur, err := time.ParseDuration(durStr)
	if err != nil {
		GetLogger().Warnw("Invalid duration in config, using default", "key", key, "value", durStr, "default", def)
		return def
	}
	return dur
}

// GetOddsServiceURL returns the full URL of the external weather odds endpoint.
func GetOddsServiceURL() string {
	return getString("odds_service.url", defaultOddsServiceURL)
}

// GetOddsServiceTimeout bounds a single call to the odds service. Zero disables the bound.
func GetOddsServiceTimeout() time.Duration {
	return getDuration("odds_service.timeout", 30*time.Second)
}

func GetRedisAddr() string {
	return getString("redis.addr", defaultRedisAddr)
}

func GetServerPort() string {
	return getString("server.port", defaultServerPort)
}

// GetServerTimeout returns one of the http.Server timeouts (read_header_timeout, read_timeout,
// write_timeout, idle_timeout, shutdown_timeout). Defaults to 15s.
func GetServerTimeout(key string) time.Duration {
	return getDuration("server."+key, 15*time.Second)
}

func GetSessionCookieName() string {
	return getString("session.cookie_name", defaultCookieName)
}

// GetSessionTTL is how long per-session keys (stored selections, last result) live in Redis.
func GetSessionTTL() time.Duration {
	return getDuration("session.ttl", 24*time.Hour)
}

func GetImagesDir() string {
	return getString("assets.images_dir", defaultImagesDir)
}

// ReloadConfigForTest resets the config singleton and reloads Viper config. Use only in tests.
func ReloadConfigForTest() {
	once = sync.Once{}
	initConfig()
	logConfigErrors()
}

func GetLogger() *zap.SugaredLogger {
	loggerOnce.Do(func() {
		var (
			l   *zap.Logger
			err error
		)
		initConfig()
		if viper.IsSet("log.development") && !viper.GetBool("log.development") {
			l, err = zap.NewProduction()
		} else {
			l, err = zap.NewDevelopment()
		}
		if err != nil {
			panic(err)
		}
		logger = l.Sugar()
		for _, ce := range configErrs {
			logger.Errorw(ce.msg, "error", ce.err)
		}
		configErrs = nil
	})
	return logger
}

// GetRateLimiterCleanupTimeout returns the rate limiter cleanup timeout as a time.Duration.
// Defaults to 3m if not set or invalid.
func GetRateLimiterCleanupTimeout() time.Duration {
	return getDuration("rate_limiter.cleanup_timeout", 3*time.Minute)
}

// GetTrustedProxies lists the proxy addresses (IPs or CIDRs) whose X-Forwarded-For header is
// believed. Empty means the header is ignored.
func GetTrustedProxies() []string {
	initConfig()
	return viper.GetStringSlice("rate_limiter.trusted_proxies")
}

// GetGlobalRateLimiterConfig returns the per-minute rate and burst for the per-IP limiter.
func GetGlobalRateLimiterConfig() (rate float64, burst int) {
	initConfig()
	rate = viper.GetFloat64("rate_limiter.global.rate")
	if rate == 0 {
		rate = 10
	}
	burst = viper.GetInt("rate_limiter.global.burst")
	if burst == 0 {
		burst = 10
	}
	return
}

// GetParamRateLimiterConfig returns the per-minute rate and burst for the per-IP, per-location limiter.
func GetParamRateLimiterConfig() (rate float64, burst int) {
	initConfig()
	rate = viper.GetFloat64("rate_limiter.param.rate")
	if rate == 0 {
		rate = 4
	}
	burst = viper.GetInt("rate_limiter.param.burst")
	if burst == 0 {
		burst = 4
	}
	return
}
