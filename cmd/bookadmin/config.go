package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/bookadmin/internal/apiclient"
	"github.com/nkiryanov/bookadmin/internal/apperrors"
	"github.com/nkiryanov/bookadmin/internal/logger"
	"github.com/nkiryanov/bookadmin/internal/tokenstore"
)

// Token store backends
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

const (
	defaultListenAddr   = "localhost:8080"
	defaultAPIBaseURL   = "http://localhost:8000/api"
	defaultLoggingLevel = logger.LevelInfo
	defaultEnvironment  = logger.EnvProduction
	defaultTokenStore   = StoreFile
	defaultProfile      = "default"
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address the console views are served on
	ListenAddr string

	// Bookstore API base url, with the /api prefix
	APIBaseURL string

	// Environment
	Environment string

	// Where the credential survives restarts: memory, file, redis or postgres
	TokenStore string

	// Credential file for the file store
	TokenFile string

	// Redis address for the redis store
	RedisAddr string

	// Database for the postgres store
	DatabaseDSN string

	// Name the credential is saved under in redis and postgres. Lets several consoles share one server
	Profile string

	// Timeout of every API request
	RequestTimeout time.Duration
}

func NewConfig() *Config {
	return &Config{
		LogLevel:       defaultLoggingLevel,
		ListenAddr:     defaultListenAddr,
		APIBaseURL:     defaultAPIBaseURL,
		Environment:    defaultEnvironment,
		TokenStore:     defaultTokenStore,
		TokenFile:      tokenstore.DefaultFilePath(),
		Profile:        defaultProfile,
		RequestTimeout: apiclient.DefaultTimeout,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		return c.LoadEnv(func(key string) string {
			return envMap[key]
		})
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) error {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = value
			}
			return nil
		}
	}
	setDuration := func(o *time.Duration) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			*o = d
			return nil
		}
	}

	envMap := map[string]func(string) error{
		"RUN_ADDRESS":     setString(&c.ListenAddr),
		"API_BASE_URL":    setString(&c.APIBaseURL),
		"LOG_LEVEL":       setString(&c.LogLevel),
		"ENVIRONMENT":     setString(&c.Environment),
		"TOKEN_STORE":     setString(&c.TokenStore),
		"TOKEN_FILE":      setString(&c.TokenFile),
		"REDIS_ADDR":      setString(&c.RedisAddr),
		"DATABASE_URI":    setString(&c.DatabaseDSN),
		"PROFILE":         setString(&c.Profile),
		"REQUEST_TIMEOUT": setDuration(&c.RequestTimeout),
	}

	for key, parseFn := range envMap {
		if err := parseFn(getenv(key)); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}
	return nil
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("bookadmin", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Console listen address")
	fs.StringVarP(&c.APIBaseURL, "api", "u", c.APIBaseURL, "Bookstore API base url")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")
	fs.StringVarP(&c.TokenStore, "token-store", "t", c.TokenStore, "Token store (memory, file, redis, postgres)")
	fs.StringVarP(&c.TokenFile, "token-file", "f", c.TokenFile, "Credential file of the file token store")
	fs.StringVarP(&c.RedisAddr, "redis", "r", c.RedisAddr, "Redis address of the redis token store")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string of the postgres token store")
	fs.StringVarP(&c.Profile, "profile", "p", c.Profile, "Name the credential is stored under")
	fs.DurationVar(&c.RequestTimeout, "timeout", c.RequestTimeout, "Timeout of API requests")

	return fs.Parse(args)
}

// Validate checks that the chosen token store has what it needs
func (c *Config) Validate() error {
	switch c.TokenStore {
	case StoreMemory:
	case StoreFile:
		if c.TokenFile == "" {
			return fmt.Errorf("%w: %s needs a token file", apperrors.ErrInvalidStoreBackend, c.TokenStore)
		}
	case StoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: %s needs a redis address", apperrors.ErrInvalidStoreBackend, c.TokenStore)
		}
	case StorePostgres:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("%w: %s needs a database", apperrors.ErrInvalidStoreBackend, c.TokenStore)
		}
	default:
		return fmt.Errorf("%w: %q", apperrors.ErrInvalidStoreBackend, c.TokenStore)
	}

	if c.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}
	return nil
}
