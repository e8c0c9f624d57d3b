// Package config assembles the runtime options from defaults, an optional
// JSON file, command-line flags and environment variables.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported store drivers for DatabaseDSN.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"server_address"`

	// ResultHostname is the public base address short URLs are built from.
	ResultHostname string `json:"base_url"`

	// FilePath is the JSON lines file backing the file store.
	FilePath string `json:"file_storage_path"`

	// DatabaseDSN selects the SQL store when non-empty.
	DatabaseDSN string `json:"database_dsn"`

	// DatabaseDriver is "pgx" or "sqlite".
	DatabaseDriver string `json:"database_driver"`

	EnablePprof bool `json:"enable_pprof"`

	// EnableHTTPS serves TLS with autocert for the base address host.
	EnableHTTPS bool `json:"enable_https"`

	// Config is the path of the JSON config file.
	Config string `json:"-"`

	// GRPCPort enables the gRPC server when non-zero.
	GRPCPort int `json:"grpc_port"`

	// LookupEndpoint, when set, makes the dispatcher resolve slugs over HTTP
	// against another instance instead of the local store.
	LookupEndpoint string `json:"lookup_endpoint"`

	StaticDir string `json:"static_dir"`

	// RequestTimeout bounds each HTTP request and each remote lookup.
	RequestTimeout time.Duration `json:"-"`

	// SlugAttempts bounds slug generation per creation.
	SlugAttempts int `json:"slug_attempts"`

	// DetailedErrors replaces the bare 403 on creation failures with a
	// distinct status and reason.
	DetailedErrors bool `json:"detailed_errors"`

	LogLevel string `json:"log_level"`

	// TrustedSubnet restricts the metrics and profiling endpoints to a
	// CIDR. Empty leaves them open.
	TrustedSubnet string `json:"trusted_subnet"`
}

func defaults() *Options {
	return &Options{
		Port:           "localhost:8080",
		ResultHostname: "http://localhost:8080",
		DatabaseDriver: DriverPostgres,
		Config:         "config.json",
		RequestTimeout: 3 * time.Second,
		SlugAttempts:   32,
		LogLevel:       "info",
	}
}

// bind registers the flags on fs, using the current values of o as defaults.
func bind(fs *flag.FlagSet, o *Options) {
	fs.StringVar(&o.Port, "a", o.Port, "run on ip:port server")
	fs.StringVar(&o.ResultHostname, "b", o.ResultHostname, "result base url")
	fs.StringVar(&o.FilePath, "f", o.FilePath, "path to storage file")
	fs.StringVar(&o.DatabaseDSN, "d", o.DatabaseDSN, "db address")
	fs.StringVar(&o.DatabaseDriver, "driver", o.DatabaseDriver, "database driver: pgx or sqlite")
	fs.BoolVar(&o.EnablePprof, "p", o.EnablePprof, "enable pprof")
	fs.BoolVar(&o.EnableHTTPS, "s", o.EnableHTTPS, "enable https")
	fs.StringVar(&o.Config, "c", o.Config, "path to JSON config file")
	fs.IntVar(&o.GRPCPort, "g", o.GRPCPort, "gRPC port, 0 disables gRPC")
	fs.StringVar(&o.LookupEndpoint, "l", o.LookupEndpoint, "remote lookup endpoint")
	fs.StringVar(&o.StaticDir, "static", o.StaticDir, "directory with static assets")
	fs.DurationVar(&o.RequestTimeout, "t", o.RequestTimeout, "per-request timeout")
	fs.IntVar(&o.SlugAttempts, "m", o.SlugAttempts, "max slug generation attempts")
	fs.BoolVar(&o.DetailedErrors, "e", o.DetailedErrors, "detailed creation errors")
	fs.StringVar(&o.LogLevel, "log-level", o.LogLevel, "log level")
	fs.StringVar(&o.TrustedSubnet, "ts", o.TrustedSubnet, "trusted subnet (CIDR) for operator endpoints")
}

// Parse builds Options from os.Args, a .env file if present, and the
// process environment.
func Parse() (*Options, error) {
	_ = godotenv.Load()
	return ParseArgs(os.Args[1:])
}

// ParseArgs builds a fresh Options. Later sources win:
// defaults, JSON config file, flags, environment.
func ParseArgs(args []string) (*Options, error) {
	opts := defaults()

	// first pass only locates the config file
	probe := defaults()
	fs := flag.NewFlagSet("shortener", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	bind(fs, probe)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfgPath := probe.Config
	if v := os.Getenv("CONFIG"); v != "" {
		cfgPath = v
	}
	if err := loadFile(cfgPath, opts); err != nil {
		return nil, err
	}
	opts.Config = cfgPath

	fs = flag.NewFlagSet("shortener", flag.ContinueOnError)
	bind(fs, opts)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.Config = cfgPath

	if err := applyEnv(opts); err != nil {
		return nil, err
	}

	opts.ResultHostname = strings.TrimRight(opts.ResultHostname, "/")

	if err := opts.validate(); err != nil {
		return nil, err
	}

	return opts, nil
}

// loadFile overlays the JSON file at path onto o. A missing file is not an
// error; keys absent from the file keep their current value.
func loadFile(path string, o *Options) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}

	if err := json.Unmarshal(data, o); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	return nil
}

func applyEnv(o *Options) error {
	strs := map[string]*string{
		"SERVER_ADDRESS":    &o.Port,
		"BASE_URL":          &o.ResultHostname,
		"FILE_STORAGE_PATH": &o.FilePath,
		"DATABASE_DSN":      &o.DatabaseDSN,
		"DATABASE_DRIVER":   &o.DatabaseDriver,
		"LOOKUP_ENDPOINT":   &o.LookupEndpoint,
		"STATIC_DIR":        &o.StaticDir,
		"LOG_LEVEL":         &o.LogLevel,
		"TRUSTED_SUBNET":    &o.TrustedSubnet,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"ENABLE_PPROF":    &o.EnablePprof,
		"ENABLE_HTTPS":    &o.EnableHTTPS,
		"DETAILED_ERRORS": &o.DetailedErrors,
	}
	for key, dst := range bools {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = b
		}
	}

	ints := map[string]*int{
		"GRPC_PORT":     &o.GRPCPort,
		"SLUG_ATTEMPTS": &o.SlugAttempts,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}

	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("REQUEST_TIMEOUT: %w", err)
		}
		o.RequestTimeout = d
	}

	return nil
}

func (o *Options) validate() error {
	switch o.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver %q", o.DatabaseDriver)
	}

	if o.SlugAttempts <= 0 {
		return fmt.Errorf("slug attempts must be positive, got %d", o.SlugAttempts)
	}
	if o.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", o.RequestTimeout)
	}
	if o.GRPCPort < 0 || o.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port %d", o.GRPCPort)
	}

	return nil
}
