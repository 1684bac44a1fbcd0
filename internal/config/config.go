package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 10 * 1024 * 1024 // 10MB
	DefaultTemplateDir = "public"
	DefaultOutputDir   = "output"

	// EnvPrefix prefixes every environment variable, e.g. MANDAT_PORT
	EnvPrefix = "MANDAT"

	// Directory permissions
	DefaultDirPerm = 0o750
)

// ErrVersionRequested is returned by Load when --version is among the arguments
var ErrVersionRequested = errors.New("version requested")

// Config holds all configuration for the mandate service
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Template configuration
	TemplateDir string // directory holding Mandat.pdf
	OutputDir   string // where the MCP front-end writes generated mandates
	MappingFile string // optional YAML override of the field mapping table
	MaxFileSize int64  // maximum template size in bytes

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
	Debug      bool // emit mandate diagnostics regardless of LogLevel
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Mode:        ModeServer,
		Host:        DefaultHost,
		Port:        DefaultPort,
		TemplateDir: DefaultTemplateDir,
		OutputDir:   DefaultOutputDir,
		Version:     "1.0.0",
		ServerName:  "mandat-pdf",
		LogLevel:    DefaultLogLevel,
		MaxFileSize: DefaultMaxFileSize,
	}
}

// LoadFromFlags parses the process arguments and environment
func LoadFromFlags() (*Config, error) {
	return Load(os.Args[1:])
}

// Load builds a configuration from args, MANDAT_* environment variables and defaults,
// in that order of precedence
func Load(args []string) (*Config, error) {
	cfg := DefaultConfig()

	for _, arg := range args {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return nil, ErrVersionRequested
		}
	}

	v := setupViperEnvironment(cfg)
	flags := defineCommandLineFlags(cfg)
	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	populateConfigFromViper(v, cfg)

	for _, dir := range []*string{&cfg.TemplateDir, &cfg.OutputDir} {
		if *dir == "" {
			continue
		}
		if expandedPath, err := filepath.Abs(*dir); err == nil {
			*dir = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setupViperEnvironment configures a viper instance with environment variables and defaults
func setupViperEnvironment(cfg *Config) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("host", cfg.Host)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("templatedir", cfg.TemplateDir)
	v.SetDefault("outputdir", cfg.OutputDir)
	v.SetDefault("mapping", cfg.MappingFile)
	v.SetDefault("loglevel", cfg.LogLevel)
	v.SetDefault("maxfilesize", cfg.MaxFileSize)
	v.SetDefault("debug", cfg.Debug)
	return v
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) *pflag.FlagSet {
	flags := pflag.NewFlagSet(cfg.ServerName, pflag.ContinueOnError)
	flags.String("mode", cfg.Mode, "Front-end: 'server' for HTTP, 'stdio' for MCP standard I/O")
	flags.String("host", cfg.Host, "Server host address (server mode only)")
	flags.Int("port", cfg.Port, "Server port (server mode only)")
	flags.String("templatedir", cfg.TemplateDir, "Directory containing Mandat.pdf")
	flags.String("outputdir", cfg.OutputDir, "Directory receiving mandates generated over MCP")
	flags.String("mapping", cfg.MappingFile, "YAML file overriding the field mapping table")
	flags.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flags.Int64("maxfilesize", cfg.MaxFileSize, "Maximum template size in bytes")
	flags.Bool("debug", cfg.Debug, "Emit field-level filling diagnostics")
	flags.Usage = func() { usage(flags) }
	return flags
}

func usage(flags *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\nMandat PDF - generates vehicle registration mandates from a PDF template\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flags.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  %s --templatedir=./public                 # HTTP server (default)\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  %s --mode=stdio --outputdir=/tmp/mandats  # MCP over stdio\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  %s --host=0.0.0.0 --port=8081 --debug     # all interfaces, diagnostics on\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
	fmt.Fprintf(os.Stderr, "  MANDAT_MODE         Front-end mode\n")
	fmt.Fprintf(os.Stderr, "  MANDAT_HOST         Server host\n")
	fmt.Fprintf(os.Stderr, "  MANDAT_PORT         Server port\n")
	fmt.Fprintf(os.Stderr, "  MANDAT_TEMPLATEDIR  Template directory\n")
	fmt.Fprintf(os.Stderr, "  MANDAT_OUTPUTDIR    Output directory\n")
	fmt.Fprintf(os.Stderr, "  MANDAT_MAPPING      Mapping override file\n")
	fmt.Fprintf(os.Stderr, "  MANDAT_LOGLEVEL     Log level\n")
	fmt.Fprintf(os.Stderr, "  MANDAT_MAXFILESIZE  Maximum template size\n")
	fmt.Fprintf(os.Stderr, "  MANDAT_DEBUG        Filling diagnostics\n")
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) {
	cfg.Mode = v.GetString("mode")
	cfg.Host = v.GetString("host")
	cfg.Port = v.GetInt("port")
	cfg.TemplateDir = v.GetString("templatedir")
	cfg.OutputDir = v.GetString("outputdir")
	cfg.MappingFile = v.GetString("mapping")
	cfg.LogLevel = v.GetString("loglevel")
	cfg.MaxFileSize = v.GetInt64("maxfilesize")
	cfg.Debug = v.GetBool("debug")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	// The template directory is read-only storage; a missing one is reported per
	// request as a missing template rather than created here.
	if c.TemplateDir == "" {
		return errors.New("template directory cannot be empty")
	}

	if c.Mode == ModeStdio {
		if c.OutputDir == "" {
			return errors.New("output directory cannot be empty in stdio mode")
		}
		if _, err := os.Stat(c.OutputDir); os.IsNotExist(err) {
			if err := os.MkdirAll(c.OutputDir, DefaultDirPerm); err != nil {
				return fmt.Errorf("cannot create output directory %s: %w", c.OutputDir, err)
			}
		} else if err != nil {
			return fmt.Errorf("cannot access output directory %s: %w", c.OutputDir, err)
		}
	}

	if c.MappingFile != "" {
		if _, err := os.Stat(c.MappingFile); err != nil {
			return fmt.Errorf("cannot access mapping file %s: %w", c.MappingFile, err)
		}
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if filling diagnostics should be logged
func (c *Config) IsDebug() bool {
	return c.Debug || c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, TemplateDir: %s, OutputDir: %s, "+
		"MappingFile: %s, LogLevel: %s, Debug: %t, MaxFileSize: %d}",
		c.Mode, c.Host, c.Port, c.TemplateDir, c.OutputDir, c.MappingFile, c.LogLevel, c.Debug, c.MaxFileSize)
}

// IsServerMode returns true if the HTTP front-end is selected
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the MCP stdio front-end is selected
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
