// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/bionova/seqdiff/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete seqdiff configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Alignment limits
	Align AlignConfig `toml:"align" json:"align"`

	// HTTP API server
	Server ServerConfig `toml:"server" json:"server"`

	// Verification collaborator
	Verify VerifyConfig `toml:"verify" json:"verify"`

	// Comparison ledger
	Storage StorageConfig `toml:"storage" json:"storage"`

	// Terminal rendering
	UI UIConfig `toml:"ui" json:"ui"`
}

// AlignConfig bounds the work a single comparison may do.
type AlignConfig struct {
	// MaxLength is the longest sequence accepted from untrusted input (0 = unlimited).
	// The aligner is quadratic in time and memory.
	MaxLength int `toml:"max_length" json:"max_length"`
}

// ServerConfig contains HTTP API settings.
type ServerConfig struct {
	Host string `toml:"host" json:"host"`
	Port int    `toml:"port" json:"port"`
	// RateLimit is the sustained requests per second allowed per client IP (0 disables)
	RateLimit float64 `toml:"rate_limit" json:"rate_limit"`
	// RateBurst is the token bucket size per client IP
	RateBurst int `toml:"rate_burst" json:"rate_burst"`
	// CORSOrigins lists allowed browser origins ("*" allows any)
	CORSOrigins []string `toml:"cors_origins" json:"cors_origins"`
	// MaxBodyBytes caps request bodies
	MaxBodyBytes int64 `toml:"max_body_bytes" json:"max_body_bytes"`
}

// VerifyConfig contains verification settings.
type VerifyConfig struct {
	// Mode is "simulate" or "gateway"
	Mode         string `toml:"mode" json:"mode"`
	GatewayURL   string `toml:"gateway_url" json:"gateway_url"`
	GatewayToken string `toml:"gateway_token" json:"gateway_token"`
	Network      string `toml:"network" json:"network"`
	// ExplorerURL is the transaction link prefix; the tx hash is appended
	ExplorerURL string `toml:"explorer_url" json:"explorer_url"`
	Wallet      string `toml:"wallet" json:"wallet"`
	TimeoutSecs int    `toml:"timeout_secs" json:"timeout_secs"`
	Workers     int    `toml:"workers" json:"workers"`
	// IncludeSequences submits the raw sequences alongside the content hash
	IncludeSequences bool `toml:"include_sequences" json:"include_sequences"`
	// TOTPSecret enables approval codes for submissions when set
	TOTPSecret string `toml:"totp_secret" json:"totp_secret"`
}

// StorageConfig contains ledger settings.
type StorageConfig struct {
	// Path is the SQLite database file (empty = ~/.seqdiff/seqdiff.db)
	Path string `toml:"path" json:"path"`
}

// UIConfig contains rendering settings.
type UIConfig struct {
	// WrapWidth is the render width when the terminal size is unknown
	WrapWidth int `toml:"wrap_width" json:"wrap_width"`
	// BlockSize fixes alignment columns per block (0 = fit to width)
	BlockSize int `toml:"block_size" json:"block_size"`
	// Context is the number of unchanged columns kept around each hunk
	Context int `toml:"context" json:"context"`
}

// Verification modes.
const (
	ModeSimulate = "simulate"
	ModeGateway  = "gateway"
)

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// DefaultMaxLength bounds untrusted input. Alignment keeps an
// (n+1)x(m+1) int32 matrix, about 100 MB at this length.
const DefaultMaxLength = 5000

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Align: AlignConfig{
			MaxLength: DefaultMaxLength,
		},

		Server: ServerConfig{
			Host:         "127.0.0.1",
			Port:         8420,
			RateLimit:    10,
			RateBurst:    20,
			CORSOrigins:  []string{"*"},
			MaxBodyBytes: 1 << 20,
		},

		Verify: VerifyConfig{
			Mode:        ModeSimulate,
			Network:     "Base",
			ExplorerURL: "https://basescan.org/tx/",
			TimeoutSecs: 60,
			Workers:     2,
		},

		UI: UIConfig{
			WrapWidth: 100,
			BlockSize: 0,
			Context:   3,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the seqdiff configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".seqdiff"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// DatabasePath returns the ledger path, resolving the default location.
func (c *Config) DatabasePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "seqdiff.db"), nil
}

// Addr returns the server listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// VerifyTimeout returns the per-submission timeout.
func (c *Config) VerifyTimeout() time.Duration {
	return time.Duration(c.Verify.TimeoutSecs) * time.Second
}

// ensureSecurePermissions tightens config files that may hold gateway tokens.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
//
// A file that exists but fails to decode is reported alongside the defaults,
// so callers can warn and continue.
func Load() (*Config, error) {
	var loadErr error

	for _, pathFn := range []func() (string, error){ConfigPathTOML, ConfigPathJSON} {
		path, err := pathFn()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		cfg, err := LoadFromPath(path)
		if err == nil {
			return cfg, nil
		}
		if loadErr == nil {
			loadErr = err
		}
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, loadErr
}

// LoadTOML loads configuration from a TOML file into cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON loads configuration from a JSON file into cfg.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full validation.
// Keys missing from the file keep their default values.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf strings.Builder
	buf.WriteString("# seqdiff configuration file\n")
	buf.WriteString("# Generated by seqdiff - edit with care\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, []byte(buf.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file with 0600 permissions.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors as ValidateErrors.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...interface{}) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// Align
	if c.Align.MaxLength < 0 {
		add("align.max_length", "cannot be negative, got %d", c.Align.MaxLength)
	}

	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		add("server.port", "must be 1-65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimit < 0 {
		add("server.rate_limit", "cannot be negative, got %g", c.Server.RateLimit)
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst < 1 {
		add("server.rate_burst", "must be at least 1 when rate_limit is set, got %d", c.Server.RateBurst)
	}
	if c.Server.MaxBodyBytes < 1 {
		add("server.max_body_bytes", "must be positive, got %d", c.Server.MaxBodyBytes)
	}

	// Verify
	switch strings.ToLower(c.Verify.Mode) {
	case ModeSimulate:
	case ModeGateway:
		if c.Verify.GatewayURL == "" {
			add("verify.gateway_url", "required when mode is '%s'", ModeGateway)
		}
	default:
		add("verify.mode", "invalid mode '%s', must be one of: %s, %s", c.Verify.Mode, ModeSimulate, ModeGateway)
	}
	if c.Verify.GatewayURL != "" {
		if u, err := url.Parse(c.Verify.GatewayURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			add("verify.gateway_url", "must be an http(s) URL, got '%s'", c.Verify.GatewayURL)
		}
	}
	if c.Verify.ExplorerURL != "" {
		if _, err := url.Parse(c.Verify.ExplorerURL); err != nil {
			add("verify.explorer_url", "invalid URL: %v", err)
		}
	}
	if c.Verify.TimeoutSecs < 1 {
		add("verify.timeout_secs", "must be at least 1, got %d", c.Verify.TimeoutSecs)
	}
	if c.Verify.Workers < 1 || c.Verify.Workers > 64 {
		add("verify.workers", "must be 1-64, got %d", c.Verify.Workers)
	}

	// UI
	if c.UI.WrapWidth < 20 {
		add("ui.wrap_width", "must be at least 20, got %d", c.UI.WrapWidth)
	}
	if c.UI.BlockSize < 0 {
		add("ui.block_size", "cannot be negative, got %d", c.UI.BlockSize)
	}
	if c.UI.Context < 0 {
		add("ui.context", "cannot be negative, got %d", c.UI.Context)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills zero values that have no meaningful zero setting.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Server.Host == "" {
		c.Server.Host = defaults.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaults.Server.Port
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = defaults.Server.MaxBodyBytes
	}
	if c.Verify.Mode == "" {
		c.Verify.Mode = defaults.Verify.Mode
	}
	c.Verify.Mode = strings.ToLower(c.Verify.Mode)
	if c.Verify.Network == "" {
		c.Verify.Network = defaults.Verify.Network
	}
	if c.Verify.TimeoutSecs == 0 {
		c.Verify.TimeoutSecs = defaults.Verify.TimeoutSecs
	}
	if c.Verify.Workers == 0 {
		c.Verify.Workers = defaults.Verify.Workers
	}
	if c.UI.WrapWidth == 0 {
		c.UI.WrapWidth = defaults.UI.WrapWidth
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - SEQDIFF_PORT: overrides server.port
//   - SEQDIFF_DB: overrides storage.path
//   - SEQDIFF_VERIFY_MODE: overrides verify.mode
//   - SEQDIFF_GATEWAY_URL: overrides verify.gateway_url
//   - SEQDIFF_GATEWAY_TOKEN: overrides verify.gateway_token
//   - SEQDIFF_WALLET: overrides verify.wallet
//   - SEQDIFF_NETWORK: overrides verify.network
func (c *Config) ApplyEnvOverrides() {
	if port := os.Getenv("SEQDIFF_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		} else {
			fmt.Fprintf(os.Stderr, "Warning: ignoring invalid SEQDIFF_PORT %q\n", port)
		}
	}

	if db := os.Getenv("SEQDIFF_DB"); db != "" {
		c.Storage.Path = db
	}

	if mode := os.Getenv("SEQDIFF_VERIFY_MODE"); mode != "" {
		c.Verify.Mode = mode
	}

	if gw := os.Getenv("SEQDIFF_GATEWAY_URL"); gw != "" {
		c.Verify.GatewayURL = gw
	}

	if token := os.Getenv("SEQDIFF_GATEWAY_TOKEN"); token != "" {
		c.Verify.GatewayToken = token
	}

	if wallet := os.Getenv("SEQDIFF_WALLET"); wallet != "" {
		c.Verify.Wallet = wallet
	}

	if network := os.Getenv("SEQDIFF_NETWORK"); network != "" {
		c.Verify.Network = network
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "server.port").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "verify.mode").
// String values are converted to the field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

// lookup resolves a dotted key to a leaf field.
func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})

		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("field '%s' is a section, not a value", key)
			}
			return field, nil
		}

		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}

	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			boolVal, err := strconv.ParseBool(strings.ToLower(strVal))
			if err != nil && strings.EqualFold(strVal, "yes") {
				boolVal, err = true, nil
			}
			if err != nil {
				return fmt.Errorf("invalid boolean value: %q", strVal)
			}
			field.SetBool(boolVal)
			return nil
		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				var items []string
				for _, item := range strings.Split(strVal, ",") {
					if item = strings.TrimSpace(item); item != "" {
						items = append(items, item)
					}
				}
				field.Set(reflect.ValueOf(items))
				return nil
			}
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) && val.Kind() != reflect.String {
		field.Set(val.Convert(field.Type()))
		return nil
	}

	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"align.max_length",
		"server.host",
		"server.port",
		"server.rate_limit",
		"server.rate_burst",
		"server.cors_origins",
		"server.max_body_bytes",
		"verify.mode",
		"verify.gateway_url",
		"verify.gateway_token",
		"verify.network",
		"verify.explorer_url",
		"verify.wallet",
		"verify.timeout_secs",
		"verify.workers",
		"verify.include_sequences",
		"verify.totp_secret",
		"storage.path",
		"ui.wrap_width",
		"ui.block_size",
		"ui.context",
	}
}

// IsSecretKey reports whether key holds a credential that should be masked on display.
func IsSecretKey(key string) bool {
	return key == "verify.gateway_token" || key == "verify.totp_secret"
}

// Clone returns a deep copy of the config.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Server.CORSOrigins != nil {
		clone.Server.CORSOrigins = append([]string(nil), c.Server.CORSOrigins...)
	}
	return &clone
}

// String returns a JSON representation with credentials redacted.
func (c *Config) String() string {
	safe := c.Clone()

	if safe.Verify.GatewayToken != "" {
		safe.Verify.GatewayToken = "[REDACTED]"
	}
	if safe.Verify.TOTPSecret != "" {
		safe.Verify.TOTPSecret = "[REDACTED]"
	}

	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}
