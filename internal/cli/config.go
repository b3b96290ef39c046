// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation for seqdiff.
//
// Command: config [subcommand]
// Short:   View and modify configuration
//
// Subcommands:
//   show (default)      Display current configuration
//   get KEY             Print one value
//   set KEY VALUE       Set and save a value
//   reset               Reset to default configuration
//   path                Show configuration file path
//   keys                List settable keys
//   approval-setup      Generate a TOTP secret for verification approval
//
// Examples:
//   seqdiff config
//   seqdiff config show --json
//   seqdiff config get server.port
//   seqdiff config set verify.mode gateway
//   seqdiff config set verify.gateway_url https://anchor.example.org/v1/anchor
//   seqdiff config set server.cors_origins "https://a.example,https://b.example"
//   seqdiff config approval-setup --account lab@example.org --save
//
// Edits are written to ~/.seqdiff/config.toml (or --config FILE) with 0600
// permissions. Environment overrides are never written back.
package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bionova/seqdiff/internal/config"
	"github.com/bionova/seqdiff/internal/verify"
)

// configSwitches are the boolean flags of config.
var configSwitches = []string{"save", "confirm"}

// HandleConfig handles the "config" command.
func HandleConfig(args Args) error {
	p := NewArgParser(args.Raw, configSwitches...)

	switch p.Subcommand() {
	case "", "show":
		return handleConfigShow(args)
	case "get":
		return handleConfigGet(args, p.Positional(1))
	case "set":
		return handleConfigSet(args, p.Positional(1), strings.Join(p.PositionalFrom(2), " "), p.PositionalCount() >= 3)
	case "reset":
		return handleConfigReset(args, p.BoolFlag("confirm"))
	case "path":
		return handleConfigPath(args)
	case "keys":
		return handleConfigKeys(args)
	case "approval-setup", "totp":
		return handleApprovalSetup(args, p.FlagOrDefault("account", "seqdiff"), p.BoolFlag("save"))
	default:
		return NewValidationErrorWithExample("subcommand", p.Subcommand(),
			"unknown config subcommand", "seqdiff config show")
	}
}

// loadConfigFile reads the config file alone, without environment overrides,
// so edits never persist values that came from the environment.
func loadConfigFile(args Args) (*config.Config, string, error) {
	path, err := configFilePath(args)
	if err != nil {
		return nil, "", err
	}

	cfg := config.Default()
	if _, err := os.Stat(path); err == nil {
		load := config.LoadTOML
		if strings.HasSuffix(path, ".json") {
			load = config.LoadJSON
		}
		if err := load(cfg, path); err != nil {
			return nil, "", fmt.Errorf("load config %s: %w", path, err)
		}
		cfg.SetDefaults()
	}
	return cfg, path, nil
}

// saveConfigFile validates cfg and writes it to path.
func saveConfigFile(cfg *config.Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if strings.HasSuffix(path, ".json") {
		return config.SaveJSON(cfg, path)
	}
	return config.SaveTOML(cfg, path)
}

// handleConfigShow displays the effective configuration, grouped by section.
func handleConfigShow(args Args) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	path, _ := configFilePath(args)

	if args.JSON {
		values := make(map[string]interface{}, len(config.GetAllKeys()))
		for _, key := range config.GetAllKeys() {
			values[key] = displayValue(cfg, key)
		}
		return NewJSONResponse("config show", map[string]interface{}{
			"path":   path,
			"values": values,
		}).Print()
	}

	fmt.Println()
	fmt.Println(TitleStyle.Render("seqdiff Configuration"))
	fmt.Println(RenderSeparator(41))

	section := ""
	for _, key := range config.GetAllKeys() {
		name, field, found := strings.Cut(key, ".")
		if !found {
			continue
		}
		if name != section {
			section = name
			fmt.Println(SectionStyle.Render("[" + section + "]"))
		}
		fmt.Println(RenderField(field, fmt.Sprint(displayValue(cfg, key))))
	}

	fmt.Println()
	fmt.Println(SeparatorStyle.Render(strings.Repeat("-", 41)))
	fmt.Printf("Config file: %s\n", DimStyle.Render(path))
	fmt.Println()
	return nil
}

// displayValue returns a value for display with secrets masked.
func displayValue(cfg *config.Config, key string) interface{} {
	v, err := cfg.Get(key)
	if err != nil {
		return ""
	}
	if config.IsSecretKey(key) {
		s, _ := v.(string)
		return maskSecret(s)
	}
	if list, ok := v.([]string); ok {
		return strings.Join(list, ",")
	}
	return v
}

// handleConfigGet prints one value.
func handleConfigGet(args Args, key string) error {
	if key == "" {
		return ErrMissingArgument("KEY", "seqdiff config get server.port")
	}

	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	if _, err := cfg.Get(key); err != nil {
		return unknownConfigKey(key)
	}

	value := displayValue(cfg, key)
	if args.JSON {
		return NewJSONResponse("config get", map[string]interface{}{"key": key, "value": value}).Print()
	}
	fmt.Println(value)
	return nil
}

// handleConfigSet sets and saves a configuration value.
func handleConfigSet(args Args, key, value string, hasValue bool) error {
	if key == "" || !hasValue {
		return ErrMissingArgument("KEY VALUE", "seqdiff config set verify.mode gateway")
	}

	cfg, path, err := loadConfigFile(args)
	if err != nil {
		return err
	}
	if _, err := cfg.Get(key); err != nil {
		return unknownConfigKey(key)
	}
	if err := cfg.Set(key, value); err != nil {
		return NewValidationError(key, value, err.Error())
	}
	if err := saveConfigFile(cfg, path); err != nil {
		return err
	}

	shown := value
	if config.IsSecretKey(key) {
		shown = maskSecret(value)
	}
	if args.JSON {
		return NewJSONResponse("config set", map[string]interface{}{"key": key, "value": shown, "path": path}).Print()
	}
	if !args.Quiet {
		fmt.Printf("%s %s = %s\n", SuccessStyle.Render("[OK]"), key, shown)
	}
	return nil
}

// handleConfigReset writes the defaults over the config file.
func handleConfigReset(args Args, confirm bool) error {
	path, err := configFilePath(args)
	if err != nil {
		return err
	}

	confirmed, err := RequireConfirmation(confirm, "reset "+path+" to defaults", args.JSON)
	if err != nil {
		return err
	}
	if !confirmed {
		fmt.Println("Cancelled.")
		return nil
	}

	if err := saveConfigFile(config.Default(), path); err != nil {
		return err
	}
	if args.JSON {
		return NewJSONResponse("config reset", ConfigPathData{Path: path, Exists: true}).Print()
	}
	if !args.Quiet {
		fmt.Printf("%s configuration reset (%s)\n", SuccessStyle.Render("[OK]"), path)
	}
	return nil
}

// handleConfigPath shows where the config file lives.
func handleConfigPath(args Args) error {
	path, err := configFilePath(args)
	if err != nil {
		return err
	}
	_, statErr := os.Stat(path)
	exists := !errors.Is(statErr, os.ErrNotExist)

	if args.JSON {
		return NewJSONResponse("config path", ConfigPathData{Path: path, Exists: exists}).Print()
	}
	fmt.Println(path)
	if !exists && !args.Quiet {
		fmt.Println(DimStyle.Render("(not created yet; defaults are in use)"))
	}
	return nil
}

// handleConfigKeys lists settable keys.
func handleConfigKeys(args Args) error {
	keys := config.GetAllKeys()
	if args.JSON {
		return NewJSONResponse("config keys", keys).Print()
	}
	for _, key := range keys {
		fmt.Println(key)
	}
	return nil
}

// handleApprovalSetup generates a TOTP secret for verification approval.
// With --save it is stored as verify.totp_secret.
func handleApprovalSetup(args Args, account string, save bool) error {
	key, err := verify.GenerateApprovalKey(account)
	if err != nil {
		return err
	}

	if save {
		cfg, path, err := loadConfigFile(args)
		if err != nil {
			return err
		}
		cfg.Verify.TOTPSecret = key.Secret()
		if err := saveConfigFile(cfg, path); err != nil {
			return err
		}
	}

	if args.JSON {
		return NewJSONResponse("config approval-setup", ApprovalSetupData{
			Secret: key.Secret(),
			URL:    key.URL(),
			Saved:  save,
		}).Print()
	}

	fmt.Println()
	fmt.Println(TitleStyle.Render("Verification Approval"))
	fmt.Println(RenderSeparator(41))
	fmt.Println(RenderField("Secret", key.Secret()))
	fmt.Println(RenderField("Enroll URL", key.URL()))
	fmt.Println()
	if save {
		fmt.Println(SuccessStyle.Render("[OK]") + " saved as verify.totp_secret")
		fmt.Println("Every verification now needs a current code (--code N or the X-Approval-Code header).")
	} else {
		fmt.Println("Add it to an authenticator app, then run:")
		fmt.Println("  seqdiff config set verify.totp_secret " + key.Secret())
	}
	fmt.Println()
	return nil
}

// unknownConfigKey suggests the closest settable key.
func unknownConfigKey(key string) error {
	example := "seqdiff config keys"
	best := -1
	for _, k := range config.GetAllKeys() {
		if d := levenshteinDistance(key, k); d <= 3 && (best == -1 || d < best) {
			best = d
			example = "seqdiff config get " + k
		}
	}
	return NewValidationErrorWithExample("key", key, "unknown config key", example)
}
