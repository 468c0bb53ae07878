// Copyright (c) 2026 nodeadmin authors
// nodeadmin - node administrative lifecycle controller
// This source code is licensed under the MIT license found in the LICENSE file.

// Package config loads nodeadmin's operator-supplied settings: the drain
// gate polling interval, the DNS canonicalization strategy, and the audit
// database connection. Configuration here is read-only — nothing in this
// repo writes a config file back out.
package config // import "github.com/scmadmin/nodeadmin/internal/config"

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// defaultMonitorIntervalSeconds mirrors internal/admin's own default so a
// config file that omits the interval entirely still produces a sane value.
const defaultMonitorIntervalSeconds = 30

// Config holds nodeadmin's operator-supplied settings.
type Config struct {
	// MonitorIntervalSeconds is the monitor interval, in seconds, handed to
	// admin.WithMonitorInterval. The drain gates are event-driven and do
	// not read it.
	MonitorIntervalSeconds int `mapstructure:"monitor_interval_seconds"`
	// UseHostnames selects HostResolver's canonicalization key: reverse
	// DNS hostname when true, dotted address when false.
	UseHostnames bool `mapstructure:"use_hostnames"`
	Audit        struct {
		Type string `mapstructure:"type"`
		DSN  string `mapstructure:"dsn"`
	} `mapstructure:"audit"`
}

// MonitorInterval returns MonitorIntervalSeconds as a time.Duration,
// repairing a non-positive value to the default rather than propagating
// it, matching the controller's own repair behavior so a zero-value
// Config is usable standalone.
func (c Config) MonitorInterval() time.Duration {
	s := c.MonitorIntervalSeconds
	if s <= 0 {
		s = defaultMonitorIntervalSeconds
	}
	return time.Duration(s) * time.Second
}

// GetConfigPath returns the path nodeadmin looks for a config file at,
// honoring XDG_CONFIG_HOME the way the teacher's config resolution does.
func GetConfigPath() (string, error) {
	if env := os.Getenv("XDG_CONFIG_HOME"); env != "" {
		return filepath.Join(env, "nodeadmin", "nodeadmin.yaml"), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "nodeadmin", "nodeadmin.yaml"), nil
}

// LoadConfig reads defaults, an optional config file, NODEADMIN_-prefixed
// environment variables, and cmd's bound persistent flags, in that order
// of increasing precedence, into a Config.
func LoadConfig(cmd *cobra.Command, configFilePath string) (Config, error) {
	var c Config

	viper.Reset()
	viper.SetDefault("monitor_interval_seconds", defaultMonitorIntervalSeconds)
	viper.SetDefault("use_hostnames", false)
	viper.SetDefault("audit.type", "sqlite")
	viper.SetDefault("audit.dsn", "nodeadmin-audit.db")

	viper.SetConfigType("yaml")

	candidates := []string{configFilePath}
	if configFilePath == "" {
		if p, err := GetConfigPath(); err == nil {
			candidates = append(candidates, p)
		}
		candidates = append(candidates, "./nodeadmin.yaml")
	}

	var readErr error = viper.ConfigFileNotFoundError{}
	for _, p := range candidates {
		if p == "" {
			continue
		}
		fi, err := os.Stat(p)
		if err != nil || fi.Size() == 0 {
			continue
		}
		viper.SetConfigFile(p)
		if err := viper.ReadInConfig(); err != nil {
			return c, err
		}
		readErr = nil
		break
	}
	if used := viper.ConfigFileUsed(); used != "" {
		log.Printf("nodeadmin: using config %s", used)
	}

	viper.AutomaticEnv()
	viper.AllowEmptyEnv(true)
	viper.SetEnvPrefix("nodeadmin")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if cmd != nil {
		flagBindings := map[string]string{
			"monitor-interval-seconds": "monitor_interval_seconds",
			"use-hostnames":            "use_hostnames",
			"audit-type":               "audit.type",
			"audit-dsn":                "audit.dsn",
		}
		for flagName, key := range flagBindings {
			if f := cmd.Flags().Lookup(flagName); f != nil {
				if err := viper.BindPFlag(key, f); err != nil {
					return c, err
				}
			}
		}
	}

	if err := viper.Unmarshal(&c); err != nil {
		return c, err
	}

	if c.MonitorIntervalSeconds <= 0 {
		log.Printf("nodeadmin: monitor_interval_seconds %d is non-positive, using default %d", c.MonitorIntervalSeconds, defaultMonitorIntervalSeconds)
		c.MonitorIntervalSeconds = defaultMonitorIntervalSeconds
	}

	return c, readErr
}
