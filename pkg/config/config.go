// Package config layers codehelper settings: built-in defaults, an optional
// YAML config file, CODEHELPER_* environment variables and command-line flags,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"codehelper/pkg/aggregate"
	"codehelper/pkg/envreport"
	"codehelper/pkg/ignore"
	"codehelper/pkg/runner"
	"codehelper/pkg/tree"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "codehelper"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "CODEHELPER"
	// ConfigFileName is the config file name without extension.
	ConfigFileName = "config"
)

// Keys, shared with the cobra flag names.
const (
	KeyOutputDir   = "output_dir"
	KeyExtensions  = "extensions"
	KeyEnvVars     = "env_vars"
	KeyNumHistory  = "num_history"
	KeyCommand     = "command"
	KeyTimeout     = "timeout"
	KeyIgnoreMode  = "ignore_mode"
	KeyTreeMode    = "tree_mode"
	KeyNoClipboard = "no_clipboard"
	KeyDebug       = "debug"
)

// Config holds the resolved settings for one run.
type Config struct {
	OutputDir   string        `mapstructure:"output_dir"`
	Extensions  []string      `mapstructure:"extensions"`
	EnvVars     []string      `mapstructure:"env_vars"`
	NumHistory  int           `mapstructure:"num_history"`
	Command     string        `mapstructure:"command"`
	Timeout     time.Duration `mapstructure:"timeout"`
	IgnoreMode  ignore.Mode   `mapstructure:"ignore_mode"`
	TreeMode    tree.Mode     `mapstructure:"tree_mode"`
	NoClipboard bool          `mapstructure:"no_clipboard"`
	Debug       bool          `mapstructure:"debug"`

	// ConfigFile is the file that was read, empty when none was found.
	ConfigFile string `mapstructure:"-"`
}

// DefaultOutputDir is ~/.codehelper/module_files.
func DefaultOutputDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "module_files")
	}
	return filepath.Join(home, "."+AppName, "module_files")
}

// Dir returns $XDG_CONFIG_HOME/codehelper, defaulting to ~/.config/codehelper.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", AppName), nil
}

// Load resolves the configuration. configFile, when non-empty, must exist.
// flags may be nil; only flags the user changed override lower layers.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetDefault(KeyOutputDir, DefaultOutputDir())
	v.SetDefault(KeyExtensions, aggregate.DefaultExtensions)
	v.SetDefault(KeyEnvVars, envreport.DefaultVars)
	v.SetDefault(KeyNumHistory, envreport.DefaultHistoryLimit)
	v.SetDefault(KeyCommand, envreport.DefaultCommand)
	v.SetDefault(KeyTimeout, runner.DefaultTimeout)
	v.SetDefault(KeyIgnoreMode, string(ignore.ModeSubstring))
	v.SetDefault(KeyTreeMode, string(tree.ModeExternal))
	v.SetDefault(KeyNoClipboard, false)
	v.SetDefault(KeyDebug, false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		if _, err := os.Stat(configFile); err != nil {
			return nil, fmt.Errorf("config file not found: %s", configFile)
		}
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(ConfigFileName)
		v.SetConfigType("yaml")
		if dir, err := Dir(); err == nil {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// flagAliases maps short flag names onto their config keys.
var flagAliases = map[string]string{"ext": KeyExtensions}

// bindFlags binds every flag whose name (with '-' read as '_') is a config key.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if alias, ok := flagAliases[f.Name]; ok {
			key = alias
		}
		switch key {
		case KeyOutputDir, KeyExtensions, KeyEnvVars, KeyNumHistory, KeyCommand,
			KeyTimeout, KeyIgnoreMode, KeyTreeMode, KeyNoClipboard, KeyDebug:
			if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
				bindErr = fmt.Errorf("bind flag %s: %w", f.Name, err)
			}
		}
	})
	return bindErr
}

func (c *Config) normalize() error {
	mode, err := ignore.ParseMode(string(c.IgnoreMode))
	if err != nil {
		return err
	}
	c.IgnoreMode = mode

	tm, err := tree.ParseMode(string(c.TreeMode))
	if err != nil {
		return err
	}
	c.TreeMode = tm

	exts := make([]string, 0, len(c.Extensions))
	for _, e := range c.Extensions {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	if len(exts) == 0 {
		return errors.New("no file extensions configured")
	}
	c.Extensions = exts

	if c.NumHistory < 1 {
		return fmt.Errorf("num_history must be at least 1, got %d", c.NumHistory)
	}
	if c.Timeout <= 0 {
		c.Timeout = runner.DefaultTimeout
	}
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir()
	}
	return nil
}
