package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/iceguest/internal/config"
	"github.com/zjrosen/iceguest/internal/log"
)

func init() {
	// Query the terminal background before any Bubble Tea program starts so
	// the OSC 11 reply does not race the input loop.
	_ = lipgloss.HasDarkBackground()
}

const (
	localConfigPath = ".iceguest/config.yaml"
	envPrefix       = "ICEGUEST"
)

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	cfg       config.Config
)

var rootCmd = &cobra.Command{
	Use:   "iceguest",
	Short: "In-context editing guest engine",
	Long: `iceguest runs the in-context editing state machine of a previewed page.

It connects to an authoring host, replays scripted editing sessions against
page fixtures, and keeps a journal of every dispatched event.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .iceguest/config.yaml or ~/.config/iceguest/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false,
		"write a debug log (path from ICEGUEST_LOG, default debug.log)")
}

// setDefaults registers every config key so env overrides apply to all of
// them.
func setDefaults(v *viper.Viper, d config.Config) {
	v.SetDefault("guest.highlight_mode", d.Guest.HighlightMode)
	v.SetDefault("guest.edit_mode_padding", d.Guest.EditModePadding)
	v.SetDefault("guest.require_check_in", d.Guest.RequireCheckIn)
	v.SetDefault("host.url", d.Host.URL)
	v.SetDefault("host.namespace", d.Host.Namespace)
	v.SetDefault("host.path", d.Host.Path)
	v.SetDefault("host.timeout", d.Host.Timeout)
	v.SetDefault("host.insecure_skip_verify", d.Host.InsecureSkipVerify)
	v.SetDefault("bridge.queue_capacity", d.Bridge.QueueCapacity)
	v.SetDefault("journal.enabled", d.Journal.Enabled)
	v.SetDefault("journal.path", d.Journal.Path)
	v.SetDefault("cache.sandbox_ttl", d.Cache.SandboxTTL)
	v.SetDefault("cache.cleanup_interval", d.Cache.CleanupInterval)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("ui.show_log", d.UI.ShowLog)
}

func initConfig() {
	setDefaults(viper.GetViper(), config.Defaults())
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .iceguest/config.yaml (current directory)
		// 2. ~/.config/iceguest/config.yaml (user config)
		if _, err := os.Stat(localConfigPath); err == nil {
			viper.SetConfigFile(localConfigPath)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "iceguest"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file found anywhere - create default at .iceguest/config.yaml
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			if writeErr := config.WriteDefaultConfig(localConfigPath); writeErr == nil {
				viper.SetConfigFile(localConfigPath)
				_ = viper.ReadInConfig()
			}
		}
	}

	_ = viper.Unmarshal(&cfg)
}

// configFilePath is where config changes made at runtime are saved.
func configFilePath() string {
	if p := viper.ConfigFileUsed(); p != "" {
		return p
	}
	return localConfigPath
}

// initLogging starts the debug log when --debug or ICEGUEST_DEBUG is set.
// The returned cleanup is never nil.
func initLogging() (func(), error) {
	if !debugFlag && os.Getenv(envPrefix+"_DEBUG") == "" {
		return func() {}, nil
	}
	logPath := os.Getenv(envPrefix + "_LOG")
	if logPath == "" {
		logPath = "debug.log"
	}
	cleanup, err := log.Init(logPath)
	if err != nil {
		return nil, fmt.Errorf("initializing logging: %w", err)
	}
	log.Info(log.CatConfig, "iceguest starting", "version", version, "config", viper.ConfigFileUsed())
	return cleanup, nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
