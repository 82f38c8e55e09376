package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/goliatone/go-carmart/cache"
	"github.com/goliatone/go-carmart/pkg/logging"
)

// Version is set at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

// NewRootCmd builds the carmart command tree with its own viper instance.
func NewRootCmd() *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:           "carmart",
		Short:         "Car inventory backed by transactional in-memory stores",
		Long:          "Keep a car inventory in two in-memory stores that are always changed together.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd, v)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (yaml, json or toml)")
	flags.Int("capacity", 0, "maximum number of entries per store")
	flags.Duration("ttl", 0, "time to live of stored entries")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("log-format", "text", "log format: text, json or slog")
	flags.String("seed", "", "JSON file of cars to load at start")

	_ = v.BindPFlag("capacity", flags.Lookup("capacity"))
	_ = v.BindPFlag("ttl", flags.Lookup("ttl"))
	_ = v.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = v.BindPFlag("log_format", flags.Lookup("log-format"))
	_ = v.BindPFlag("seed", flags.Lookup("seed"))

	rootCmd.AddCommand(newShellCmd(v), newVersionCmd())
	return rootCmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "error:", err)
		os.Exit(1)
	}
}

func initConfig(cmd *cobra.Command, v *viper.Viper) error {
	if cfg, _ := cmd.Flags().GetString("config"); cfg != "" {
		v.SetConfigFile(cfg)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("CARMART")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	return nil
}

// newLogger builds the CLI logger. text and json go through logrus, slog
// selects the slog text handler.
func newLogger(w io.Writer, v *viper.Viper) (logging.Logger, error) {
	level := v.GetString("log_level")
	if format := v.GetString("log_format"); format != "slog" {
		l, err := logging.NewLogrus(w, level, format)
		if err != nil {
			return nil, err
		}
		return l, nil
	}

	l, err := logging.NewText(w, level)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// cacheConfig starts from the CARMART_CACHE_* environment and applies the
// capacity and ttl set through flags, CARMART_CAPACITY/CARMART_TTL or the
// config file.
func cacheConfig(v *viper.Viper) (cache.Config, error) {
	cfg, err := cache.ConfigFromEnv()
	if err != nil {
		return cache.Config{}, err
	}

	if v.IsSet("capacity") {
		cfg.Capacity = v.GetInt("capacity")
	}
	if v.IsSet("ttl") {
		cfg.TTL = v.GetDuration("ttl")
	}

	return cfg, cfg.Validate()
}
