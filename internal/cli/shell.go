package cli

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/goliatone/go-carmart/cache"
	"github.com/goliatone/go-carmart/pkg/di"
)

func newShellCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive car inventory shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd, v)
		},
	}
}

func runShell(cmd *cobra.Command, v *viper.Viper) error {
	ctx := cmd.Context()

	logger, err := newLogger(cmd.ErrOrStderr(), v)
	if err != nil {
		return err
	}

	cfg, err := cacheConfig(v)
	if err != nil {
		return err
	}

	container, err := di.NewContainer(cfg, di.WithLogger(logger))
	if err != nil {
		return err
	}
	mgr, err := container.NewCarManager()
	if err != nil {
		return err
	}

	if seed := v.GetString("seed"); seed != "" {
		n, err := LoadSeed(ctx, mgr, seed)
		if err != nil {
			return err
		}
		logger.Info(ctx, "seed loaded", "path", seed, "cars", n)
	}

	printlnFn(fmt.Sprintf("carmart %s (type 'help' for commands)", Version))
	stores, _ := container.Provider().(cache.Inspector)
	runREPL(ctx, NewApp(mgr, stores), bufio.NewScanner(cmd.InOrStdin()))
	return nil
}
