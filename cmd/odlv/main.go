package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/odlvideo/odlv/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "odlv: %v\n", err)
		return 1
	}
	return 0
}

type rootFlags struct {
	configPath string
	prefsPath  string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "odlv",
		Short:         "Browse and manage ODL Video collections",
		Long:          "odlv talks to an ODL Video Service instance. Without a subcommand it opens the interactive collection browser.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app.App) error {
				return a.Run(ctx)
			})
		},
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default ~/.config/odlv/config.toml)")
	root.PersistentFlags().StringVar(&flags.prefsPath, "prefs", "", "preferences file (default ~/.config/odlv/prefs.toml)")

	root.AddCommand(
		newCollectionsCmd(flags),
		newCollectionCmd(flags),
		newVideoCmd(flags),
		newVideoUpdateCmd(flags),
		newVideoDeleteCmd(flags),
		newSubtitleDeleteCmd(flags),
		newAnalyticsCmd(flags),
		newWhoamiCmd(flags),
		newLogsCmd(flags),
	)
	return root
}

func withApp(cmd *cobra.Command, flags *rootFlags, fn func(context.Context, *app.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := app.New(ctx, app.Options{ConfigPath: flags.configPath, PrefsPath: flags.prefsPath})
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}
