package cmd

import (
	"github.com/spf13/cobra"
)

// skipWiringAnnotation marks commands that run without opening the store.
const skipWiringAnnotation = "tw/skip-wiring"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var verbose bool
	app := &app{}

	rootCmd := &cobra.Command{
		Use:           "tw",
		Short:         "Token wallet (tw): reward tokens, sessions and collection sync",
		Long:          "tw keeps a per-user ledger of typed reward tokens, shares it with every other tw process on this machine, and reconciles cached collections against a server snapshot.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[skipWiringAnnotation] != "" {
				return nil
			}
			wired, err := wireApp(cmd.Context(), newLogger(cmd.ErrOrStderr(), verbose))
			if err != nil {
				return err
			}
			*app = *wired
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return app.Close()
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(
		newVersionCmd(),
		newTokenCmd(app),
		newBalanceCmd(app),
		newHistoryCmd(app),
		newLedgerCmd(app),
		newAuthCmd(app),
		newSyncCmd(app),
		newWatchCmd(app),
	)

	return rootCmd
}
