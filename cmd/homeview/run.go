package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/homeview/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Show the home screen in the terminal",
	Long: `Draws the home screen and reads one command per line:
menu, close, name <text>, refresh, open <n>, back, help, quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		jsonMode, _ := cmd.Flags().GetBool("json")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return cli.Run(ctx, cfg, cli.RunOptions{
			JSON:   jsonMode,
			Input:  cmd.InOrStdin(),
			Output: cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("json", false, "Write one JSON object per frame instead of text")

	// run is the default command.
	rootCmd.RunE = runCmd.RunE
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
}
