package main

import (
	"fmt"
	"guildsnap/internal/di"
	"guildsnap/internal/providers"
	"guildsnap/internal/structures"
	"os"

	"github.com/spf13/cobra"
)

var flags structures.CliFlags

var rootCmd = &cobra.Command{
	Use:   "guildsnap",
	Short: "Snapshot and restore chat server structure",
	Long: `guildsnap captures the role, channel and permission layout of a server
into stored snapshots and replays a snapshot onto a server as a background
restore job.`,
	SilenceUsage: true,
	RunE:         serve,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP daemon",
	RunE:  serve,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", providers.AppName, providers.Version)
	},
}

func serve(cmd *cobra.Command, args []string) error {
	_, cleanup, err := di.InitApp(&flags)
	if err != nil {
		return err
	}
	cleanup()
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flags.ConfigPath, "config", "c", "config.yaml", "path to the config file")
	rootCmd.PersistentFlags().BoolVarP(&flags.DebugMode, "debug", "d", false, "log to the console as well")
	rootCmd.AddCommand(serveCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
