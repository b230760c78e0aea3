package cmd

import (
	"fmt"
	"github.com/aleph-zero/canarystack/shell"
	"github.com/spf13/cobra"
	"os"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Run an interactive stack shell",
	Long:  "Drive a single stack from an interactive shell",
	Run: func(cmd *cobra.Command, args []string) {
		stackConfig, err := stackConfig()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		options := []shell.Option{shell.WithStackConfig(stackConfig)}
		if cmd.Flags().Changed("log.level") {
			level, err := logLevel()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			options = append(options, shell.WithLogLevel(level))
		}
		shell.Bootstrap(shell.NewConfig(options...))
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)
}
