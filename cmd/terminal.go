package cmd

import (
	"context"
	"fmt"

	"codehelper/pkg/envreport"

	"github.com/spf13/cobra"
)

// newTerminalCmd prints the terminal report on its own, without aggregating
// any files. The diagnostic command runs only when --command is given.
func newTerminalCmd(opts Options) *cobra.Command {
	terminalCmd := &cobra.Command{
		Use:   "terminal",
		Short: "Print the working directory, environment, shell history and optionally a command's output",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, opts)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			runCommand := cmd.Flags().Changed("command")
			fmt.Fprint(cmd.OutOrStdout(), s.reporter().Terminal(ctx, runCommand))
			return nil
		},
	}
	terminalCmd.Flags().StringP("command", "c", "", "The command to run and capture")
	terminalCmd.Flags().IntP("num_history", "n", envreport.DefaultHistoryLimit, "Number of recent commands to retrieve from history")
	return terminalCmd
}
