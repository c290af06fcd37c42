package cmd

import (
	"os"
	"os/exec"

	"github.com/kodelint/tooler/internal/logger"
	"github.com/kodelint/tooler/internal/toolid"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <owner/name[:version]> [args...]",
	Short: "Run a tool, installing it first if needed",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := toolid.Parse(args[0])
		if err != nil {
			return err
		}
		rec, err := engine.Resolve(id, false)
		if err != nil {
			return err
		}

		logger.Debug("[DEBUG] Running %s %v\n", rec.ExecutablePath, args[1:])
		child := exec.Command(rec.ExecutablePath, args[1:]...)
		child.Stdin = os.Stdin
		child.Stdout = os.Stdout
		child.Stderr = os.Stderr

		if err := child.Run(); err != nil {
			if exitErr, ok := err.(*exec.ExitError); ok {
				os.Exit(exitErr.ExitCode())
			}
			return err
		}
		return nil
	},
}

func init() {
	// Everything after the tool coordinate belongs to the tool, not to us.
	runCmd.Flags().SetInterspersed(false)
	rootCmd.AddCommand(runCmd)
}
