package cmd

import (
	"fmt"

	"github.com/kodelint/tooler/internal/toolid"
	"github.com/spf13/cobra"
)

// forceInstall wipes any existing install of the resolved version before
// rebuilding it.
var forceInstall bool

var installCmd = &cobra.Command{
	Use:   "install <owner/name[:version]>",
	Short: "Install a tool from its release assets",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := toolid.Parse(args[0])
		if err != nil {
			return err
		}
		rec, err := engine.Resolve(id, forceInstall)
		if err != nil {
			return err
		}
		fmt.Println(rec.ExecutablePath)
		return nil
	},
}

func init() {
	installCmd.Flags().BoolVarP(&forceInstall, "force", "f", false, "Reinstall even if the version is already present")
	rootCmd.AddCommand(installCmd)
}
