package cmd

import (
	"github.com/kodelint/tooler/internal/logger"
	"github.com/kodelint/tooler/internal/registry"
	"github.com/kodelint/tooler/internal/toolid"
	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:   "remove <owner/name[:version]>",
	Short: "Remove an installed tool (all versions unless one is given)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := toolid.Parse(args[0])
		if err != nil {
			return err
		}
		removed, err := reg.Remove(id.Key())
		if err != nil {
			return err
		}
		for _, rec := range removed {
			if err := registry.RemoveInstallDir(paths.InstallRoot, rec); err != nil {
				logger.Warn("[WARN] Could not remove install directory for %s %s: %v\n",
					rec.Repo, rec.Version, err)
			}
			logger.Success("[OK] Removed %s %s\n", rec.Repo, rec.Version)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)
}
