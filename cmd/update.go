package cmd

import (
	"fmt"
	"time"

	"github.com/kodelint/tooler/internal/logger"
	"github.com/kodelint/tooler/internal/toolid"
	"github.com/spf13/cobra"
)

// checkOnly runs the staleness pass instead of reinstalling a tool.
var checkOnly bool

var updateCmd = &cobra.Command{
	Use:   "update [owner/name | all]",
	Short: "Reinstall tools at their latest release, or check for stale installs",
	Long: `Without --check, reinstalls the named tool at the latest release,
wiping the existing version directory first. The name alone is enough for a
tool that is already registered. "update all" reinstalls every registered
tool that is not version-pinned.

With --check, looks for installs past the update window, queries the release
provider for their latest tags, and prints update notices. Notices never
auto-install; updating stays an explicit action.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if checkOnly {
			if len(args) != 0 {
				return fmt.Errorf("--check takes no tool argument")
			}
			notices := reg.CheckStaleness(time.Now(), func(repo string) (string, error) {
				rel, err := engine.Client.Fetch(repo, "latest")
				if err != nil {
					return "", err
				}
				return rel.TagName, nil
			})
			if len(notices) == 0 {
				logger.Info("[INFO] All checked tools are up to date.\n")
				return nil
			}
			for _, n := range notices {
				logger.Warn("[WARN] %s has an update: %s -> %s (run `tooler update %s`)\n",
					n.Repo, n.Current, n.Latest, n.Repo)
			}
			return nil
		}

		if len(args) != 1 {
			return fmt.Errorf("specify a tool to update, `all`, or pass --check")
		}
		if args[0] == "all" {
			updated, err := engine.UpdateAll()
			if err != nil {
				return err
			}
			if len(updated) == 0 {
				logger.Info("[INFO] No unpinned tools to update.\n")
			}
			return nil
		}
		id, err := toolid.Parse(args[0])
		if err != nil {
			return err
		}
		if id.IsPinned() {
			return fmt.Errorf("%s is version-pinned; update targets the latest release, install the pin explicitly instead", id)
		}
		rec, err := engine.Install(id, true)
		if err != nil {
			return err
		}
		fmt.Println(rec.ExecutablePath)
		return nil
	},
}

func init() {
	updateCmd.Flags().BoolVar(&checkOnly, "check", false, "Only check for stale installs and print notices")
	rootCmd.AddCommand(updateCmd)
}
