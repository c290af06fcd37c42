package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed tools",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(reg.Tools) == 0 {
			fmt.Println("No tools installed yet.")
			return nil
		}

		keys := make([]string, 0, len(reg.Tools))
		for k := range reg.Tools {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		window := time.Duration(reg.Settings.UpdateCheckDays) * 24 * time.Hour
		now := time.Now()

		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "REPO\tVERSION\tKIND\tPINNED\tLAST USED\tPATH")
		for _, key := range keys {
			rec := reg.Tools[key]
			pinned := ""
			if rec.Pinned {
				pinned = "pinned"
			}
			age := formatAge(now.Sub(rec.LastAccessed))
			if !rec.Pinned && now.Sub(rec.LastAccessed) > window {
				age += " (stale)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				rec.Repo, rec.Version, rec.InstallKind, pinned, age, rec.ExecutablePath)
		}
		return w.Flush()
	},
}

func formatAge(d time.Duration) string {
	switch {
	case d >= 24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours())/24)
	case d >= time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
}

func init() {
	rootCmd.AddCommand(listCmd)
}
