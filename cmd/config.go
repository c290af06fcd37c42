package cmd

import (
	"fmt"
	"strconv"

	"github.com/kodelint/tooler/internal/config"
	"github.com/kodelint/tooler/internal/logger"
	"github.com/spf13/cobra"
)

// settingKeys names every key the config command accepts, mapped to a short
// description for error output.
var settingKeys = map[string]string{
	"update_check_days": "days an unpinned install may go without an update check",
}

func knownKey(key string) error {
	if _, ok := settingKeys[key]; !ok {
		return fmt.Errorf("unknown setting %q (supported: update_check_days)", key)
	}
	return nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and change persisted settings",
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the effective value of a setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := knownKey(args[0]); err != nil {
			return err
		}
		fmt.Println(reg.Settings.UpdateCheckDays)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting and persist it to the settings file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := knownKey(args[0]); err != nil {
			return err
		}
		days, err := strconv.Atoi(args[1])
		if err != nil || days <= 0 {
			return fmt.Errorf("update_check_days must be a positive number of days, got %q", args[1])
		}
		if err := config.SaveSettings(paths.SettingsFile, config.Settings{UpdateCheckDays: days}); err != nil {
			return err
		}
		logger.Success("[OK] update_check_days set to %d\n", days)
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Reset a setting to its default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := knownKey(args[0]); err != nil {
			return err
		}
		def := config.Settings{UpdateCheckDays: config.DefaultUpdateCheckDays}
		if err := config.SaveSettings(paths.SettingsFile, def); err != nil {
			return err
		}
		logger.Success("[OK] update_check_days reset to the default %d\n", def.UpdateCheckDays)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configGetCmd, configSetCmd, configUnsetCmd)
	rootCmd.AddCommand(configCmd)
}
