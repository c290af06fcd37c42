package cmd

import (
	"os"

	"github.com/kodelint/tooler/internal/config"
	"github.com/kodelint/tooler/internal/installer"
	"github.com/kodelint/tooler/internal/logger"
	"github.com/kodelint/tooler/internal/registry"
	"github.com/kodelint/tooler/internal/release"
	"github.com/spf13/cobra"
)

// Version is the tooler release version, overridable at link time.
var Version = "0.4.0"

// debug indicates whether debug logging is enabled, toggled by --debug.
var debug bool

// Collaborators resolved once in the root pre-run and shared by every
// subcommand: paths and settings, the persisted registry, and the engine.
var (
	paths  config.Paths
	reg    *registry.Registry
	engine *installer.Installer
)

// rootCmd is the base command for the tooler CLI.
var rootCmd = &cobra.Command{
	Use:   "tooler",
	Short: "Install and run release-published command line tools",
	Long: `tooler resolves tools identified by owner/name[:version] coordinates,
downloads the release asset fitting this platform, installs it into a
version-scoped directory, and keeps a registry so later runs are instant.`,
	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.Init(debug)

		var err error
		paths, err = config.ResolvePaths()
		if err != nil {
			return err
		}
		settings := config.LoadSettings(paths.SettingsFile)
		reg = registry.Load(paths.RegistryFile, settings)
		engine = installer.New(paths, release.NewClient(Version), reg)
		return nil
	},
}

// Execute registers global flags and runs the CLI. It is the entry point
// invoked from main.
func Execute() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.Version = Version

	if err := rootCmd.Execute(); err != nil {
		logger.Error("[ERROR] %v\n", err)
		os.Exit(1)
	}
}
