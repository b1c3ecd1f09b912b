// Package cfg provides configuration and command-line interface setup.
package cfg

import (
	"strings"

	"vcptools/internal/domain/keys"
	"vcptools/internal/utils/logging"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "vcptools",
	Short: "vcptools serves VCP tool plugin requests over stdin/stdout.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(viper.GetInt(keys.Debug))

		if configFile := viper.GetString(keys.ConfigFile); configFile != "" {
			viper.SetConfigFile(configFile)
			if err := viper.ReadInConfig(); err != nil {
				logging.W("Failed to load config file %q: %v", configFile, err)
			}
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute wires flags and subcommands and runs the requested command.
func Execute() error {
	viper.SetEnvPrefix("vcptools")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	initProgramFlags(rootCmd)

	rootCmd.AddCommand(initASMRCmd())
	rootCmd.AddCommand(initMissAVCmd())

	return rootCmd.Execute()
}

// initProgramFlags binds the root-level flags into Viper.
func initProgramFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String(keys.Username, "", "ASMR API account name")
	viper.BindPFlag(keys.Username, cmd.PersistentFlags().Lookup(keys.Username))

	cmd.PersistentFlags().String(keys.Password, "", "ASMR API account password")
	viper.BindPFlag(keys.Password, cmd.PersistentFlags().Lookup(keys.Password))

	cmd.PersistentFlags().String(keys.APIHost, "", "ASMR API hostname override")
	viper.BindPFlag(keys.APIHost, cmd.PersistentFlags().Lookup(keys.APIHost))

	cmd.PersistentFlags().String(keys.MissAVBaseURL, "", "MissAV site base URL override")
	viper.BindPFlag(keys.MissAVBaseURL, cmd.PersistentFlags().Lookup(keys.MissAVBaseURL))

	cmd.PersistentFlags().StringP(keys.DownloadDir, "o", "", "Root directory for downloaded files")
	viper.BindPFlag(keys.DownloadDir, cmd.PersistentFlags().Lookup(keys.DownloadDir))

	cmd.PersistentFlags().String(keys.ResultsDir, "", "Directory for progress snapshot files")
	viper.BindPFlag(keys.ResultsDir, cmd.PersistentFlags().Lookup(keys.ResultsDir))

	cmd.PersistentFlags().String(keys.CallbackBaseURL, "", "Base URL for terminal status callbacks (empty disables)")
	viper.BindPFlag(keys.CallbackBaseURL, cmd.PersistentFlags().Lookup(keys.CallbackBaseURL))

	cmd.PersistentFlags().String(keys.DBPath, "", "Path to the job history database")
	viper.BindPFlag(keys.DBPath, cmd.PersistentFlags().Lookup(keys.DBPath))

	cmd.PersistentFlags().Int(keys.ProgressSecs, 0, "Seconds between throttled progress snapshot writes")
	viper.BindPFlag(keys.ProgressSecs, cmd.PersistentFlags().Lookup(keys.ProgressSecs))

	cmd.PersistentFlags().Int(keys.MetaRetries, 0, "Metadata fetch attempt count")
	viper.BindPFlag(keys.MetaRetries, cmd.PersistentFlags().Lookup(keys.MetaRetries))

	cmd.PersistentFlags().Int(keys.Debug, 0, "Debug level (0-2)")
	viper.BindPFlag(keys.Debug, cmd.PersistentFlags().Lookup(keys.Debug))

	cmd.PersistentFlags().String(keys.ConfigFile, "", "Path to a config file with preset flags")
	viper.BindPFlag(keys.ConfigFile, cmd.PersistentFlags().Lookup(keys.ConfigFile))
}
