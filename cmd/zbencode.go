package cmd

import (
	"fmt"
	"os"

	"github.com/al002/zbencode/internal/config"
	"github.com/al002/zbencode/internal/log"
	"github.com/al002/zbencode/internal/version"
	"github.com/spf13/cobra"
)

var (
	cfgFile     string
	cfgRegistry *config.Registry
	cfg         *config.Config
	logger      *log.Logger

	rootCmd = &cobra.Command{
		Use:           "zbencode",
		Short:         "Inspect, convert and hash bencoded data",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func Execute() error {
	defer func() {
		if logger != nil {
			if err := logger.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to close logger: %v\n", err)
			}
		}
	}()
	return rootCmd.Execute()
}

func init() {
	cfgRegistry = config.NewRegistry()
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.zbencode/config.yaml)")

	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(hashCmd)
	rootCmd.AddCommand(validateCmd)
}

func initConfig() {
	var err error
	cfg, err = cfgRegistry.LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err = log.New(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	cfgRegistry.OnChange(func(name string) {
		logger.Info("Config file changed, restart to apply", "config_file", name)
	})

	logger.Debug("Configuration loaded successfully",
		"config_file", cfgRegistry.ConfigFile(),
		"agent", version.DefaultAgent,
		"max_depth", cfg.Decode.MaxDepth,
		"decode_max_string_length", cfg.Decode.MaxStringLength,
		"allow_unsorted_keys", cfg.Decode.AllowUnsortedKeys,
		"encode_max_string_length", cfg.Encode.MaxStringLength,
	)
}
