// Package cmd implements the oncall command line.
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/oncall/config"
	"github.com/kilianp07/oncall/core/errs"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "oncall",
	Short:         "Resident on-call scheduler",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// loadConfig reads the configuration file. A missing default file falls back
// to environment overrides and defaults; a missing explicit file is an error.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := cfgPath
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
		path = ""
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// couldNotCompute marks input and configuration errors the way operators
// expect to read them.
func couldNotCompute(err error) error {
	if errs.IsValidation(err) || errs.IsConfiguration(err) {
		return fmt.Errorf("could not compute: %w", err)
	}
	return err
}
