package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"tickd/internal/config"
)

var version = "dev"

type rootFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	rf := &rootFlags{}
	root := &cobra.Command{
		Use:           "tickd",
		Short:         "Fixed-cadence action/event tick loop",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&rf.configPath, "config", os.Getenv("TICKD_CONFIG"), "Config file (.yaml|.yml|.json|.toml), defaults TICKD_CONFIG")
	root.PersistentFlags().StringVar(&rf.logLevel, "log-level", os.Getenv("TICKD_LOG_LEVEL"), "Log level: debug|info|warn|error|off (overrides config)")
	root.PersistentFlags().StringVar(&rf.logFormat, "log-format", "", "Log format: json|console (overrides config)")

	root.AddCommand(newRunCmd(rf), newConfigCmd(rf), newVersionCmd())
	return root
}

// load returns the file config (or defaults) with the persistent log flags applied.
func (rf *rootFlags) load() (config.Config, error) {
	cfg := config.Default()
	if rf.configPath != "" {
		var err error
		if cfg, err = config.Load(rf.configPath); err != nil {
			return cfg, err
		}
	}
	if rf.logLevel != "" {
		cfg.Log.Level = rf.logLevel
	}
	if rf.logFormat != "" {
		cfg.Log.Format = rf.logFormat
	}
	return cfg, nil
}

func newConfigCmd(rf *rootFlags) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:     "config",
		Short:   "Print the effective configuration",
		Example: "  tickd config --config tickd.yaml --format toml",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rf.load()
			if err != nil {
				return err
			}
			if format == "" {
				format = strings.TrimPrefix(filepath.Ext(rf.configPath), ".")
			}
			if format == "" {
				format = "yaml"
			}
			b, err := config.Marshal(cfg, format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "Output format: yaml|json|toml (defaults to the config file's)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the tickd version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("tickd " + version)
		},
	}
}

// splitCSV splits a comma-separated flag value, dropping empty items.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
