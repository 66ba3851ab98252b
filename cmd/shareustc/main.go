package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shareustc/shareustc/config"
)

var version = "dev"

// skipConfig marks commands that run before a configuration exists.
const skipConfig = "skip-config"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "shareustc",
	Short:   "Authentication and object-storage gateway for ShareUSTC",
	Long: `shareustc verifies bearer tokens on every API request and brokers
access to the Aliyun OSS bucket: scoped STS upload credentials, presigned
download URLs and object deletion, each recorded in an audit log.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if skipsConfig(cmd) {
			setupLogging(config.LogConfig{Level: "info", Env: "dev"})
			return nil
		}

		var files []string
		if f, _ := cmd.Flags().GetString("config"); f != "" {
			files = []string{f}
		}

		cfg, err := config.Load(files, cmd.Flags())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		setupLogging(cfg.Log)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func skipsConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipConfig] == "true" {
			return true
		}
	}
	return false
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file to export before reading the environment")
	rootCmd.PersistentFlags().String("db-type", "", "audit database type: sqlite, postgres (default: sqlite, env: SHAREUSTC_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "audit database connection string (default: shareustc.db, env: SHAREUSTC_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env: SHAREUSTC_LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
