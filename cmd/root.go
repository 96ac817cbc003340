// Package cmd implements the command-line interface for the bid notice
// scraping engine.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonesrussell/bidcrawl/cmd/detail"
	cmdhttpd "github.com/jonesrussell/bidcrawl/cmd/httpd"
	cmdscheduler "github.com/jonesrussell/bidcrawl/cmd/scheduler"
	"github.com/jonesrussell/bidcrawl/cmd/scrape"
	cmdsettings "github.com/jonesrussell/bidcrawl/cmd/settings"
	"github.com/jonesrussell/bidcrawl/internal/config"
)

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// Debug enables debug mode for all commands
	Debug bool

	// rootCmd represents the root command for the bidcrawl CLI.
	rootCmd = &cobra.Command{
		Use:   "bidcrawl",
		Short: "A settings-driven scraper for public procurement bid notices",
		Long: `A settings-driven scraping engine that collects bid and
procurement notices from government and public-agency sites, deduplicates
them, and stores them for search and monitoring.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command
func Execute() error {
	// Load .env early so environment variables are available
	_ = godotenv.Load()

	// Parse flags early to get the debug flag before building loggers
	_ = rootCmd.ParseFlags(os.Args[1:])

	if err := initConfig(); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is ./config.yaml or ./config/config.yaml)",
	)
	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "enable debug mode")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("bidcrawl version %s\n", "1.0.0")
		},
	})

	rootCmd.AddCommand(scrape.Command())
	rootCmd.AddCommand(detail.Command())
	rootCmd.AddCommand(cmdsettings.Command())
	rootCmd.AddCommand(cmdscheduler.Command())
	rootCmd.AddCommand(cmdhttpd.Command())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	// Config file is optional; defaults and environment variables cover
	// the rest.
	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: config file not found: %v (using defaults and environment variables)\n", err)
	}

	if err := bindFlagsAndEnv(); err != nil {
		return err
	}

	if Debug || viper.GetBool("app.debug") {
		Debug = true
		viper.Set("logger.level", "debug")
		viper.Set("logger.development", true)
		viper.Set("logger.encoding", "console")
	}

	return nil
}

// bindFlagsAndEnv binds command-line flags and named environment variables
// to config keys.
func bindFlagsAndEnv() error {
	if err := viper.BindPFlag("app.debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		return fmt.Errorf("failed to bind debug flag: %w", err)
	}
	if err := viper.BindEnv("app.environment", "APP_ENV"); err != nil {
		return fmt.Errorf("failed to bind APP_ENV: %w", err)
	}
	if err := viper.BindEnv("logger.level", "LOG_LEVEL"); err != nil {
		return fmt.Errorf("failed to bind LOG_LEVEL: %w", err)
	}
	if err := viper.BindEnv("database.host", "DB_HOST"); err != nil {
		return fmt.Errorf("failed to bind DB_HOST: %w", err)
	}
	if err := viper.BindEnv("database.port", "DB_PORT"); err != nil {
		return fmt.Errorf("failed to bind DB_PORT: %w", err)
	}
	if err := viper.BindEnv("database.user", "DB_USER"); err != nil {
		return fmt.Errorf("failed to bind DB_USER: %w", err)
	}
	if err := viper.BindEnv("database.password", "DB_PASSWORD"); err != nil {
		return fmt.Errorf("failed to bind DB_PASSWORD: %w", err)
	}
	if err := viper.BindEnv("database.dbname", "DB_NAME"); err != nil {
		return fmt.Errorf("failed to bind DB_NAME: %w", err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("app", map[string]any{
		"environment": "production",
		"debug":       false,
	})

	viper.SetDefault("logger", map[string]any{
		"level":        config.DefaultLogLevel,
		"encoding":     config.DefaultLogEncoding,
		"development":  false,
		"output_paths": []string{"stdout"},
	})

	viper.SetDefault("scraper", map[string]any{
		"workers":           config.DefaultWorkers,
		"max_retries":       config.DefaultMaxRetries,
		"retry_base_delay":  config.DefaultRetryBaseDelay.String(),
		"request_timeout":   config.DefaultRequestTimeout.String(),
		"run_timeout":       config.DefaultRunTimeout.String(),
		"host_min_delay":    config.DefaultHostMinDelay.String(),
		"user_agent":        config.DefaultUserAgent,
		"max_response_size": config.DefaultMaxResponseSize,
	})

	viper.SetDefault("database", map[string]any{
		"host":    config.DefaultDBHost,
		"port":    config.DefaultDBPort,
		"user":    config.DefaultDBUser,
		"dbname":  config.DefaultDBName,
		"sslmode": config.DefaultDBSSLMode,
	})

	viper.SetDefault("server", map[string]any{
		"address": config.DefaultServerAddress,
	})

	viper.SetDefault("scheduler", map[string]any{
		"list_schedule":   config.DefaultListSchedule,
		"detail_schedule": config.DefaultDetailSchedule,
	})
}
