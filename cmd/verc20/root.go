package main

import (
	"os"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	verc20 "github.com/verc20dev/verc20-go"
)

// Config is the CLI configuration, loaded from config.yaml and VERC20_*
// environment variables.
type Config struct {
	RPCURL         string `mapstructure:"rpc_url"`
	IndexerURL     string `mapstructure:"indexer_url"`
	MarketContract string `mapstructure:"market_contract"`
	PrivateKey     string `mapstructure:"private_key"`
	LogLevel       string `mapstructure:"log_level"`
}

var (
	configFile string
	configOnce sync.Once
	config     = &Config{
		LogLevel: "info",
	}
)

func loadConfig() Config {
	configOnce.Do(func() {
		if configFile != "" {
			viper.SetConfigFile(configFile)
		} else {
			viper.AddConfigPath("./")
			viper.SetConfigName("config")
		}
		viper.SetEnvPrefix("verc20")
		viper.AutomaticEnv()
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

		if err := viper.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) {
				logrus.Warn("config file not found, using defaults and environment")
			} else {
				logrus.WithError(err).Fatal("invalid config file")
			}
		}
		if err := viper.Unmarshal(config); err != nil {
			logrus.WithError(err).Fatal("failed to unmarshal config")
		}

		level, err := logrus.ParseLevel(config.LogLevel)
		if err != nil {
			level = logrus.InfoLevel
		}
		logrus.SetLevel(level)
	})
	return *config
}

// newClient builds the SDK client from the loaded configuration.
func newClient() (*verc20.Client, error) {
	cfg := loadConfig()
	if cfg.RPCURL == "" || cfg.IndexerURL == "" || cfg.MarketContract == "" {
		return nil, errors.New("rpc_url, indexer_url and market_contract must be configured")
	}
	return verc20.NewClient(verc20.Config{
		RPCURL:         cfg.RPCURL,
		IndexerURL:     cfg.IndexerURL,
		MarketContract: cfg.MarketContract,
		PrivateKey:     cfg.PrivateKey,
		Logger:         logrus.StandardLogger(),
	})
}

var rootCmd = &cobra.Command{
	Use:   "verc20",
	Short: "vERC-20 inscription and order market client",
	Long:  "Deploy, mint and transfer vERC-20 tokens and trade them on the off-chain order market.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file, e.g. ./config.yaml")
}

// Execute runs the root command.
func Execute() {
	rootCmd.AddCommand(
		NewDeployCommand(),
		NewMintCommand(),
		NewTransferCommand(),
		NewTokensCommand(),
		NewBalanceCommand(),
		NewOrderCommand(),
		NewActivitiesCommand(),
		NewStatusCommand(),
	)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
