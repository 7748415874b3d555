package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nightowlcasino/redblack/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	log     = zap.NewNop()
	cfgFile string
)

// RedBlack is the root of the roulette services and player CLI.
func RedBlack() *cobra.Command {
	cmd := &cobra.Command{
		Use:   config.Application,
		Short: config.ApplicationFull,
		Long: `
Red/black roulette on the Bahamut chain. Run the HTTP API with api-svc, or
play straight from the terminal with bet, withdraw, status and history.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml or $HOME/.redblack/config.yaml)")

	cmd.AddCommand(apiSvcCommand())
	cmd.AddCommand(betCommand())
	cmd.AddCommand(withdrawCommand())
	cmd.AddCommand(statusCommand())
	cmd.AddCommand(historyCommand())

	return cmd
}

func Execute() error {
	cobra.OnInitialize(initConfig)
	return RedBlack().Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, "."+config.Application))
		}
	}

	viper.SetEnvPrefix(strings.ToUpper(config.Application))
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			fmt.Fprintf(os.Stderr, "failed to read config file - %s\n", err)
			os.Exit(1)
		}
	}
}
