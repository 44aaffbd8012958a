package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pratik-mahalle/parlour/pkg/client"
)

var (
	cfgFile      string
	outputFormat string
	serverURL    string
	apiClient    *client.Client
)

// NewRootCmd builds the parlour command tree
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "parlour",
		Short: "Parlour CLI - converse with historical characters",
		Long: `Parlour CLI gives command-line access to the Parlour chat service:
register a guest account, talk to characters, check monthly usage and
manage a subscription.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			initConfig()

			if cmd.Parent() != nil && cmd.Parent().Name() == "config" {
				return nil
			}
			switch cmd.Name() {
			case "register", "login", "characters", "pricing", "health":
				return initClient()
			}
			return initAuthenticatedClient()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.parlour/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "server URL (overrides config)")

	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("server_url", rootCmd.PersistentFlags().Lookup("server"))

	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newAuthRegisterCmd())
	rootCmd.AddCommand(newAuthLoginCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newHealthCmd())
	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newCharactersCmd())
	rootCmd.AddCommand(newTTSCmd())
	rootCmd.AddCommand(newPricingCmd())
	rootCmd.AddCommand(newCheckoutCmd())
	rootCmd.AddCommand(newCancelCmd())
	rootCmd.AddCommand(newAnalyticsCmd())

	return rootCmd
}

// Execute runs the CLI
func Execute() error {
	return NewRootCmd().Execute()
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".parlour"), nil
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return
		}
		_ = os.MkdirAll(dir, 0700)
		viper.AddConfigPath(dir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("PARLOUR")
	viper.AutomaticEnv()

	viper.SetDefault("server_url", "http://localhost:8787")
	viper.SetDefault("output", "table")

	_ = viper.ReadInConfig()
}

func initClient() error {
	url := viper.GetString("server_url")
	if serverURL != "" {
		url = serverURL
	}

	apiClient = client.NewClient(client.Config{
		BaseURL: url,
	})
	return nil
}

func initAuthenticatedClient() error {
	if err := initClient(); err != nil {
		return err
	}

	token := viper.GetString("auth.token")
	if token == "" {
		return fmt.Errorf("not registered. Run 'parlour register' or 'parlour login' first")
	}

	apiClient.SetToken(token)
	return nil
}

func getOutputFormat() string {
	if outputFormat != "" && outputFormat != "table" {
		return outputFormat
	}
	return viper.GetString("output")
}
