package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pratik-mahalle/parlour/pkg/client"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authentication commands",
	}

	cmd.AddCommand(newAuthRegisterCmd())
	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthLogoutCmd())

	return cmd
}

func newAuthRegisterCmd() *cobra.Command {
	var email, name string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a guest account and store its token",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			if email == "" {
				email = promptInput(in, cmd.OutOrStdout(), "Email: ")
			}
			if name == "" {
				name = promptInput(in, cmd.OutOrStdout(), "Name: ")
			}

			resp, err := apiClient.Register(context.Background(), client.RegisterRequest{
				Email: email,
				Name:  name,
			})
			if err != nil {
				return fmt.Errorf("registration failed: %w", err)
			}

			if err := saveCredentials(resp); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s. Registered %s on the %s tier\n",
				name, resp.User.Email, resp.User.SubscriptionStatus)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&name, "name", "", "display name")

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Get a fresh token for a registered account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				email = viper.GetString("auth.email")
			}
			if email == "" {
				email = promptInput(bufio.NewReader(cmd.InOrStdin()), cmd.OutOrStdout(), "Email: ")
			}

			resp, err := apiClient.Login(context.Background(), client.LoginRequest{
				Email:     email,
				SessionID: viper.GetString("auth.session_id"),
			})
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			if err := saveCredentials(resp); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s tier)\n", resp.User.Email, resp.User.SubscriptionStatus)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address (default: the stored account)")

	return cmd
}

func saveCredentials(resp *client.Registration) error {
	viper.Set("auth.token", resp.Token)
	viper.Set("auth.email", resp.User.Email)
	viper.Set("auth.session_id", resp.SessionID)
	viper.Set("auth.expires_at", resp.ExpiresAt)

	if _, err := writeConfig(); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	return nil
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			viper.Set("auth.token", "")
			viper.Set("auth.email", "")
			viper.Set("auth.session_id", "")
			viper.Set("auth.expires_at", "")

			if _, err := writeConfig(); err != nil {
				return fmt.Errorf("failed to clear credentials: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Logged out successfully")
			return nil
		},
	}
}

func promptInput(in *bufio.Reader, out io.Writer, prompt string) string {
	fmt.Fprint(out, prompt)
	input, _ := in.ReadString('\n')
	return strings.TrimSpace(input)
}
