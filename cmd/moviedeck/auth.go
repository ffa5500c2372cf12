package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vmunix/moviedeck/internal/accounts"
	"github.com/vmunix/moviedeck/internal/app"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Log in, log out and register local accounts",
}

var authRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a local email account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		confirm, _ := cmd.Flags().GetString("confirm")
		terms, _ := cmd.Flags().GetBool("accept-terms")
		return withApp(cmd, func(a *app.App) error {
			return printResult(cmd, a.Accounts.Register(cmd.Context(), email, password, confirm, terms))
		})
	},
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with a local email account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		return withApp(cmd, func(a *app.App) error {
			return printResult(cmd, a.Accounts.Login(cmd.Context(), email, password))
		})
	},
}

var authKakaoLoginCmd = &cobra.Command{
	Use:   "kakao-login",
	Short: "Log in with a Kakao access token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		token, _ := cmd.Flags().GetString("token")
		if token == "" {
			return errors.New("--token is required")
		}
		return withApp(cmd, func(a *app.App) error {
			if a.Kakao == nil {
				return errors.New("kakao login is disabled (set kakao.enabled in config)")
			}
			ctx := cmd.Context()
			prev := a.Kakao.AccessToken()
			a.Kakao.SetAccessToken(token)
			profile, err := a.Kakao.Me(ctx)
			if err != nil {
				a.Kakao.SetAccessToken(prev)
				return fmt.Errorf("kakao profile: %w", err)
			}
			if err := a.Identity.SocialLogin(ctx, token, *profile); err != nil {
				return err
			}
			return printResult(cmd, accounts.Result{
				Success: true,
				Message: "welcome, " + a.Identity.DisplayName(),
			})
		})
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			if err := a.Accounts.Logout(cmd.Context()); err != nil {
				return err
			}
			return printResult(cmd, accounts.Result{Success: true, Message: "logged out"})
		})
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show who is logged in",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			s := a.Identity.Session()
			w := cmd.OutOrStdout()
			if jsonOutput {
				return printJSON(w, map[string]any{
					"authenticated": s.Authenticated(),
					"kind":          s.Kind,
					"name":          s.DisplayName(),
					"email":         s.Email,
					"partition":     s.PartitionKey(),
				})
			}
			if !s.Authenticated() {
				fmt.Fprintln(w, "Not logged in")
				return nil
			}
			fmt.Fprintf(w, "Logged in as %s (%s)\n", s.DisplayName(), s.Kind)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authRegisterCmd, authLoginCmd, authKakaoLoginCmd, authLogoutCmd, authStatusCmd)

	authRegisterCmd.Flags().String("email", "", "Email address")
	authRegisterCmd.Flags().String("password", "", "Password")
	authRegisterCmd.Flags().String("confirm", "", "Password confirmation")
	authRegisterCmd.Flags().Bool("accept-terms", false, "Accept the terms of service")

	authLoginCmd.Flags().String("email", "", "Email address")
	authLoginCmd.Flags().String("password", "", "Password")

	authKakaoLoginCmd.Flags().String("token", "", "Kakao access token")
}

// printResult prints r and turns a failed result into a command error.
func printResult(cmd *cobra.Command, r accounts.Result) error {
	if jsonOutput {
		if err := printJSON(cmd.OutOrStdout(), r); err != nil {
			return err
		}
	} else if r.Success {
		fmt.Fprintln(cmd.OutOrStdout(), r.Message)
	}
	if !r.Success {
		return errors.New(r.Message)
	}
	return nil
}
