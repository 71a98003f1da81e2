package main

import (
	"fmt"

	"github.com/angelmondragon/qkart/internal/account"
	"github.com/spf13/cobra"
)

func newRegisterCmd(a *app) *cobra.Command {
	var form account.RegisterForm
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a QKart account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.accounts.Register(cmd.Context(), form); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Registered successfully")
			return nil
		},
	}
	cmd.Flags().StringVarP(&form.Username, "username", "u", "", "Username (at least 6 characters)")
	cmd.Flags().StringVarP(&form.Password, "password", "p", "", "Password (at least 6 characters)")
	cmd.Flags().StringVar(&form.Confirm, "confirm", "", "Password confirmation")
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var form account.LoginForm
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.accounts.Login(cmd.Context(), form)
			if err != nil {
				return err
			}
			a.sess = sess
			fmt.Fprintln(cmd.OutOrStdout(), "Logged in successfully")
			return nil
		},
	}
	cmd.Flags().StringVarP(&form.Username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&form.Password, "password", "p", "", "Password")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke and forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.accounts.Logout(cmd.Context(), a.sess); err != nil {
				return err
			}
			a.sess = nil
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user and wallet balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !a.sess.Authenticated() {
				fmt.Fprintln(out, "Not logged in")
				return nil
			}
			fmt.Fprintf(out, "%s (balance %s)\n", a.sess.Username(), formatMoney(a.sess.Balance()))
			return nil
		},
	}
}
