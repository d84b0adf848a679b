package main

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"leadctl/internal/leadapi"
	"leadctl/internal/session"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the lead API",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		if email == "" || password == "" {
			form := huh.NewForm(huh.NewGroup(
				huh.NewInput().Title("Email").Value(&email),
				huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&password),
			))
			if err := form.Run(); err != nil {
				return err
			}
		}

		store, _, _, err := newSession()
		if err != nil {
			return err
		}
		res := store.Login(cmd.Context(), email, password)
		if !res.OK {
			printError("%s", res.Message)
			return fmt.Errorf("login failed")
		}
		printSuccess("Logged in as %s", store.User().Email)
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and log in",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		confirm := password

		if username == "" || email == "" || password == "" {
			form := huh.NewForm(huh.NewGroup(
				huh.NewInput().Title("Username").Value(&username),
				huh.NewInput().Title("Email").Value(&email),
				huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&password),
				huh.NewInput().Title("Confirm password").EchoMode(huh.EchoModePassword).Value(&confirm),
			))
			if err := form.Run(); err != nil {
				return err
			}
		}

		store, _, _, err := newSession()
		if err != nil {
			return err
		}
		res := store.Register(cmd.Context(), leadapi.RegisterRequest{
			Username:        username,
			Email:           email,
			Password:        password,
			ConfirmPassword: confirm,
		})
		if !res.OK {
			printError("%s", res.Message)
			return fmt.Errorf("registration failed")
		}
		printSuccess("Registered and logged in as %s", store.User().Email)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, _, err := newSession()
		if err != nil {
			return err
		}
		res := store.Logout(cmd.Context())
		if res.Message != "" {
			printWarning("%s", res.Message)
		}
		printSuccess("Logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, cfg, err := newSession()
		if err != nil {
			return err
		}
		user := store.Check(cmd.Context())
		if store.Status() != session.StatusAuthenticated {
			if msg := store.LastError(); msg != "" {
				printError("%s", msg)
			} else {
				printWarning("Not logged in. Run `leadctl login` first.")
			}
			return fmt.Errorf("no active session")
		}
		printStatus("API", "%s", cfg.API.BaseURL)
		printStatus("User", "%s", user.Username)
		printStatus("Email", "%s", user.Email)
		return nil
	},
}

func init() {
	loginCmd.Flags().String("email", "", "account email")
	loginCmd.Flags().String("password", "", "account password")

	registerCmd.Flags().String("username", "", "account username")
	registerCmd.Flags().String("email", "", "account email")
	registerCmd.Flags().String("password", "", "account password")
}
