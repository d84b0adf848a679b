package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"leadctl/internal/tui"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse leads interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, client, cfg, err := newSession()
		if err != nil {
			return err
		}
		if store.Check(cmd.Context()) == nil {
			if msg := store.LastError(); msg != "" {
				printError("%s", msg)
			}
			printWarning("Not logged in. Run `leadctl login` first.")
			return fmt.Errorf("no active session")
		}

		redirected, err := tui.Run(client, store, cfg.Client.PageSize)
		if err != nil {
			return err
		}
		if redirected {
			printWarning("Session expired. Run `leadctl login` to continue.")
			return fmt.Errorf("session expired")
		}
		return nil
	},
}
