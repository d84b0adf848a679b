package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"leadctl/internal/leadapi"
	"leadctl/internal/query"
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Work with lead records",
}

var leadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List leads with optional filters",
	Long: `List leads with optional filters.

Examples:
  leadctl leads list --status qualified --source referral
  leadctl leads list --search acme --min-score 50
  leadctl leads list --since 2026-01-01 --page 2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newClient()
		if err != nil {
			return err
		}

		filters, err := filtersFromFlags(cmd)
		if err != nil {
			return err
		}
		page, _ := cmd.Flags().GetInt("page")
		limit, _ := cmd.Flags().GetInt("limit")
		if limit <= 0 {
			limit = cfg.Client.PageSize
		}

		result, err := client.ListLeads(cmd.Context(), filters, query.Page{Page: page, Limit: limit})
		if err != nil {
			return authHint(err)
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return json.NewEncoder(os.Stdout).Encode(result)
		}
		if len(result.Data) == 0 {
			printWarning("No leads match the current filters")
			return nil
		}
		fmt.Print(renderLeadTable(result.Data))
		fmt.Printf("\npage %d/%d · %d leads\n", page, result.TotalPages, result.Total)
		return nil
	},
}

var leadsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one lead",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient()
		if err != nil {
			return err
		}
		lead, err := client.GetLead(cmd.Context(), args[0])
		if err != nil {
			return authHint(err)
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return json.NewEncoder(os.Stdout).Encode(lead)
		}
		fmt.Print(renderLead(lead))
		return nil
	},
}

var leadsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a lead",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient()
		if err != nil {
			return err
		}
		lead, err := leadFromFlags(cmd, leadapi.Lead{})
		if err != nil {
			return err
		}
		created, err := client.CreateLead(cmd.Context(), lead)
		if err != nil {
			return authHint(err)
		}
		printSuccess("Created lead %s", created.ID)
		return nil
	},
}

var leadsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a lead",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient()
		if err != nil {
			return err
		}
		existing, err := client.GetLead(cmd.Context(), args[0])
		if err != nil {
			return authHint(err)
		}
		lead, err := leadFromFlags(cmd, *existing)
		if err != nil {
			return err
		}
		if _, err := client.UpdateLead(cmd.Context(), args[0], lead); err != nil {
			return authHint(err)
		}
		printSuccess("Updated lead %s", args[0])
		return nil
	},
}

var leadsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a lead",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return fmt.Errorf("refusing to delete without --yes")
		}
		client, _, err := newClient()
		if err != nil {
			return err
		}
		if err := client.DeleteLead(cmd.Context(), args[0]); err != nil {
			return authHint(err)
		}
		printSuccess("Deleted lead %s", args[0])
		return nil
	},
}

// filtersFromFlags assembles the list filter set from command flags.
func filtersFromFlags(cmd *cobra.Command) (query.Filters, error) {
	var f query.Filters
	f.Search, _ = cmd.Flags().GetString("search")
	f.Status, _ = cmd.Flags().GetString("status")
	f.Source, _ = cmd.Flags().GetString("source")

	rangeFlag := func(name string, dst **float64) {
		if cmd.Flags().Changed(name) {
			v, _ := cmd.Flags().GetFloat64(name)
			*dst = query.Float(v)
		}
	}
	rangeFlag("min-score", &f.Score.GreaterThan)
	rangeFlag("max-score", &f.Score.LessThan)
	rangeFlag("min-value", &f.Value.GreaterThan)
	rangeFlag("max-value", &f.Value.LessThan)

	dateFlag := func(name string, dst **time.Time) error {
		v, _ := cmd.Flags().GetString(name)
		if v == "" {
			return nil
		}
		t, err := parseDate(v)
		if err != nil {
			return fmt.Errorf("--%s: %w", name, err)
		}
		*dst = query.Time(t)
		return nil
	}
	if err := dateFlag("since", &f.Created.After); err != nil {
		return f, err
	}
	if err := dateFlag("until", &f.Created.Before); err != nil {
		return f, err
	}
	return f, nil
}

func parseDate(v string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("expected YYYY-MM-DD or RFC 3339 timestamp, got %q", v)
}

func leadFromFlags(cmd *cobra.Command, base leadapi.Lead) (leadapi.Lead, error) {
	stringFlag := func(name string, dst *string) {
		if cmd.Flags().Changed(name) {
			*dst, _ = cmd.Flags().GetString(name)
		}
	}
	stringFlag("first-name", &base.FirstName)
	stringFlag("last-name", &base.LastName)
	stringFlag("email", &base.Email)
	stringFlag("phone", &base.Phone)
	stringFlag("company", &base.Company)
	stringFlag("city", &base.City)
	stringFlag("state", &base.State)
	stringFlag("status", &base.Status)
	stringFlag("source", &base.Source)

	if cmd.Flags().Changed("score") {
		base.Score, _ = cmd.Flags().GetFloat64("score")
	}
	if cmd.Flags().Changed("value") {
		base.LeadValue, _ = cmd.Flags().GetFloat64("value")
	}
	if cmd.Flags().Changed("qualified") {
		base.IsQualified, _ = cmd.Flags().GetBool("qualified")
	}
	if base.FirstName == "" || base.Email == "" {
		return base, fmt.Errorf("--first-name and --email are required")
	}
	return base, nil
}

// authHint turns a 401 into an actionable message instead of a bare
// status code.
func authHint(err error) error {
	if leadapi.IsUnauthenticated(err) {
		printWarning("Not logged in. Run `leadctl login` first.")
		return fmt.Errorf("no active session")
	}
	return err
}

func addLeadFieldFlags(cmd *cobra.Command) {
	cmd.Flags().String("first-name", "", "lead first name")
	cmd.Flags().String("last-name", "", "lead last name")
	cmd.Flags().String("email", "", "lead email")
	cmd.Flags().String("phone", "", "lead phone number")
	cmd.Flags().String("company", "", "lead company")
	cmd.Flags().String("city", "", "lead city")
	cmd.Flags().String("state", "", "lead state")
	cmd.Flags().String("status", "", "lead status (new, contacted, qualified, lost, won)")
	cmd.Flags().String("source", "", "lead source (website, facebook_ads, google_ads, referral, events, other)")
	cmd.Flags().Float64("score", 0, "lead score (0-100)")
	cmd.Flags().Float64("value", 0, "lead value")
	cmd.Flags().Bool("qualified", false, "mark the lead qualified")
}

func addListFilterFlags(cmd *cobra.Command) {
	cmd.Flags().Int("page", 1, "page number")
	cmd.Flags().Int("limit", 0, "page size (default from config)")
	cmd.Flags().String("search", "", "match name, email or company")
	cmd.Flags().String("status", "", "filter by status")
	cmd.Flags().String("source", "", "filter by source")
	cmd.Flags().Float64("min-score", 0, "minimum score (exclusive)")
	cmd.Flags().Float64("max-score", 0, "maximum score (exclusive)")
	cmd.Flags().Float64("min-value", 0, "minimum lead value (exclusive)")
	cmd.Flags().Float64("max-value", 0, "maximum lead value (exclusive)")
	cmd.Flags().String("since", "", "created on or after (YYYY-MM-DD)")
	cmd.Flags().String("until", "", "created on or before (YYYY-MM-DD)")
}

func init() {
	addListFilterFlags(leadsListCmd)
	leadsListCmd.Flags().Bool("json", false, "print raw JSON")

	leadsGetCmd.Flags().Bool("json", false, "print raw JSON")

	addLeadFieldFlags(leadsCreateCmd)
	addLeadFieldFlags(leadsUpdateCmd)

	leadsDeleteCmd.Flags().Bool("yes", false, "confirm deletion")

	leadsCmd.AddCommand(leadsListCmd)
	leadsCmd.AddCommand(leadsGetCmd)
	leadsCmd.AddCommand(leadsCreateCmd)
	leadsCmd.AddCommand(leadsUpdateCmd)
	leadsCmd.AddCommand(leadsDeleteCmd)
}
