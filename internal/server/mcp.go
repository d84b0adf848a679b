package server

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"leadctl/internal/query"
	"leadctl/internal/storage"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Store *storage.Store
	Now   func() time.Time
}

// NewMCPServer creates an MCP server exposing the lead store as tools,
// so agents can search and manage leads over stdio.
func NewMCPServer(deps MCPDeps) *mcpserver.MCPServer {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	s := mcpserver.NewMCPServer(
		"leadctl",
		"1.0.0",
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithInstructions("leadctl — lead management: search, inspect and update sales leads."),
		mcpserver.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("list_leads",
			mcp.WithDescription("List leads, optionally filtered by search text, status, source or score bounds."),
			mcp.WithString("search", mcp.Description("Match against name, email or company")),
			mcp.WithString("status", mcp.Description("Filter by status (new, contacted, qualified, lost, won)")),
			mcp.WithString("source", mcp.Description("Filter by source (website, facebook_ads, google_ads, referral, events, other)")),
			mcp.WithNumber("min_score", mcp.Description("Only leads with a score above this value")),
			mcp.WithNumber("max_score", mcp.Description("Only leads with a score below this value")),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
		),
		mcpListLeads(deps),
	)

	s.AddTool(
		mcp.NewTool("get_lead",
			mcp.WithDescription("Fetch one lead by id."),
			mcp.WithString("id", mcp.Description("Lead id"), mcp.Required()),
		),
		mcpGetLead(deps),
	)

	s.AddTool(
		mcp.NewTool("create_lead",
			mcp.WithDescription("Create a new lead record."),
			mcp.WithString("first_name", mcp.Description("First name"), mcp.Required()),
			mcp.WithString("last_name", mcp.Description("Last name")),
			mcp.WithString("email", mcp.Description("Email address"), mcp.Required()),
			mcp.WithString("company", mcp.Description("Company name")),
			mcp.WithString("status", mcp.Description("Lead status (default new)")),
			mcp.WithString("source", mcp.Description("Lead source (default other)")),
			mcp.WithNumber("score", mcp.Description("Lead score, 0-100")),
			mcp.WithNumber("lead_value", mcp.Description("Estimated deal value")),
		),
		mcpCreateLead(deps),
	)

	s.AddTool(
		mcp.NewTool("update_lead_status",
			mcp.WithDescription("Move a lead to another status (new, contacted, qualified, lost, won)."),
			mcp.WithString("id", mcp.Description("Lead id"), mcp.Required()),
			mcp.WithString("status", mcp.Description("New status"), mcp.Required()),
		),
		mcpUpdateLeadStatus(deps),
	)

	s.AddTool(
		mcp.NewTool("delete_lead",
			mcp.WithDescription("Delete a lead by id."),
			mcp.WithString("id", mcp.Description("Lead id"), mcp.Required()),
		),
		mcpDeleteLead(deps),
	)

	return s
}

func mcpListLeads(deps MCPDeps) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := req.GetInt("limit", query.DefaultLimit)
		if limit <= 0 {
			limit = query.DefaultLimit
		}
		if limit > maxPageSize {
			limit = maxPageSize
		}

		q := storage.LeadQuery{
			Search: req.GetString("search", ""),
			Status: req.GetString("status", ""),
			Source: req.GetString("source", ""),
			Page:   1,
			Limit:  limit,
		}
		if q.Status != "" && !slices.Contains(query.Statuses, q.Status) {
			return mcpError(fmt.Sprintf("unknown status %q", q.Status)), nil
		}
		if q.Source != "" && !slices.Contains(query.Sources, q.Source) {
			return mcpError(fmt.Sprintf("unknown source %q", q.Source)), nil
		}
		if v := req.GetFloat("min_score", -1); v >= 0 {
			q.ScoreGT = &v
		}
		if v := req.GetFloat("max_score", -1); v >= 0 {
			q.ScoreLT = &v
		}

		leads, total, err := deps.Store.ListLeads(q)
		if err != nil {
			return mcpError(fmt.Sprintf("listing leads failed: %v", err)), nil
		}

		out := map[string]any{
			"total": total,
			"leads": wireLeads(leads),
		}
		b, err := json.Marshal(out)
		if err != nil {
			return mcpError(fmt.Sprintf("encoding result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpGetLead(deps MCPDeps) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}
		lead, err := deps.Store.GetLead(id)
		if err != nil {
			return mcpError(fmt.Sprintf("lead %s not found", id)), nil
		}
		b, err := json.Marshal(wireLead(lead))
		if err != nil {
			return mcpError(fmt.Sprintf("encoding lead: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpCreateLead(deps MCPDeps) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		firstName, err := req.RequireString("first_name")
		if err != nil {
			return mcpError("first_name is required"), nil
		}
		email, err := req.RequireString("email")
		if err != nil {
			return mcpError("email is required"), nil
		}

		lead := wireLeadInput{
			FirstName: firstName,
			LastName:  req.GetString("last_name", ""),
			Email:     email,
			Company:   req.GetString("company", ""),
			Status:    req.GetString("status", ""),
			Source:    req.GetString("source", ""),
			Score:     req.GetFloat("score", 0),
			LeadValue: req.GetFloat("lead_value", 0),
		}
		if msg := lead.validate(); msg != "" {
			return mcpError(msg), nil
		}

		now := deps.Now().UTC()
		rec := storage.Lead{
			ID:        uuid.NewString(),
			FirstName: lead.FirstName,
			LastName:  lead.LastName,
			Email:     lead.Email,
			Company:   lead.Company,
			Status:    lead.Status,
			Source:    lead.Source,
			Score:     lead.Score,
			LeadValue: lead.LeadValue,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := deps.Store.CreateLead(rec); err != nil {
			return mcpError(fmt.Sprintf("creating lead failed: %v", err)), nil
		}
		return mcpText(fmt.Sprintf(`{"id":%q}`, rec.ID)), nil
	}
}

func mcpUpdateLeadStatus(deps MCPDeps) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}
		status, err := req.RequireString("status")
		if err != nil {
			return mcpError("status is required"), nil
		}
		if !slices.Contains(query.Statuses, status) {
			return mcpError(fmt.Sprintf("unknown status %q", status)), nil
		}

		lead, err := deps.Store.GetLead(id)
		if err != nil {
			return mcpError(fmt.Sprintf("lead %s not found", id)), nil
		}
		lead.Status = status
		lead.IsQualified = status == query.StatusQualified || status == query.StatusWon
		lead.UpdatedAt = deps.Now().UTC()
		if err := deps.Store.UpdateLead(lead); err != nil {
			return mcpError(fmt.Sprintf("updating lead failed: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("lead %s is now %s", id, status)), nil
	}
}

func mcpDeleteLead(deps MCPDeps) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}
		if err := deps.Store.DeleteLead(id); err != nil {
			return mcpError(fmt.Sprintf("lead %s not found", id)), nil
		}
		return mcpText(fmt.Sprintf("lead %s deleted", id)), nil
	}
}

// wireLeadInput mirrors the create_lead tool arguments.
type wireLeadInput struct {
	FirstName string
	LastName  string
	Email     string
	Company   string
	Status    string
	Source    string
	Score     float64
	LeadValue float64
}

func (l *wireLeadInput) validate() string {
	if !validEmail(l.Email) {
		return "email address is invalid"
	}
	if l.Status == "" {
		l.Status = query.StatusNew
	}
	if !slices.Contains(query.Statuses, l.Status) {
		return fmt.Sprintf("unknown status %q", l.Status)
	}
	if l.Source == "" {
		l.Source = query.SourceOther
	}
	if !slices.Contains(query.Sources, l.Source) {
		return fmt.Sprintf("unknown source %q", l.Source)
	}
	if l.Score < 0 || l.Score > 100 {
		return "score must be between 0 and 100"
	}
	return ""
}

func wireLeads(leads []storage.Lead) []any {
	out := make([]any, len(leads))
	for i, l := range leads {
		out[i] = wireLead(l)
	}
	return out
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
