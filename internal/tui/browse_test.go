package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadctl/internal/leadapi"
	"leadctl/internal/leadlist"
)

func TestSnapshotMessageFillsTable(t *testing.T) {
	m := NewModel(nil)

	snap := leadlist.Snapshot{
		Rows: []leadapi.Lead{
			{ID: "1", FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Status: "new", Source: "website", Score: 30, LeadValue: 500},
		},
		Page:       1,
		TotalPages: 3,
		Total:      41,
	}
	_, cmd := m.Update(snapshotMsg(snap))
	assert.Nil(t, cmd)
	require.Len(t, m.table.Rows(), 1)
	assert.Equal(t, "Ada Lovelace", m.table.Rows()[0][0])
	assert.Contains(t, m.View(), "page 1/3")
	assert.Contains(t, m.View(), "41 leads")
}

func TestRedirectQuitsProgram(t *testing.T) {
	m := NewModel(nil)

	_, cmd := m.Update(snapshotMsg(leadlist.Snapshot{RedirectToLogin: true}))
	require.NotNil(t, cmd, "redirect should produce a quit command")
	assert.True(t, m.Redirect)
}

func TestErrorShownInView(t *testing.T) {
	m := NewModel(nil)

	m.Update(snapshotMsg(leadlist.Snapshot{Err: "Failed to fetch leads. Please try again.", Page: 1, TotalPages: 1}))
	assert.Contains(t, m.View(), "Failed to fetch leads")
}

func TestStatusCycling(t *testing.T) {
	assert.Equal(t, "", pick([]string{"new", "won"}, 0))
	assert.Equal(t, "new", pick([]string{"new", "won"}, 1))
	assert.Equal(t, "won", pick([]string{"new", "won"}, 2))
}

func TestFilterLine(t *testing.T) {
	m := NewModel(nil)
	assert.Equal(t, "no filters", m.filterLine())

	m.filters.Search = "acme"
	m.filters.Status = "qualified"
	line := m.filterLine()
	assert.Contains(t, line, "search=acme")
	assert.Contains(t, line, "status=qualified")
}
