package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"leadctl/internal/leadapi"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorGreen, "✓ "+msg))
}

func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorRed, "✗ "+msg))
}

func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorYellow, "⚠ "+msg))
}

func printStatus(label string, format string, args ...any) {
	val := fmt.Sprintf(format, args...)
	l := colorize(colorBold, label+":")
	fmt.Fprintf(os.Stderr, "  %s %s\n", l, val)
}

func printStep(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorCyan, "→ "+msg))
}

func renderLeadTable(leads []leadapi.Lead) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tSTATUS\tSOURCE\tSCORE\tVALUE")
	for _, l := range leads {
		name := strings.TrimSpace(l.FirstName + " " + l.LastName)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.0f\t%.2f\n",
			shortID(l.ID), name, l.Email, l.Status, l.Source, l.Score, l.LeadValue)
	}
	w.Flush()
	return b.String()
}

func renderLead(l *leadapi.Lead) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%s\n", l.ID)
	fmt.Fprintf(w, "Name:\t%s\n", strings.TrimSpace(l.FirstName+" "+l.LastName))
	fmt.Fprintf(w, "Email:\t%s\n", l.Email)
	if l.Phone != "" {
		fmt.Fprintf(w, "Phone:\t%s\n", l.Phone)
	}
	if l.Company != "" {
		fmt.Fprintf(w, "Company:\t%s\n", l.Company)
	}
	if l.City != "" || l.State != "" {
		fmt.Fprintf(w, "Location:\t%s\n", strings.TrimLeft(l.City+", "+l.State, ", "))
	}
	fmt.Fprintf(w, "Status:\t%s\n", l.Status)
	fmt.Fprintf(w, "Source:\t%s\n", l.Source)
	fmt.Fprintf(w, "Score:\t%.0f\n", l.Score)
	fmt.Fprintf(w, "Value:\t%.2f\n", l.LeadValue)
	fmt.Fprintf(w, "Qualified:\t%t\n", l.IsQualified)
	if l.LastActivityAt != nil {
		fmt.Fprintf(w, "Last activity:\t%s\n", l.LastActivityAt.Format("2006-01-02 15:04"))
	}
	if !l.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Created:\t%s\n", l.CreatedAt.Format("2006-01-02 15:04"))
	}
	w.Flush()
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
