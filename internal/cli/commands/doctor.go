package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/askdb/internal/cli/output"
	"github.com/leapstack-labs/askdb/pkg/adapter"
	"github.com/leapstack-labs/askdb/pkg/schema"
)

// Check statuses.
const (
	statusPass  = "pass"
	statusWarn  = "warn"
	statusError = "error"
)

// DoctorOptions holds options for the doctor command.
type DoctorOptions struct {
	Format string // Output format: text, json
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	Target       TargetSummary `json:"target"`
	HealthChecks []HealthCheck `json:"health_checks"`
	IssueCount   int           `json:"issue_count"`
}

// TargetSummary describes the database that was checked.
type TargetSummary struct {
	Type      string `json:"type"`
	Database  string `json:"database"`
	Dialect   string `json:"dialect"`
	Generator string `json:"generator,omitempty"`
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	Name     string   `json:"name"`
	Group    string   `json:"group"`
	Status   string   `json:"status"` // "pass", "warn", "error"
	RowCount int64    `json:"row_count,omitempty"`
	Details  []string `json:"details,omitempty"`
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	opts := &DoctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that the target database can answer questions",
		Long: `Connect to the target database and verify that every table and column
the question compiler can reference exists.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Run health check
  askdb doctor

  # Output as JSON
  askdb doctor --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json")

	return cmd
}

func runDoctor(cmd *cobra.Command, opts *DoctorOptions) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	r := cc.Renderer
	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.ParseMode(opts.Format))
	}

	out := &DoctorOutput{
		Target: TargetSummary{
			Type:      cc.Cfg.Target.Type,
			Database:  cc.Cfg.Target.Database,
			Dialect:   cc.DB.DialectName(),
			Generator: cc.Cfg.Generator.Endpoint,
		},
		HealthChecks: []HealthCheck{{Name: "connection", Group: "target", Status: statusPass}},
	}

	for _, t := range cc.Compiler.Schema().Tables() {
		meta, err := cc.DB.GetTableMetadata(cmd.Context(), t.Name)
		out.HealthChecks = append(out.HealthChecks, checkTable(t, meta, err))
	}

	for _, hc := range out.HealthChecks {
		if hc.Status != statusPass {
			out.IssueCount++
		}
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		err = r.JSON(out)
	case output.ModeMarkdown:
		renderDoctorMarkdown(r, out)
	default:
		renderDoctorText(r, out)
	}
	if err != nil {
		return err
	}

	if out.IssueCount > 0 {
		return fmt.Errorf("doctor found %d issue(s)", out.IssueCount)
	}
	return nil
}

// checkTable compares the expected table against the database metadata.
func checkTable(t schema.Table, meta *adapter.Metadata, err error) HealthCheck {
	hc := HealthCheck{Name: t.Name, Group: "tables", Status: statusPass}
	if err != nil {
		hc.Status = statusError
		hc.Details = []string{err.Error(), "run 'askdb seed' to create the sample tables"}
		return hc
	}

	hc.RowCount = meta.RowCount
	for _, col := range t.Columns {
		if !meta.HasColumn(col) {
			hc.Status = statusError
			hc.Details = append(hc.Details, "missing column "+col)
		}
	}
	if hc.Status == statusPass && meta.RowCount == 0 {
		hc.Status = statusWarn
		hc.Details = append(hc.Details, "table is empty")
	}
	return hc
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render("askdb Health Report"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	r.Printf("   Target: %s (%s)\n", out.Target.Database, out.Target.Type)
	if out.Target.Generator != "" {
		r.Printf("   Generator: %s\n", out.Target.Generator)
	}
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println(styles.Bold.Render("   " + titleCaser.String(currentGroup)))
			r.Println(styles.Muted.Render("   " + strings.Repeat("-", 40)))
		}

		icon := styles.StatusSuccess.String()
		switch check.Status {
		case statusWarn:
			icon = styles.Warning.Render("!")
		case statusError:
			icon = styles.StatusFailed.String()
		}

		line := fmt.Sprintf("%s %s", icon, check.Name)
		if check.RowCount > 0 {
			line += styles.Muted.Render(fmt.Sprintf(" (%d rows)", check.RowCount))
		}
		r.Println("   " + line)
		for _, detail := range check.Details {
			r.Println(styles.Muted.Render("       - " + detail))
		}
	}
	r.Println("")

	if out.IssueCount == 0 {
		r.Println(styles.Success.Render("   All checks passed"))
	} else {
		r.Println(styles.Error.Render(fmt.Sprintf("   %d issue(s) found", out.IssueCount)))
	}
	r.Println("")
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) {
	r.Println("# askdb Health Report")
	r.Println("")
	r.Printf("- **Target**: %s (%s)\n", out.Target.Database, out.Target.Type)
	if out.Target.Generator != "" {
		r.Printf("- **Generator**: %s\n", out.Target.Generator)
	}
	r.Println("")

	r.Println("| Check | Group | Status | Details |")
	r.Println("| --- | --- | --- | --- |")
	for _, check := range out.HealthChecks {
		r.Printf("| %s | %s | %s | %s |\n", check.Name, check.Group, check.Status, strings.Join(check.Details, "; "))
	}
	r.Println("")
	r.Printf("**Issues**: %d\n", out.IssueCount)
}
