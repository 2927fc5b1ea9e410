package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leapstack-labs/askdb/internal/cli/output"
)

func sampleDoctorOutput() *DoctorOutput {
	return &DoctorOutput{
		Target: TargetSummary{Type: "sqlite", Database: "shop.db", Dialect: "sqlite"},
		HealthChecks: []HealthCheck{
			{Name: "connection", Group: "target", Status: statusPass},
			{Name: "users", Group: "tables", Status: statusPass, RowCount: 5},
			{Name: "orders", Group: "tables", Status: statusWarn, Details: []string{"table is empty"}},
			{Name: "order_items", Group: "tables", Status: statusError, Details: []string{"missing column price"}},
		},
		IssueCount: 2,
	}
}

func TestRenderDoctorText(t *testing.T) {
	buf := &bytes.Buffer{}
	renderDoctorText(output.NewRendererWithTTY(buf, &bytes.Buffer{}, false, output.ModeTable), sampleDoctorOutput())

	got := buf.String()
	for _, want := range []string{
		"askdb Health Report",
		"Target: shop.db (sqlite)",
		"Target\n",
		"Tables\n",
		"✓ users (5 rows)",
		"! orders",
		"✗ order_items",
		"- missing column price",
		"2 issue(s) found",
	} {
		assert.Contains(t, got, want)
	}
	assert.NotContains(t, got, "Generator:")
}

func TestRenderDoctorText_AllPassed(t *testing.T) {
	out := &DoctorOutput{
		Target:       TargetSummary{Type: "sqlite", Database: "shop.db", Generator: "http://localhost:8080/generate"},
		HealthChecks: []HealthCheck{{Name: "connection", Group: "target", Status: statusPass}},
	}

	buf := &bytes.Buffer{}
	renderDoctorText(output.NewRendererWithTTY(buf, &bytes.Buffer{}, false, output.ModeTable), out)

	assert.Contains(t, buf.String(), "Generator: http://localhost:8080/generate")
	assert.Contains(t, buf.String(), "All checks passed")
}

func TestRenderDoctorMarkdown(t *testing.T) {
	buf := &bytes.Buffer{}
	renderDoctorMarkdown(output.NewRendererWithTTY(buf, &bytes.Buffer{}, false, output.ModeMarkdown), sampleDoctorOutput())

	got := buf.String()
	assert.Contains(t, got, "# askdb Health Report")
	assert.Contains(t, got, "- **Target**: shop.db (sqlite)")
	assert.Contains(t, got, "| users | tables | pass |  |")
	assert.Contains(t, got, "| order_items | tables | error | missing column price |")
	assert.Contains(t, got, "**Issues**: 2")
}
