package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/askdb/internal/cli/output"
	"github.com/leapstack-labs/askdb/pkg/schema"
)

// SchemaOptions holds options for the schema command.
type SchemaOptions struct {
	Format string
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand() *cobra.Command {
	opts := &SchemaOptions{}

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Show the schema questions are compiled against",
		Long: `Print the tables, columns and relationships the question compiler
knows about. The same document is served at GET /schema.`,
		Example: `  askdb schema
  askdb schema --format yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContextWithoutDB(cmd)
			return renderSchema(cc.Renderer, cc.Compiler.Schema(), opts.Format)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: table, json, yaml, markdown")

	return cmd
}

// renderSchema writes the descriptor. An empty format follows the
// renderer's mode.
func renderSchema(r *output.Renderer, d *schema.Descriptor, format string) error {
	switch strings.ToLower(format) {
	case "":
	case "yaml", "yml":
		enc := yaml.NewEncoder(r.Writer())
		enc.SetIndent(2)
		if err := enc.Encode(d.Get()); err != nil {
			return fmt.Errorf("failed to encode schema: %w", err)
		}
		return enc.Close()
	default:
		mode := output.ParseMode(format)
		if !mode.Valid() {
			return fmt.Errorf("unknown schema format %q", format)
		}
		r = output.NewRendererWithTTY(r.Writer(), r.ErrorOutput(), r.IsTTY(), mode)
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(d.Get())
	case output.ModeMarkdown, output.ModeCSV:
		renderSchemaMarkdown(r, d)
	default:
		renderSchemaText(r, d)
	}
	return nil
}

func renderSchemaText(r *output.Renderer, d *schema.Descriptor) {
	styles := r.Styles()

	for _, t := range d.Tables() {
		r.Println(styles.Header2.Render(t.Name) + " " + styles.Muted.Render(t.Description))

		tw := table.NewWriter()
		tw.SetOutputMirror(r.Writer())
		tw.SetStyle(table.StyleLight)
		tw.AppendHeader(table.Row{"#", "Column"})
		for i, col := range t.Columns {
			tw.AppendRow(table.Row{i + 1, col})
		}
		tw.Render()
		r.Println("")
	}

	r.Println(styles.Header2.Render("Relationships"))
	for _, rel := range d.Relationships() {
		r.Println("  " + rel.String())
	}
}

func renderSchemaMarkdown(r *output.Renderer, d *schema.Descriptor) {
	r.Println("# Schema")
	r.Println("")
	for _, t := range d.Tables() {
		r.Printf("## %s\n\n", t.Name)
		if t.Description != "" {
			r.Println(t.Description)
			r.Println("")
		}
		for _, col := range t.Columns {
			r.Printf("- `%s`\n", col)
		}
		r.Println("")
	}
	r.Println("## Relationships")
	r.Println("")
	for _, rel := range d.Relationships() {
		r.Printf("- %s\n", rel.String())
	}
}
