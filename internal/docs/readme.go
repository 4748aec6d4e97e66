// Package docs renders the command reference used in README.md.
package docs

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/template"

	"botcore/internal/commands"
	"botcore/internal/config"
	"botcore/pkg/cmd"
)

// DefaultTemplate is used when no README template file exists.
const DefaultTemplate = `# {{.AppName}}

## Commands

{{.CommandSections}}`

// CommandSections lists visible commands grouped by category, heaviest
// categories last. Subcommands are listed under their parent.
func CommandSections(reg *cmd.Registry, prefix string) string {
	all := reg.All()
	sort.SliceStable(all, func(i, j int) bool {
		wi, wj := config.CategoryWeight(all[i].Category), config.CategoryWeight(all[j].Category)
		if wi != wj {
			return wi < wj
		}
		if all[i].Category != all[j].Category {
			return all[i].Category < all[j].Category
		}
		return all[i].Name < all[j].Name
	})

	var buf bytes.Buffer
	current := "\x00"
	for _, d := range all {
		if d.Hidden {
			continue
		}
		if d.Category != current {
			if current != "\x00" {
				buf.WriteString("\n")
			}
			current = d.Category
			cat := current
			if cat == "" {
				cat = "Other"
			}
			fmt.Fprintf(&buf, "### %s\n\n", cat)
		}
		writeCommand(&buf, d, prefix, 0)
	}
	return buf.String()
}

func writeCommand(buf *bytes.Buffer, d *cmd.Descriptor, prefix string, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(buf, "%s- **`%s`**", indent, commands.Usage(d, prefix))
	if d.Description != "" {
		buf.WriteString(" - " + d.Description)
	}
	if style := d.Style; style == cmd.StylePrefix || style == cmd.StyleSlash {
		fmt.Fprintf(buf, " _(%s only)_", style)
	}
	buf.WriteString("\n")
	for _, sub := range d.Subcommands {
		if !sub.Hidden {
			writeCommand(buf, sub, prefix, depth+1)
		}
	}
}

// Render executes tmpl with the command sections.
func Render(w io.Writer, tmpl string, reg *cmd.Registry, prefix, appName string) error {
	t, err := template.New("readme").Parse(tmpl)
	if err != nil {
		return fmt.Errorf("parse template: %w", err)
	}
	return t.Execute(w, struct {
		AppName         string
		CommandSections string
	}{appName, CommandSections(reg, prefix)})
}

// UpdateReadme renders tmplPath, or DefaultTemplate when it does not exist,
// into outPath.
func UpdateReadme(tmplPath, outPath string, reg *cmd.Registry, prefix, appName string) error {
	tmpl := DefaultTemplate
	if tmplPath != "" {
		data, err := os.ReadFile(tmplPath)
		switch {
		case err == nil:
			tmpl = string(data)
		case !os.IsNotExist(err):
			return err
		}
	}

	var buf bytes.Buffer
	if err := Render(&buf, tmpl, reg, prefix, appName); err != nil {
		return err
	}
	return os.WriteFile(outPath, buf.Bytes(), 0o644)
}
