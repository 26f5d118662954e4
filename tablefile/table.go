// Package tablefile implements the markdown translation table: the editable
// surface that carries extracted strings out to human translators and their
// filled-in rows back into reconciliation requests.
package tablefile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tsforge/tsforge/reconcile"
)

// Entry is one exportable row: an untranslated string with its placement.
type Entry struct {
	Context string `json:"context"`
	Source  string `json:"source"`
	Comment string `json:"comment"`
}

// Locale describes one translation column of the multi-locale table.
type Locale struct {
	Code string
	Name string
}

// Locales is the built-in locale set, in column order.
var Locales = []Locale{
	{Code: "zh_CN", Name: "简体中文"},
	{Code: "zh_HK", Name: "香港繁体"},
	{Code: "zh_TW", Name: "台湾繁体"},
}

// LocaleName returns the display name for a locale code, or the code
// itself when it is not in the built-in set.
func LocaleName(code string) string {
	for _, l := range Locales {
		if l.Code == code {
			return l.Name
		}
	}
	return code
}

// Create renders the single-locale table: index, context, source, an empty
// translation column to fill in, and the comment. An empty entry list
// yields just the header and separator rows.
func Create(entries []Entry, language string) string {
	if language == "" {
		language = "中文"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "| 序号 | Context | 英文原文 | %s翻译 | 备注 |\n", language)
	b.WriteString("|------|---------|----------|----------|------|\n")

	for i, e := range entries {
		fmt.Fprintf(&b, "| %d | %s | %s | | %s |\n",
			i+1, escapeCell(e.Context), escapeCell(e.Source), escapeCell(e.Comment))
	}
	return b.String()
}

// CreateMulti renders the table with one translation column per built-in
// locale.
func CreateMulti(entries []Entry) string {
	var b strings.Builder

	b.WriteString("| 序号 | Context | 英文原文 |")
	for _, l := range Locales {
		fmt.Fprintf(&b, " %s(%s) |", l.Name, l.Code)
	}
	b.WriteString(" 备注 |\n")

	b.WriteString("|------|---------|----------|")
	b.WriteString(strings.Repeat("----------------|", len(Locales)))
	b.WriteString("------|\n")

	for i, e := range entries {
		fmt.Fprintf(&b, "| %d | %s | %s |", i+1, escapeCell(e.Context), escapeCell(e.Source))
		b.WriteString(strings.Repeat(" |", len(Locales)))
		fmt.Fprintf(&b, " %s |\n", escapeCell(e.Comment))
	}
	return b.String()
}

// Parse extracts reconciliation requests from a filled-in single-locale
// table. Rows with an empty translation cell are no-ops and omitted; rows
// with too few cells are skipped, never a parse failure.
func Parse(table string) []reconcile.Request {
	var reqs []reconcile.Request

	for _, line := range dataRows(table) {
		parts := splitRow(line)
		if len(parts) < 6 {
			continue
		}
		if parts[4] == "" {
			continue
		}
		reqs = append(reqs, reconcile.Request{
			Context:     unescapeCell(parts[2]),
			Source:      unescapeCell(parts[3]),
			Translation: unescapeCell(parts[4]),
			Comment:     unescapeCell(parts[5]),
		})
	}
	return reqs
}

// ParseMulti extracts per-locale request lists from a filled-in
// multi-locale table. A row contributes to a locale only when that
// locale's cell is non-empty; every built-in locale is present in the
// result, possibly with an empty list.
func ParseMulti(table string) map[string][]reconcile.Request {
	result := make(map[string][]reconcile.Request, len(Locales))
	for _, l := range Locales {
		result[l.Code] = nil
	}

	for _, line := range dataRows(table) {
		parts := splitRow(line)
		if len(parts) < 5+len(Locales) {
			continue
		}
		context := unescapeCell(parts[2])
		source := unescapeCell(parts[3])
		comment := unescapeCell(parts[4+len(Locales)])

		for i, l := range Locales {
			if parts[4+i] == "" {
				continue
			}
			result[l.Code] = append(result[l.Code], reconcile.Request{
				Context:     context,
				Source:      source,
				Translation: unescapeCell(parts[4+i]),
				Comment:     comment,
			})
		}
	}
	return result
}

// CreateJSON renders the entries as a JSON fill-in template with empty
// translation fields.
func CreateJSON(entries []Entry) (string, error) {
	type row struct {
		Context     string `json:"context"`
		Source      string `json:"source"`
		Translation string `json:"translation"`
		Comment     string `json:"comment"`
	}

	rows := make([]row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, row{Context: e.Context, Source: e.Source, Comment: e.Comment})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return "", fmt.Errorf("encoding table: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// dataRows returns the table's data lines: every |-prefixed line after the
// header and separator. Tables with no data lines yield nil.
func dataRows(table string) []string {
	var rows []string
	for _, line := range strings.Split(strings.TrimSpace(table), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "|") {
			rows = append(rows, line)
		}
	}
	if len(rows) <= 2 {
		return nil
	}
	return rows[2:]
}

// splitRow splits a row on unescaped pipes, trimming each cell. Escaped
// pipes stay inside their cell so exported content survives the round trip.
func splitRow(line string) []string {
	var cells []string
	var b strings.Builder

	for i := 0; i < len(line); i++ {
		c := line[i]
		if c == '\\' && i+1 < len(line) && line[i+1] == '|' {
			b.WriteString(`\|`)
			i++
			continue
		}
		if c == '|' {
			cells = append(cells, strings.TrimSpace(b.String()))
			b.Reset()
			continue
		}
		b.WriteByte(c)
	}
	cells = append(cells, strings.TrimSpace(b.String()))
	return cells
}

// escapeCell protects the pipe delimiter and flattens embedded newlines to
// spaces. The newline flattening is lossy on purpose: cells are edited as
// single table rows.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// unescapeCell reverses the pipe escape. Newlines are not restorable.
func unescapeCell(s string) string {
	return strings.ReplaceAll(s, `\|`, "|")
}
