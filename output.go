package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// WriteContract renders the selected login form as a table.
func WriteContract(w io.Writer, form *Form, noColor bool) {
	fmt.Fprintf(w, "\nAction: %s\nMethod: %s\n", form.Action, form.Method)
	if form.CSRF != nil {
		fmt.Fprintf(w, "CSRF:   %s = %s\n", form.CSRF.Name, form.CSRF.Value)
	} else {
		fmt.Fprintln(w, "CSRF:   none")
	}

	headers := []string{"Field", "Type", "Role", "Value"}

	var rows [][]string
	for _, field := range form.Fields {
		fieldType := field.Type
		if fieldType == "" {
			fieldType = "text"
		}
		rows = append(rows, []string{field.Name, fieldType, field.Role.String(), truncate(field.Value, 40)})
	}

	if noColor {
		writeSimpleTable(w, headers, rows)
		return
	}

	t := table.New().
		Headers(headers...).
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
			}
			return lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
		})

	for _, row := range rows {
		t.Row(row...)
	}

	fmt.Fprintln(w, t.Render())
}

// WriteForms lists every form on the page, marking the selected one.
func WriteForms(w io.Writer, forms []*Form, selected *Form) {
	fmt.Fprintf(w, "\nForms on page: %d\n", len(forms))
	for _, form := range forms {
		marker := " "
		if selected != nil && form.Index == selected.Index {
			marker = "*"
		}
		names := make([]string, 0, len(form.Fields))
		for _, field := range form.Fields {
			names = append(names, field.Name)
		}
		fmt.Fprintf(w, " %s [%d] %s %s (%s)\n", marker, form.Index, form.Method, form.Action, strings.Join(names, ", "))
	}
}

func writeSimpleTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	line := func(cells []string) {
		for i, cell := range cells {
			fmt.Fprintf(w, "%-*s  ", widths[i], cell)
		}
		fmt.Fprintln(w)
	}

	line(headers)
	for _, row := range rows {
		line(row)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
