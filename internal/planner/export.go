package planner

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed export_template.html
var exportTemplate string

var exportTmpl = template.Must(template.New("export").Parse(exportTemplate))

// markdownEscaper escapes the characters legacy chat Markdown reads as
// markup, so imported dish names cannot break a rendered plan.
var markdownEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "`", "\\`", "[", `\[`)

type exportData struct {
	Title  string
	Days   []exportDay
	Totals Totals
}

type exportDay struct {
	Day    DayKey
	Meals  []MealSlot
	Totals Totals
}

// ExportMarkdown renders the plan and its totals as chat-friendly Markdown.
func ExportMarkdown(w WeekPlan) string {
	var sb strings.Builder
	sb.WriteString("📅 *Weekly Meal Plan*\n\n")

	if w.IsEmpty() {
		sb.WriteString("_No dishes planned yet_\n\n")
	}
	for _, dv := range w.View() {
		var lines []string
		for _, meal := range dv.Meals {
			if len(meal.Items) == 0 {
				continue
			}
			names := make([]string, len(meal.Items))
			for i, e := range meal.Items {
				names[i] = markdownEscaper.Replace(e.Name)
			}
			lines = append(lines, fmt.Sprintf("  %s: %s", meal.Label, strings.Join(names, ", ")))
		}
		if len(lines) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("*%s*\n", dv.Day))
		sb.WriteString(strings.Join(lines, "\n"))
		sb.WriteString("\n\n")
	}

	sb.WriteString(FormatTotals(ComputeTotals(w)))
	return sb.String()
}

// FormatTotals renders totals on one line.
func FormatTotals(t Totals) string {
	return fmt.Sprintf("🔥 *Total:* %d kcal • P%d C%d F%d", t.Kcal, t.P, t.C, t.F)
}

// ExportHTML renders the plan as a standalone HTML page.
func ExportHTML(w WeekPlan, title string) (string, error) {
	if title == "" {
		title = "Weekly Meal Plan"
	}
	data := exportData{Title: title, Totals: ComputeTotals(w)}
	for _, dv := range w.View() {
		data.Days = append(data.Days, exportDay{
			Day:    dv.Day,
			Meals:  dv.Meals,
			Totals: DayTotals(w, dv.Day),
		})
	}

	var buf bytes.Buffer
	if err := exportTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render plan: %w", err)
	}
	return buf.String(), nil
}
