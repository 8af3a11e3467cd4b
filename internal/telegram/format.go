package telegram

import (
	"fmt"
	"strings"

	"canteen-planner/internal/catalog"
	"canteen-planner/internal/metrics"
	"canteen-planner/internal/planner"
	"canteen-planner/internal/session"
)

func formatDishes(title string, dishes []catalog.Dish) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🍽 *%s*\n\n", title))
	if len(dishes) == 0 {
		sb.WriteString("_No dishes match_\n")
		return sb.String()
	}
	for _, d := range dishes {
		sb.WriteString(fmt.Sprintf("• `%s` *%s*: %d kcal • P%d C%d F%d",
			d.ID, escape(d.Name), d.Kcal, d.Macros.P, d.Macros.C, d.Macros.F))
		if len(d.Tags) > 0 {
			sb.WriteString(fmt.Sprintf(" (%s)", strings.Join(d.Tags, ", ")))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatTotals(snap session.Snapshot) string {
	var sb strings.Builder
	sb.WriteString("📊 *Nutrition*\n\n")
	for _, dv := range snap.Plan {
		var day planner.Totals
		for _, meal := range dv.Meals {
			for _, e := range meal.Items {
				day = day.Add(planner.TotalsOf(e.Dish))
			}
		}
		if day.IsZero() {
			continue
		}
		sb.WriteString(fmt.Sprintf("• *%s*: %d kcal\n", dv.Day, day.Kcal))
	}
	sb.WriteString("\n")
	sb.WriteString(planner.FormatTotals(snap.Totals))
	return sb.String()
}

func formatSavedPlans(plans []planner.SavedPlan) string {
	if len(plans) == 0 {
		return "_No saved plans yet. Use /save._"
	}
	var sb strings.Builder
	sb.WriteString("🗂 *Saved Plans*\n\n")
	for _, p := range plans {
		sb.WriteString(fmt.Sprintf("• #%d, %s: %d kcal\n", p.ID, p.CreatedAt.Format("2006-01-02 15:04"), p.Totals.Kcal))
	}
	return sb.String()
}

func formatMetricsReport(activity []metrics.DailyActivity, health metrics.SysHealth, sessions int) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent Planner Activity*\n")
	if len(activity) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range activity {
		sb.WriteString(fmt.Sprintf("• *%s*: %d placed, %d removed, %d cancelled, %d saved (%d kcal)\n",
			d.Date, d.Placements, d.Removals, d.Cancelled, d.Saves, d.KcalPlaced))
	}

	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• Sessions: %d\n", sessions))
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Disk Data: %s\n", health.DataDiskSize))
	return sb.String()
}
