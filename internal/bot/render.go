package bot

import (
	"errors"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"daycheck/internal/model"
	"daycheck/internal/service"
)

const (
	iconDone     = "✅"
	iconOpen     = "⬜️"
	iconSkip     = "⏭"
	iconPrevDay  = "◀️"
	iconNextDay  = "▶️"
	iconToday    = "📅"
	maxButtonLen = 24
)

func escape(s string) string {
	return html.EscapeString(s)
}

// renderDay builds the text and inline keyboard of a day view. Every row
// toggles completion; recurring rows can also skip the occurrence.
func renderDay(date, today model.Date, views []model.ScheduleView) (string, tgbotapi.InlineKeyboardMarkup) {
	text := strings.TrimSpace(service.FormatDay(date, views))

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(views)+1)
	for _, v := range views {
		icon := iconOpen
		if v.Completed {
			icon = iconDone
		}
		label := fmt.Sprintf("%s %s %s", icon, v.Start.Format("15:04"), shortTitle(v.Title, maxButtonLen))
		row := []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(label, toggleData(v.ID, date)),
		}
		if v.IsRecurring() {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(iconSkip, skipData(v.ID, date)))
		}
		rows = append(rows, row)
	}

	nav := []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData(iconPrevDay, dayData(date.AddDays(-1))),
	}
	if date != today {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData(iconToday, dayData(today)))
	}
	nav = append(nav, tgbotapi.NewInlineKeyboardButtonData(iconNextDay, dayData(date.AddDays(1))))
	rows = append(rows, nav)

	return text, tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// renderWeek concatenates the days of a range listing.
func renderWeek(days []service.DaySchedule) string {
	var sb strings.Builder
	for i, d := range days {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(service.FormatDay(d.Date, d.Items))
	}
	return strings.TrimSpace(sb.String())
}

// describePattern renders one line of the /patterns list.
func describePattern(p model.RecurrencePattern) string {
	var rule string
	switch p.Kind {
	case model.PatternWeekly, model.PatternCustom:
		rule = p.Weekdays.String()
		if rule == "" {
			rule = strings.ToUpper(p.RangeStart.Weekday().String()[:3])
		}
	case model.PatternMonthly:
		switch {
		case p.UsesDayOfMonth():
			rule = fmt.Sprintf("day %d", *p.DayOfMonth)
		case p.UsesWeekOfMonth():
			rule = fmt.Sprintf("%d%s", *p.WeekOfMonth, strings.ToUpper(p.AnchorWeekday.String()[:3]))
		}
	case model.PatternYearly:
		rule = fmt.Sprintf("%02d-%02d", int(p.RangeStart.Month), p.RangeStart.Day)
	}

	kind := strings.ToLower(string(p.Kind))
	if p.Interval > 1 && p.Kind != model.PatternCustom {
		kind = fmt.Sprintf("%s/%d", kind, p.Interval)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("♻️ <code>%s</code> %s · %s", model.RecurringID(p.ID), escape(p.Title), kind))
	if rule != "" {
		sb.WriteString(" " + rule)
	}
	sb.WriteString(fmt.Sprintf(" %s-%s", p.StartTime, p.EndTime))
	if p.RangeEnd != nil {
		sb.WriteString(" until " + p.RangeEnd.String())
	}
	return sb.String()
}

// userError turns a service error into a message for the chat. Other
// owners' schedules read as missing.
func userError(err error) string {
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrUnauthorized):
		return "Schedule not found."
	case errors.Is(err, service.ErrInvalidPattern), errors.Is(err, service.ErrInvalidRange):
		return escape(err.Error())
	default:
		return "Something went wrong, try again later."
	}
}

func shortTitle(title string, maxLen int) string {
	clean := strings.Join(strings.Fields(title), " ")
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}
