package service

import (
	"context"
	"fmt"
	"html"
	"strings"

	"daycheck/internal/model"
)

// dayLister is the part of ScheduleService the digest needs.
type dayLister interface {
	ListForDate(ctx context.Context, ownerID uint, date model.Date) ([]model.ScheduleView, error)
}

// DigestService builds human-readable day summaries for notifications.
type DigestService struct {
	schedules dayLister
}

func NewDigestService(schedules dayLister) *DigestService {
	return &DigestService{schedules: schedules}
}

// DailyDigest renders the owner's schedule for date as Telegram HTML.
func (s *DigestService) DailyDigest(ctx context.Context, user model.User, date model.Date) (string, error) {
	views, err := s.schedules.ListForDate(ctx, user.ID, date)
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>Daily agenda</b>\n")
	if name := strings.TrimSpace(user.DisplayName()); name != "" {
		builder.WriteString(fmt.Sprintf("👋 %s\n", html.EscapeString(name)))
	}
	builder.WriteString(FormatDay(date, views))
	return strings.TrimSpace(builder.String()), nil
}

// FormatDay renders one day of views as Telegram HTML.
func FormatDay(date model.Date, views []model.ScheduleView) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🗓 <b>%s</b> (%s)\n", date.String(), date.Weekday().String()[:3]))

	if len(views) == 0 {
		sb.WriteString("— nothing scheduled\n")
		return sb.String()
	}

	done := 0
	for _, v := range views {
		if v.Completed {
			done++
		}
		sb.WriteString(FormatView(v))
	}
	sb.WriteString(fmt.Sprintf("\n✅ %d/%d done\n", done, len(views)))
	return sb.String()
}

// FormatView renders one schedule row.
func FormatView(v model.ScheduleView) string {
	var sb strings.Builder

	icon := "⬜️"
	if v.Completed {
		icon = "✅"
	}
	sb.WriteString(fmt.Sprintf("%s %s–%s %s", icon, v.Start.Format("15:04"), v.End.Format("15:04"),
		html.EscapeString(strings.TrimSpace(v.Title))))

	if v.IsRecurring() {
		sb.WriteString(fmt.Sprintf(" <i>(♻️ %s)</i>", strings.ToLower(string(v.PatternKind))))
	}
	if marker := priorityMarker(v.Priority); marker != "" {
		sb.WriteString(" " + marker)
	}
	if desc := strings.TrimSpace(v.Description); desc != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", html.EscapeString(desc)))
	}

	sb.WriteByte('\n')
	return sb.String()
}

func priorityMarker(priority string) string {
	switch priority {
	case model.PriorityHigh:
		return "🔴"
	case model.PriorityMedium:
		return "🟡"
	case model.PriorityLow:
		return "🟢"
	}
	return ""
}
