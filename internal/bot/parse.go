package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"daycheck/internal/model"
	"daycheck/internal/service"
)

const (
	cbTogglePrefix = "toggle:"
	cbSkipPrefix   = "skip:"
	cbDayPrefix    = "day:"
)

// callback is a decoded inline button payload.
type callback struct {
	action string
	id     model.LogicalID
	date   model.Date
}

func toggleData(id model.LogicalID, date model.Date) string {
	return cbTogglePrefix + id.String() + ":" + date.String()
}

func skipData(id model.LogicalID, date model.Date) string {
	return cbSkipPrefix + id.String() + ":" + date.String()
}

func dayData(date model.Date) string {
	return cbDayPrefix + date.String()
}

// parseCallback decodes toggle:<id>:<date>, skip:<id>:<date> and day:<date>.
func parseCallback(data string) (callback, error) {
	action, rest, ok := strings.Cut(data, ":")
	if !ok {
		return callback{}, fmt.Errorf("malformed callback %q", data)
	}
	switch action {
	case "day":
		date, err := model.ParseDate(rest)
		if err != nil {
			return callback{}, err
		}
		return callback{action: action, date: date}, nil
	case "toggle", "skip":
		rawID, rawDate, ok := strings.Cut(rest, ":")
		if !ok {
			return callback{}, fmt.Errorf("malformed callback %q", data)
		}
		id, err := model.ParseLogicalID(rawID)
		if err != nil {
			return callback{}, err
		}
		if action == "skip" && !id.IsRecurring() {
			return callback{}, fmt.Errorf("only recurring schedules can be skipped")
		}
		date, err := model.ParseDate(rawDate)
		if err != nil {
			return callback{}, err
		}
		return callback{action: action, id: id, date: date}, nil
	}
	return callback{}, fmt.Errorf("unknown callback action %q", action)
}

// parseDayArg accepts an empty argument, today, tomorrow, yesterday or
// YYYY-MM-DD.
func parseDayArg(arg string, today model.Date) (model.Date, error) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "", "today":
		return today, nil
	case "tomorrow":
		return today.AddDays(1), nil
	case "yesterday":
		return today.AddDays(-1), nil
	}
	return model.ParseDate(strings.TrimSpace(arg))
}

// parseOccurrenceRef parses "<R7|7> <date>" for /skip and /unskip.
func parseOccurrenceRef(args string, today model.Date) (uint, model.Date, error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return 0, model.Date{}, errors.New("expected a pattern and a date")
	}
	patternID, err := parsePatternRef(fields[0])
	if err != nil {
		return 0, model.Date{}, err
	}
	date, err := parseDayArg(fields[1], today)
	if err != nil {
		return 0, model.Date{}, err
	}
	return patternID, date, nil
}

// parseTimeRange parses HH:MM-HH:MM.
func parseTimeRange(s string) (model.Clock, model.Clock, error) {
	rawStart, rawEnd, ok := strings.Cut(s, "-")
	if !ok {
		return 0, 0, fmt.Errorf("invalid time range %q, expected HH:MM-HH:MM", s)
	}
	start, err := model.ParseClock(rawStart)
	if err != nil {
		return 0, 0, err
	}
	end, err := model.ParseClock(rawEnd)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// parsePatternRef accepts R7 or a bare pattern number.
func parsePatternRef(s string) (uint, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseUint(s, 10, 64); err == nil && n > 0 {
		return uint(n), nil
	}
	id, err := model.ParseLogicalID(s)
	if err != nil {
		return 0, err
	}
	if !id.IsRecurring() {
		return 0, fmt.Errorf("%s is not a recurring schedule", id)
	}
	return id.ID, nil
}

// parseAddArgs parses "<date> HH:MM-HH:MM <title>" for /add.
func parseAddArgs(args string, today model.Date, loc *time.Location) (service.EventInput, error) {
	fields := strings.Fields(args)
	if len(fields) < 3 {
		return service.EventInput{}, errors.New("usage: /add <date> HH:MM-HH:MM <title>")
	}
	date, err := parseDayArg(fields[0], today)
	if err != nil {
		return service.EventInput{}, err
	}
	start, end, err := parseTimeRange(fields[1])
	if err != nil {
		return service.EventInput{}, err
	}
	return service.EventInput{
		Title:   strings.Join(fields[2:], " "),
		StartAt: date.At(start, loc),
		EndAt:   date.At(end, loc),
	}, nil
}

// parseEveryArgs parses the /every command:
//
//	daily[/N] HH:MM-HH:MM <title>
//	weekly[/N] MON,WED HH:MM-HH:MM <title>
//	monthly[/N] 15 HH:MM-HH:MM <title>
//	monthly[/N] 2TUE HH:MM-HH:MM <title>
//	yearly YYYY-MM-DD HH:MM-HH:MM <title>
//	custom SAT,SUN HH:MM-HH:MM <title>
//
// Patterns start today unless the yearly form names its own date.
func parseEveryArgs(args string, today model.Date) (service.PatternInput, error) {
	fields := strings.Fields(args)
	if len(fields) < 3 {
		return service.PatternInput{}, errors.New("usage: /every <kind>[/interval] [rule] HH:MM-HH:MM <title>")
	}

	rawKind, rawInterval, hasInterval := strings.Cut(fields[0], "/")
	kind, err := model.ParsePatternKind(rawKind)
	if err != nil {
		return service.PatternInput{}, err
	}
	input := service.PatternInput{Kind: kind, Interval: 1, RangeStart: today}
	if hasInterval {
		n, err := strconv.Atoi(rawInterval)
		if err != nil || n < 1 {
			return service.PatternInput{}, fmt.Errorf("invalid interval %q", rawInterval)
		}
		input.Interval = n
	}

	rest := fields[1:]
	if kind != model.PatternDaily {
		if len(rest) < 3 {
			return service.PatternInput{}, fmt.Errorf("%s patterns need a rule before the time range", strings.ToLower(string(kind)))
		}
		if err := applyRule(&input, rest[0]); err != nil {
			return service.PatternInput{}, err
		}
		rest = rest[1:]
	}

	input.StartTime, input.EndTime, err = parseTimeRange(rest[0])
	if err != nil {
		return service.PatternInput{}, err
	}
	input.Title = strings.Join(rest[1:], " ")
	return input, nil
}

func applyRule(input *service.PatternInput, rule string) error {
	switch input.Kind {
	case model.PatternWeekly, model.PatternCustom:
		days, err := model.ParseWeekdaySet(rule)
		if err != nil {
			return err
		}
		input.Weekdays = days
	case model.PatternMonthly:
		if n, err := strconv.Atoi(rule); err == nil {
			input.DayOfMonth = &n
			return nil
		}
		if len(rule) < 2 {
			return fmt.Errorf("invalid monthly rule %q, expected a day number or e.g. 2TUE", rule)
		}
		week, err := strconv.Atoi(rule[:1])
		if err != nil {
			return fmt.Errorf("invalid monthly rule %q, expected a day number or e.g. 2TUE", rule)
		}
		day, err := model.ParseWeekday(rule[1:])
		if err != nil {
			return err
		}
		input.WeekOfMonth = &week
		input.AnchorWeekday = &day
	case model.PatternYearly:
		date, err := model.ParseDate(rule)
		if err != nil {
			return err
		}
		input.RangeStart = date
	}
	return nil
}
