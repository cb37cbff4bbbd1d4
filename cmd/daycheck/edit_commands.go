package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"daycheck/internal/model"
	"daycheck/internal/service"
)

const eventTimeLayout = "2006-01-02 15:04"

// parseRef parses an S12 or R7 id and checks its source.
func parseRef(raw string, want model.Source) (uint, error) {
	id, err := model.ParseLogicalID(raw)
	if err != nil {
		return 0, err
	}
	if id.Source != want {
		return 0, fmt.Errorf("%s is not a %s id", id, want)
	}
	return id.ID, nil
}

type patternFlags struct {
	title, from, until string
	start, end         string
	priority, descr    string
	interval           int
}

func (f *patternFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "new title")
	cmd.Flags().IntVar(&f.interval, "interval", 1, "repeat every N periods")
	cmd.Flags().StringVar(&f.from, "from", "", "first day of the range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.until, "until", "", "last day of the range, or none to run forever")
	cmd.Flags().StringVar(&f.start, "start", "", "start time (HH:MM)")
	cmd.Flags().StringVar(&f.end, "end", "", "end time (HH:MM)")
	cmd.Flags().StringVar(&f.priority, "priority", "", "high, medium or low")
	cmd.Flags().StringVar(&f.descr, "description", "", "free text")
}

// update builds a partial update from the flags given on the command line.
func (f *patternFlags) update(cmd *cobra.Command) (service.PatternUpdate, error) {
	changed := cmd.Flags().Changed
	var upd service.PatternUpdate
	if changed("title") {
		upd.Title = model.Some(f.title)
	}
	if changed("interval") {
		upd.Interval = model.Some(f.interval)
	}
	if changed("from") {
		d, err := model.ParseDate(f.from)
		if err != nil {
			return upd, fmt.Errorf("--from: %w", err)
		}
		upd.RangeStart = model.Some(d)
	}
	if changed("until") {
		if strings.EqualFold(strings.TrimSpace(f.until), "none") {
			upd.RangeEnd = model.Some[*model.Date](nil)
		} else {
			d, err := model.ParseDate(f.until)
			if err != nil {
				return upd, fmt.Errorf("--until: %w", err)
			}
			upd.RangeEnd = model.Some(&d)
		}
	}
	if changed("start") {
		c, err := model.ParseClock(f.start)
		if err != nil {
			return upd, fmt.Errorf("--start: %w", err)
		}
		upd.StartTime = model.Some(c)
	}
	if changed("end") {
		c, err := model.ParseClock(f.end)
		if err != nil {
			return upd, fmt.Errorf("--end: %w", err)
		}
		upd.EndTime = model.Some(c)
	}
	if changed("priority") {
		upd.Priority = model.Some(f.priority)
	}
	if changed("description") {
		upd.Description = model.Some(f.descr)
	}
	return upd, nil
}

func newPatternCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pattern",
		Short: "Change a recurring event",
	}
	cmd.AddCommand(newPatternUpdateCommand(a), newPatternUnskipCommand(a))
	return cmd
}

func newPatternUpdateCommand(a *app) *cobra.Command {
	var (
		owner uint
		flags patternFlags
	)
	cmd := &cobra.Command{
		Use:   "update <R7>",
		Short: "Update fields of a recurring event; unset flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRef(args[0], model.SourceRecurring)
			if err != nil {
				return err
			}
			upd, err := flags.update(cmd)
			if err != nil {
				return err
			}
			if err := a.requireOwner(cmd.Context(), owner); err != nil {
				return err
			}
			p, err := a.patterns.Update(cmd.Context(), owner, id, upd)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s/%d %s-%s\n", model.RecurringID(p.ID), p.Title,
				strings.ToLower(string(p.Kind)), p.Interval, p.StartTime, p.EndTime)
			return nil
		},
	}
	cmd.Flags().UintVar(&owner, "owner", 0, "owner user id")
	flags.register(cmd)
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func newPatternUnskipCommand(a *app) *cobra.Command {
	var (
		owner uint
		date  string
	)
	cmd := &cobra.Command{
		Use:   "unskip <R7>",
		Short: "Drop the exception of one occurrence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRef(args[0], model.SourceRecurring)
			if err != nil {
				return err
			}
			d, err := model.ParseDate(date)
			if err != nil {
				return fmt.Errorf("--date: %w", err)
			}
			if err := a.requireOwner(cmd.Context(), owner); err != nil {
				return err
			}
			if err := a.patterns.DeleteException(cmd.Context(), owner, id, d); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s on %s: restored\n", model.RecurringID(id), d)
			return nil
		},
	}
	cmd.Flags().UintVar(&owner, "owner", 0, "owner user id")
	cmd.Flags().StringVar(&date, "date", "", "day of the occurrence (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("owner")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

type eventFlags struct {
	title, start, end string
	priority, descr   string
}

func (f *eventFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "new title")
	cmd.Flags().StringVar(&f.start, "start", "", "start as \"YYYY-MM-DD HH:MM\" in the configured timezone")
	cmd.Flags().StringVar(&f.end, "end", "", "end as \"YYYY-MM-DD HH:MM\" in the configured timezone")
	cmd.Flags().StringVar(&f.priority, "priority", "", "high, medium or low")
	cmd.Flags().StringVar(&f.descr, "description", "", "free text")
}

func (f *eventFlags) update(cmd *cobra.Command, loc *time.Location) (service.EventUpdate, error) {
	changed := cmd.Flags().Changed
	var upd service.EventUpdate
	if changed("title") {
		upd.Title = model.Some(f.title)
	}
	if changed("start") {
		t, err := time.ParseInLocation(eventTimeLayout, strings.TrimSpace(f.start), loc)
		if err != nil {
			return upd, fmt.Errorf("--start: %w", err)
		}
		upd.StartAt = model.Some(t)
	}
	if changed("end") {
		t, err := time.ParseInLocation(eventTimeLayout, strings.TrimSpace(f.end), loc)
		if err != nil {
			return upd, fmt.Errorf("--end: %w", err)
		}
		upd.EndAt = model.Some(t)
	}
	if changed("priority") {
		upd.Priority = model.Some(f.priority)
	}
	if changed("description") {
		upd.Description = model.Some(f.descr)
	}
	return upd, nil
}

func newEventCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "List and change one-off events",
	}
	cmd.AddCommand(newEventListCommand(a), newEventUpdateCommand(a), newEventDoneCommand(a))
	return cmd
}

func (a *app) printEvent(cmd *cobra.Command, e *model.OneOffEvent) {
	start := e.StartAt.In(a.cfg.Location)
	line := fmt.Sprintf("%s %s %s-%s %s", model.OneOffID(e.ID), start.Format("2006-01-02"),
		start.Format("15:04"), e.EndAt.In(a.cfg.Location).Format("15:04"), e.Title)
	if e.Completed {
		line += " [done]"
	}
	fmt.Fprintln(cmd.OutOrStdout(), line)
}

func newEventListCommand(a *app) *cobra.Command {
	var owner uint
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every one-off event of an owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireOwner(cmd.Context(), owner); err != nil {
				return err
			}
			events, err := a.events.List(cmd.Context(), owner)
			if err != nil {
				return err
			}
			for i := range events {
				a.printEvent(cmd, &events[i])
			}
			return nil
		},
	}
	cmd.Flags().UintVar(&owner, "owner", 0, "owner user id")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func newEventUpdateCommand(a *app) *cobra.Command {
	var (
		owner uint
		flags eventFlags
	)
	cmd := &cobra.Command{
		Use:   "update <S12>",
		Short: "Update fields of a one-off event; unset flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRef(args[0], model.SourceOneOff)
			if err != nil {
				return err
			}
			upd, err := flags.update(cmd, a.cfg.Location)
			if err != nil {
				return err
			}
			if err := a.requireOwner(cmd.Context(), owner); err != nil {
				return err
			}
			event, err := a.events.Update(cmd.Context(), owner, id, upd)
			if err != nil {
				return err
			}
			a.printEvent(cmd, event)
			return nil
		},
	}
	cmd.Flags().UintVar(&owner, "owner", 0, "owner user id")
	flags.register(cmd)
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

// newEventDoneCommand flips the flag stored on the event. Days with a ledger
// record keep showing the ledger state; see `daycheck toggle`.
func newEventDoneCommand(a *app) *cobra.Command {
	var owner uint
	cmd := &cobra.Command{
		Use:   "done <S12>",
		Short: "Flip the stored completed flag of a one-off event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRef(args[0], model.SourceOneOff)
			if err != nil {
				return err
			}
			if err := a.requireOwner(cmd.Context(), owner); err != nil {
				return err
			}
			event, err := a.events.ToggleStored(cmd.Context(), owner, id)
			if err != nil {
				return err
			}
			a.printEvent(cmd, event)
			return nil
		},
	}
	cmd.Flags().UintVar(&owner, "owner", 0, "owner user id")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}
