package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"daycheck/internal/bot"
	"daycheck/internal/export"
	"daycheck/internal/model"
	"daycheck/internal/repository"
	"daycheck/internal/service"
)

const digestTimeout = 30 * time.Second

func newBotCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot with the daily digest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.RequireToken(); err != nil {
				return err
			}
			ctx := cmd.Context()

			telegramBot, err := bot.New(a.cfg.TelegramToken, bot.Deps{
				Users:     a.users,
				Schedules: a.schedules,
				Patterns:  a.patterns,
				Events:    a.events,
				Digest:    a.digest,
				Logger:    a.log,
			})
			if err != nil {
				return err
			}

			scheduler := service.NewSchedulerService(a.cfg.Location)
			if a.cfg.DigestTime != nil {
				id, err := scheduler.ScheduleDailyAt(*a.cfg.DigestTime, func() {
					jobCtx, cancel := context.WithTimeout(ctx, digestTimeout)
					defer cancel()
					if err := telegramBot.SendDailyDigests(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
						a.log.WithError(err).Error("daily digest")
					}
				})
				if err != nil {
					return fmt.Errorf("schedule digest: %w", err)
				}
				scheduler.Start()
				defer scheduler.Stop()
				a.log.WithField("next", scheduler.Next(id)).Info("daily digest scheduled")
			}

			if a.cfg.MetricsAddr != "" {
				srv := serveMetrics(a)
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
			}

			a.log.Info("daycheck bot started")
			if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("bot stopped: %w", err)
			}
			a.log.Info("shutdown complete")
			return nil
		},
	}
}

func serveMetrics(a *app) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              a.cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		a.log.WithField("addr", srv.Addr).Info("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.WithError(err).Error("metrics server")
		}
	}()
	return srv
}

// requireOwner fails when no registered user has the given id.
func (a *app) requireOwner(ctx context.Context, owner uint) error {
	if _, err := a.users.FindByID(ctx, owner); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("owner %d is not registered, see `daycheck users`", owner)
		}
		return err
	}
	return nil
}

func newUsersCommand(a *app) *cobra.Command {
	var telegramID int64
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List registered owners, or look one up by Telegram id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			var users []model.User
			if telegramID != 0 {
				user, err := a.users.FindByTelegramID(ctx, telegramID)
				if err != nil {
					return err
				}
				users = append(users, *user)
			} else {
				all, err := a.users.ListAll(ctx)
				if err != nil {
					return err
				}
				users = all
			}
			for _, u := range users {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\ttelegram:%d\t%s\n", u.ID, u.TelegramID, u.DisplayName())
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&telegramID, "telegram-id", 0, "show only the owner with this Telegram id")
	return cmd
}

// dateFlag parses an optional YYYY-MM-DD flag, falling back to today.
func (a *app) dateFlag(raw string) (model.Date, error) {
	if strings.TrimSpace(raw) == "" {
		return a.schedules.Today(), nil
	}
	return model.ParseDate(raw)
}

func (a *app) rangeFlags(rawFrom, rawTo string) (model.Date, model.Date, error) {
	from, err := a.dateFlag(rawFrom)
	if err != nil {
		return model.Date{}, model.Date{}, fmt.Errorf("--from: %w", err)
	}
	if strings.TrimSpace(rawTo) == "" {
		return from, from.AddDays(6), nil
	}
	to, err := model.ParseDate(rawTo)
	if err != nil {
		return model.Date{}, model.Date{}, fmt.Errorf("--to: %w", err)
	}
	return from, to, nil
}

func newAgendaCommand(a *app) *cobra.Command {
	var (
		owner          uint
		date, from, to string
	)
	cmd := &cobra.Command{
		Use:   "agenda",
		Short: "Print the schedule of a day or a date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			if err := a.requireOwner(ctx, owner); err != nil {
				return err
			}

			if from == "" && to == "" {
				d, err := a.dateFlag(date)
				if err != nil {
					return fmt.Errorf("--date: %w", err)
				}
				views, err := a.schedules.ListForDate(ctx, owner, d)
				if err != nil {
					return err
				}
				printDay(out, d, views)
				return nil
			}

			start, end, err := a.rangeFlags(from, to)
			if err != nil {
				return err
			}
			days, err := a.schedules.ListForRange(ctx, owner, start, end)
			if err != nil {
				return err
			}
			for i, day := range days {
				if i > 0 {
					fmt.Fprintln(out)
				}
				printDay(out, day.Date, day.Items)
			}
			return nil
		},
	}
	cmd.Flags().UintVar(&owner, "owner", 0, "owner user id")
	cmd.Flags().StringVar(&date, "date", "", "day to list (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&from, "from", "", "first day of a range")
	cmd.Flags().StringVar(&to, "to", "", "last day of a range (default from+6)")
	cmd.MarkFlagsMutuallyExclusive("date", "from")
	cmd.MarkFlagsMutuallyExclusive("date", "to")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func printDay(w io.Writer, date model.Date, views []model.ScheduleView) {
	fmt.Fprintf(w, "%s %s\n", date, date.Weekday().String()[:3])
	if len(views) == 0 {
		fmt.Fprintln(w, "  nothing scheduled")
		return
	}
	for _, v := range views {
		mark := " "
		if v.Completed {
			mark = "x"
		}
		line := fmt.Sprintf("  [%s] %s-%s %-5s %s", mark, v.Start.Format("15:04"), v.End.Format("15:04"), v.ID, v.Title)
		if v.IsRecurring() {
			line += fmt.Sprintf(" (%s)", strings.ToLower(string(v.PatternKind)))
		}
		if v.Priority != "" {
			line += " !" + v.Priority
		}
		fmt.Fprintln(w, line)
	}
}

func newToggleCommand(a *app) *cobra.Command {
	var (
		owner uint
		date  string
	)
	cmd := &cobra.Command{
		Use:   "toggle <S12|R7>",
		Short: "Flip the completion of a schedule on a day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := model.ParseLogicalID(args[0])
			if err != nil {
				return err
			}
			d, err := a.dateFlag(date)
			if err != nil {
				return fmt.Errorf("--date: %w", err)
			}
			if err := a.requireOwner(cmd.Context(), owner); err != nil {
				return err
			}
			completed, err := a.schedules.ToggleCompletion(cmd.Context(), owner, id, d)
			if err != nil {
				return err
			}
			state := "open"
			if completed {
				state = "done"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s on %s: %s\n", id, d, state)
			return nil
		},
	}
	cmd.Flags().UintVar(&owner, "owner", 0, "owner user id")
	cmd.Flags().StringVar(&date, "date", "", "day of the occurrence (default today)")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func newHistoryCommand(a *app) *cobra.Command {
	var owner uint
	cmd := &cobra.Command{
		Use:   "history <S12|R7>",
		Short: "List recorded completion states of a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := model.ParseLogicalID(args[0])
			if err != nil {
				return err
			}
			if err := a.requireOwner(cmd.Context(), owner); err != nil {
				return err
			}
			records, err := a.schedules.CompletionHistory(cmd.Context(), owner, id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintf(out, "%s has no completion records\n", id)
				return nil
			}
			for _, r := range records {
				state := "open"
				if r.Completed {
					state = "done"
				}
				fmt.Fprintf(out, "%s %s (updated %s)\n", r.Date, state, r.UpdatedAt.In(a.cfg.Location).Format(time.RFC3339))
			}
			return nil
		},
	}
	cmd.Flags().UintVar(&owner, "owner", 0, "owner user id")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func newPatternsCommand(a *app) *cobra.Command {
	var owner uint
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "List recurring events and their exceptions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			if err := a.requireOwner(ctx, owner); err != nil {
				return err
			}
			patterns, err := a.patterns.List(ctx, owner)
			if err != nil {
				return err
			}
			for _, p := range patterns {
				fmt.Fprintf(out, "%s %s %s/%d %s-%s from %s", model.RecurringID(p.ID), p.Title,
					strings.ToLower(string(p.Kind)), p.Interval, p.StartTime, p.EndTime, p.RangeStart)
				if p.RangeEnd != nil {
					fmt.Fprintf(out, " until %s", p.RangeEnd)
				}
				fmt.Fprintln(out)

				exceptions, err := a.patterns.ListExceptions(ctx, owner, p.ID)
				if err != nil {
					return err
				}
				for _, exc := range exceptions {
					line := fmt.Sprintf("  %s %s", exc.Date, strings.ToLower(string(exc.Kind)))
					if title, ok := exc.Patch().Title.Get(); ok {
						line += " -> " + title
					}
					fmt.Fprintln(out, line)
				}
			}
			return nil
		},
	}
	cmd.Flags().UintVar(&owner, "owner", 0, "owner user id")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func newExportCommand(a *app) *cobra.Command {
	var (
		owner            uint
		from, to, output string
		series           bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the schedule as an iCalendar file",
		Long: "Without --series every occurrence in the range becomes its own event with its completion state.\n" +
			"With --series every recurring event is written once with an RRULE and its exceptions.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.requireOwner(ctx, owner); err != nil {
				return err
			}

			exporter := export.New(a.cfg.Location)
			if series {
				all, err := a.seriesFor(ctx, owner)
				if err != nil {
					return err
				}
				return writeOutput(cmd.OutOrStdout(), output, func(w io.Writer) error {
					return exporter.WriteSeries(w, all)
				})
			}

			start, end, err := a.rangeFlags(from, to)
			if err != nil {
				return err
			}
			days, err := a.schedules.ListForRange(ctx, owner, start, end)
			if err != nil {
				return err
			}
			var views []model.ScheduleView
			for _, day := range days {
				views = append(views, day.Items...)
			}
			return writeOutput(cmd.OutOrStdout(), output, func(w io.Writer) error {
				return exporter.WriteViews(w, views)
			})
		},
	}
	cmd.Flags().UintVar(&owner, "owner", 0, "owner user id")
	cmd.Flags().StringVar(&from, "from", "", "first day (default today)")
	cmd.Flags().StringVar(&to, "to", "", "last day (default from+6)")
	cmd.Flags().BoolVar(&series, "series", false, "export recurring events as RRULE series")
	cmd.Flags().StringVarP(&output, "out", "o", "", "output file (default stdout)")
	cmd.MarkFlagsMutuallyExclusive("series", "from")
	cmd.MarkFlagsMutuallyExclusive("series", "to")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

var createFile = func(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

// writeOutput runs write against stdout for "" or "-", otherwise against a
// new file at path. A failed close is reported when write succeeded.
func writeOutput(stdout io.Writer, path string, write func(io.Writer) error) (err error) {
	if path == "" || path == "-" {
		return write(stdout)
	}
	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return write(f)
}

func (a *app) seriesFor(ctx context.Context, owner uint) ([]export.Series, error) {
	patterns, err := a.patterns.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	out := make([]export.Series, 0, len(patterns))
	for _, p := range patterns {
		exceptions, err := a.patterns.ListExceptions(ctx, owner, p.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, export.Series{Pattern: p, Exceptions: exceptions})
	}
	return out, nil
}
