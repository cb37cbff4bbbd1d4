package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"daycheck/internal/model"
	"daycheck/internal/service"
)

const (
	menuLabelToday    = "📅 Today"
	menuLabelWeek     = "🗓 Week"
	menuLabelPatterns = "♻️ Patterns"
	menuLabelHelp     = "ℹ️ Help"
)

// UserStore maps Telegram accounts onto owners.
type UserStore interface {
	UpsertFromTelegram(ctx context.Context, telegramID int64, firstName, lastName, username string) (*model.User, error)
	ListAll(ctx context.Context) ([]model.User, error)
}

// Deps are the services the bot drives.
type Deps struct {
	Users     UserStore
	Schedules *service.ScheduleService
	Patterns  *service.PatternService
	Events    *service.EventService
	Digest    *service.DigestService
	Logger    *logrus.Logger
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api       *tgbotapi.BotAPI
	users     UserStore
	schedules *service.ScheduleService
	patterns  *service.PatternService
	events    *service.EventService
	digest    *service.DigestService
	log       *logrus.Logger
}

func New(token string, deps Deps) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	deps.Logger.WithField("account", api.Self.UserName).Info("bot authorized")

	return &Bot{
		api:       api,
		users:     deps.Users,
		schedules: deps.Schedules,
		patterns:  deps.Patterns,
		events:    deps.Events,
		digest:    deps.Digest,
		log:       deps.Logger,
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				b.log.WithError(err).Error("handle callback")
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				b.log.WithError(err).Error("handle message")
			}
		}
	}

	return ctx.Err()
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if msg.IsCommand() {
		b.log.WithFields(logrus.Fields{
			"from":    msg.From.ID,
			"command": msg.Command(),
			"args":    msg.CommandArguments(),
		}).Info("command received")
		return b.handleCommand(ctx, msg)
	}

	switch strings.TrimSpace(msg.Text) {
	case menuLabelToday:
		return b.handleDay(ctx, msg, "")
	case menuLabelWeek:
		return b.handleWeek(ctx, msg)
	case menuLabelPatterns:
		return b.handlePatterns(ctx, msg)
	case menuLabelHelp:
		return b.handleHelp(msg)
	}

	return b.sendText(msg.Chat.ID, "I did not get that. Try /today or /help.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "today":
		return b.handleDay(ctx, msg, "")
	case "day":
		return b.handleDay(ctx, msg, msg.CommandArguments())
	case "week":
		return b.handleWeek(ctx, msg)
	case "skip":
		return b.handleSkip(ctx, msg)
	case "unskip":
		return b.handleUnskip(ctx, msg)
	case "add":
		return b.handleAdd(ctx, msg)
	case "every":
		return b.handleEvery(ctx, msg)
	case "patterns":
		return b.handlePatterns(ctx, msg)
	case "delete":
		return b.handleDelete(ctx, msg)
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	text := fmt.Sprintf("👋 Hi, %s!\n<b>I keep your day in check.</b>\n\n%s",
		escape(user.DisplayName()), helpText)
	return b.sendText(msg.Chat.ID, text)
}

const helpText = "ℹ️ <b>Commands</b>\n" +
	"• /today — today's schedule with buttons to tick items off\n" +
	"• /day &lt;YYYY-MM-DD|tomorrow&gt; — schedule of another day\n" +
	"• /week — the next seven days\n" +
	"• /add &lt;date&gt; 09:00-10:00 &lt;title&gt; — one-off event\n" +
	"• /every weekly MON,WED 09:00-10:00 &lt;title&gt; — recurring event\n" +
	"  (daily, weekly/2, monthly 15, monthly 2TUE, yearly 2024-03-14, custom SAT,SUN)\n" +
	"• /skip &lt;R7&gt; &lt;YYYY-MM-DD&gt; — skip one occurrence\n" +
	"• /unskip &lt;R7&gt; &lt;YYYY-MM-DD&gt; — undo a skip or change of one occurrence\n" +
	"• /patterns — list recurring events\n" +
	"• /delete &lt;S3|R7&gt; — delete an event or a recurring event"

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	return b.sendText(msg.Chat.ID, helpText)
}

func (b *Bot) handleDay(ctx context.Context, msg *tgbotapi.Message, arg string) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	today := b.schedules.Today()
	date, err := parseDayArg(arg, today)
	if err != nil {
		return b.sendText(msg.Chat.ID, "Use a date like 2024-01-31, today or tomorrow.")
	}
	return b.sendDay(ctx, msg.Chat.ID, user, date)
}

func (b *Bot) sendDay(ctx context.Context, chatID int64, user *model.User, date model.Date) error {
	views, err := b.schedules.ListForDate(ctx, user.ID, date)
	if err != nil {
		b.log.WithError(err).WithField("owner", user.ID).Error("list day")
		return b.sendText(chatID, userError(err))
	}
	text, markup := renderDay(date, b.schedules.Today(), views)
	return b.sendWithReplyMarkup(chatID, text, markup)
}

func (b *Bot) handleWeek(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	today := b.schedules.Today()
	days, err := b.schedules.ListForRange(ctx, user.ID, today, today.AddDays(6))
	if err != nil {
		b.log.WithError(err).WithField("owner", user.ID).Error("list week")
		return b.sendText(msg.Chat.ID, userError(err))
	}
	return b.sendText(msg.Chat.ID, renderWeek(days))
}

func (b *Bot) handleSkip(ctx context.Context, msg *tgbotapi.Message) error {
	patternID, date, err := parseOccurrenceRef(msg.CommandArguments(), b.schedules.Today())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Usage: /skip R7 2024-01-31")
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	if _, err := b.patterns.Skip(ctx, user.ID, patternID, date); err != nil {
		return b.sendText(msg.Chat.ID, userError(err))
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("%s Skipped %s on %s.", iconSkip, model.RecurringID(patternID), date))
}

// handleUnskip drops the exception of one occurrence, restoring the
// pattern's defaults for that day.
func (b *Bot) handleUnskip(ctx context.Context, msg *tgbotapi.Message) error {
	patternID, date, err := parseOccurrenceRef(msg.CommandArguments(), b.schedules.Today())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Usage: /unskip R7 2024-01-31")
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	if err := b.patterns.DeleteException(ctx, user.ID, patternID, date); err != nil {
		return b.sendText(msg.Chat.ID, userError(err))
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("↩️ Restored %s on %s.", model.RecurringID(patternID), date))
}

func (b *Bot) handleAdd(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	input, err := parseAddArgs(msg.CommandArguments(), b.schedules.Today(), b.schedules.Location())
	if err != nil {
		return b.sendText(msg.Chat.ID, escape(err.Error()))
	}
	event, err := b.events.Create(ctx, user.ID, input)
	if err != nil {
		return b.sendText(msg.Chat.ID, userError(err))
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("➕ Added <code>%s</code> %s.", model.OneOffID(event.ID), escape(event.Title)))
}

func (b *Bot) handleEvery(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	input, err := parseEveryArgs(msg.CommandArguments(), b.schedules.Today())
	if err != nil {
		return b.sendText(msg.Chat.ID, escape(err.Error()))
	}
	p, err := b.patterns.Create(ctx, user.ID, input)
	if err != nil {
		return b.sendText(msg.Chat.ID, userError(err))
	}
	return b.sendText(msg.Chat.ID, "Created:\n"+describePattern(*p))
}

func (b *Bot) handlePatterns(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	patterns, err := b.patterns.List(ctx, user.ID)
	if err != nil {
		return b.sendText(msg.Chat.ID, userError(err))
	}
	if len(patterns) == 0 {
		return b.sendText(msg.Chat.ID, "No recurring events yet. Add one with /every.")
	}
	lines := make([]string, 0, len(patterns)+1)
	lines = append(lines, "♻️ <b>Recurring events</b>")
	for _, p := range patterns {
		lines = append(lines, describePattern(p))
	}
	return b.sendText(msg.Chat.ID, strings.Join(lines, "\n"))
}

func (b *Bot) handleDelete(ctx context.Context, msg *tgbotapi.Message) error {
	id, err := model.ParseLogicalID(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Usage: /delete S3 or /delete R7")
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	if id.IsRecurring() {
		err = b.patterns.Delete(ctx, user.ID, id.ID)
	} else {
		err = b.events.Delete(ctx, user.ID, id.ID)
	}
	if err != nil {
		return b.sendText(msg.Chat.ID, userError(err))
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🗑 Deleted %s.", id))
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.WithError(err).Warn("callback ack")
	}

	parsed, err := parseCallback(cb.Data)
	if err != nil {
		b.log.WithError(err).WithField("data", cb.Data).Warn("ignore callback")
		return nil
	}
	user, err := b.ensureUser(ctx, cb.From)
	if err != nil {
		return err
	}

	switch parsed.action {
	case "toggle":
		if _, err := b.schedules.ToggleCompletion(ctx, user.ID, parsed.id, parsed.date); err != nil {
			return b.sendText(cb.Message.Chat.ID, userError(err))
		}
	case "skip":
		if _, err := b.patterns.Skip(ctx, user.ID, parsed.id.ID, parsed.date); err != nil {
			return b.sendText(cb.Message.Chat.ID, userError(err))
		}
	}
	return b.refreshDay(ctx, cb.Message, user, parsed.date)
}

// refreshDay re-renders a day view in place.
func (b *Bot) refreshDay(ctx context.Context, msg *tgbotapi.Message, user *model.User, date model.Date) error {
	views, err := b.schedules.ListForDate(ctx, user.ID, date)
	if err != nil {
		return b.sendText(msg.Chat.ID, userError(err))
	}
	text, markup := renderDay(date, b.schedules.Today(), views)
	edit := tgbotapi.NewEditMessageTextAndMarkup(msg.Chat.ID, msg.MessageID, text, markup)
	edit.ParseMode = tgbotapi.ModeHTML
	_, err = b.api.Send(edit)
	return err
}

// SendDailyDigests sends today's agenda to every known user.
func (b *Bot) SendDailyDigests(ctx context.Context) error {
	users, err := b.users.ListAll(ctx)
	if err != nil {
		return err
	}
	today := b.schedules.Today()
	for _, user := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		text, err := b.digest.DailyDigest(ctx, user, today)
		if err != nil {
			b.log.WithError(err).WithField("telegram_id", user.TelegramID).Error("build digest")
			continue
		}
		if err := b.sendText(user.TelegramID, text); err != nil {
			b.log.WithError(err).WithField("telegram_id", user.TelegramID).Error("send digest")
		}
	}
	return nil
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	return b.users.UpsertFromTelegram(ctx, from.ID, from.FirstName, from.LastName, from.UserName)
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelToday),
			tgbotapi.NewKeyboardButton(menuLabelWeek),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelPatterns),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}
