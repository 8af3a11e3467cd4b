package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"canteen-planner/internal/app"
	"canteen-planner/internal/catalog"
	"canteen-planner/internal/config"
	"canteen-planner/internal/metrics"
	"canteen-planner/internal/planner"
	"canteen-planner/internal/session"
	"canteen-planner/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

const recentPlansLimit = 5

const helpText = `🍛 *Canteen Planner*

/catalog [veg] [vegan] [gf] - browse dishes
/search <text> - find dishes
/region <name> [text] - regional gallery
/select <dish-id> - pick a dish
/rate <dish-id> <1-5> - rate a dish
/add <day> <meal> [dish-id] - place a dish
/remove <day> <meal> <n> - remove the n-th dish of a meal

Meals are breakfast, lunch, dinner or 1-3.
/plan - show the week
/totals - show nutrition totals
/save - save a snapshot of the week
/plans - list saved snapshots
/export <plan-id> [html] - export a snapshot`

// sender is the part of the Telegram API the bot talks to.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// usageError is a user mistake answered with a hint instead of an alert.
type usageError string

func (e usageError) Error() string { return string(e) }

// Bot is the chat shell over the planner. Each chat owns one session.
type Bot struct {
	api sender
	app *app.App
	cfg *config.Config
}

// NewBot initializes the Telegram API and sets the webhook.
func NewBot(cfg *config.Config, a *app.App) (*Bot, error) {
	if err := cfg.RequireTelegram(); err != nil {
		return nil, err
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	log.Info().Str("account", api.Self.UserName).Msg("telegram bot authorized")

	wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url: %w", err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.Info().Str("response", resp.Description).Msg("telegram webhook set")

	return newBot(api, cfg, a), nil
}

func newBot(api sender, cfg *config.Config, a *app.App) *Bot {
	return &Bot{api: api, app: a, cfg: cfg}
}

// ServeHTTP accepts webhook updates. Telegram always gets a 200 so it does
// not redeliver updates the bot chose to ignore.
func (b *Bot) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.Warn().Err(err).Msg("error parsing update")
		w.WriteHeader(http.StatusOK)
		return
	}
	w.WriteHeader(http.StatusOK)

	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return
	}
	if !b.allowed(msg.From.ID) {
		log.Warn().Int64("user_id", msg.From.ID).Str("username", msg.From.UserName).Msg("unauthorized access attempt")
		return
	}

	go b.processMessage(context.Background(), msg)
}

func (b *Bot) allowed(userID int64) bool {
	if userID != 0 && userID == b.cfg.TelegramAdminID {
		return true
	}
	return slices.Contains(b.cfg.TelegramAllowedUserIDs, userID)
}

func (b *Bot) processMessage(ctx context.Context, msg *tgbotapi.Message) {
	reply, err := b.handle(ctx, msg)
	if err != nil {
		var usage usageError
		switch {
		case errors.As(err, &usage):
			reply = "⚠️ " + usage.Error()
		case errors.Is(err, catalog.ErrDishNotFound):
			reply = "❌ Unknown dish. Try /search."
		case errors.Is(err, session.ErrInvalidRating):
			reply = "❌ Ratings go from 1 to 5 stars."
		case errors.Is(err, planner.ErrPlanNotFound):
			reply = "❌ No saved plan with that number."
		case errors.Is(err, app.ErrExportsDisabled):
			reply = "❌ Exports are not configured."
		default:
			log.Error().Err(err).Int64("chat_id", msg.Chat.ID).Str("text", msg.Text).Msg("command failed")
			reply = "❌ *Something went wrong.* Please try again."
			b.sendAdminAlert(fmt.Sprintf("⚠️ *Command failed*\nChat: %d\nError: %s", msg.Chat.ID, escape(err.Error())))
		}
	}
	b.send(msg.Chat.ID, reply)
}

// handle runs one chat command and returns the reply text.
func (b *Bot) handle(ctx context.Context, msg *tgbotapi.Message) (string, error) {
	cmd, args := parseCommand(msg.Text)
	id := b.app.Sessions().Ensure(chatSessionKey(msg.Chat.ID))

	switch cmd {
	case "start", "help":
		return helpText, nil
	case "catalog":
		f, err := parseFilter(args)
		if err != nil {
			return "", err
		}
		dishes, err := b.app.SetFilter(id, f)
		if err != nil {
			return "", err
		}
		return formatDishes(filterTitle(f), dishes), nil
	case "search":
		return b.search(strings.Join(args, " ")), nil
	case "region":
		region := ""
		if len(args) > 0 {
			region = regionName(args[0])
		}
		if region == "" {
			return "", usageError("Usage: /region <" + strings.Join(catalog.Regions, "|") + "> [text]")
		}
		dishes := b.app.Catalog().Regional(region, strings.Join(args[1:], " "), false)
		return formatDishes(region+" India", dishes), nil
	case "select":
		if len(args) != 1 {
			return "", usageError("Usage: /select <dish-id>")
		}
		if err := b.app.Select(id, args[0]); err != nil {
			return "", err
		}
		return fmt.Sprintf("👉 Selected `%s`. Place it with /add <day> <meal>.", args[0]), nil
	case "rate":
		return b.rate(id, args)
	case "add":
		return b.add(ctx, id, args)
	case "remove":
		return b.remove(ctx, id, args)
	case "plan":
		out, err := b.app.RenderSession(id, storage.FormatMarkdown)
		return string(out), err
	case "totals":
		snap, err := b.app.Sessions().Get(id)
		if err != nil {
			return "", err
		}
		return formatTotals(snap), nil
	case "save":
		planID, err := b.app.SavePlan(ctx, id, userOwner(msg.From.ID))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("✅ *Plan saved* as #%d. Use /export %d to download it.", planID, planID), nil
	case "plans":
		plans, err := b.app.RecentPlans(ctx, userOwner(msg.From.ID), recentPlansLimit)
		if err != nil {
			return "", err
		}
		return formatSavedPlans(plans), nil
	case "export":
		return b.export(ctx, args)
	case "metrics":
		if msg.From.ID != b.cfg.TelegramAdminID {
			return "⛔ *Access Denied*: Admin only.", nil
		}
		return b.metricsReport(ctx)
	case "":
		return b.search(msg.Text), nil
	default:
		return "", usageError("Unknown command. Send /help for the list.")
	}
}

func (b *Bot) search(query string) string {
	return formatDishes(fmt.Sprintf("Results for \"%s\"", escape(query)), b.app.Catalog().Search(query))
}

func (b *Bot) rate(id string, args []string) (string, error) {
	if len(args) != 2 {
		return "", usageError("Usage: /rate <dish-id> <1-5>")
	}
	stars, err := strconv.Atoi(args[1])
	if err != nil {
		return "", usageError("Stars must be a number from 1 to 5.")
	}
	if err := b.app.Rate(id, args[0], stars); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s for `%s`", strings.Repeat("⭐", stars), args[0]), nil
}

func (b *Bot) add(ctx context.Context, id string, args []string) (string, error) {
	if len(args) < 2 || len(args) > 3 {
		return "", usageError("Usage: /add <day> <meal> [dish-id]")
	}
	day, slot, err := parseCell(args[0], args[1])
	if err != nil {
		return "", err
	}

	dishID := ""
	if len(args) == 3 {
		dishID = args[2]
	} else {
		snap, err := b.app.Sessions().Get(id)
		if err != nil {
			return "", err
		}
		dishID = snap.Selected
	}
	if dishID == "" {
		return "", usageError("Select a dish first with /select <dish-id>, or name it: /add <day> <meal> <dish-id>")
	}

	res, err := b.app.PlaceDish(ctx, id, dishID, day, slot)
	if err != nil {
		return "", err
	}
	if res.Outcome != planner.Dropped {
		return fmt.Sprintf("❌ Could not place the dish (%s).", res.Reason), nil
	}
	return fmt.Sprintf("✅ Added `%s` to %s %s\n%s", dishID, day, planner.MealLabels[slot], planner.FormatTotals(res.Snapshot.Totals)), nil
}

func (b *Bot) remove(ctx context.Context, id string, args []string) (string, error) {
	if len(args) != 3 {
		return "", usageError("Usage: /remove <day> <meal> <n>")
	}
	day, slot, err := parseCell(args[0], args[1])
	if err != nil {
		return "", err
	}
	n, err := strconv.Atoi(args[2])
	if err != nil || n < 1 {
		return "", usageError("n counts from 1, as listed in /plan.")
	}

	removed, snap, err := b.app.RemoveEntry(ctx, id, day, slot, n-1)
	if err != nil {
		return "", err
	}
	if !removed {
		return fmt.Sprintf("Nothing at position %d of %s %s.", n, day, planner.MealLabels[slot]), nil
	}
	return fmt.Sprintf("🗑 Removed.\n%s", planner.FormatTotals(snap.Totals)), nil
}

func (b *Bot) export(ctx context.Context, args []string) (string, error) {
	if len(args) < 1 || len(args) > 2 {
		return "", usageError("Usage: /export <plan-id> [markdown|html]")
	}
	planID, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil {
		return "", usageError("Plan ids are numbers, see /plans.")
	}
	format := storage.FormatMarkdown
	if len(args) == 2 {
		if format, err = storage.ParseFormat(args[1]); err != nil {
			return "", usageError("Formats: markdown, html.")
		}
	}

	key, err := b.app.ExportSavedPlan(ctx, planID, format)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("📄 Exported plan #%d to `%s`", planID, key), nil
}

func (b *Bot) metricsReport(ctx context.Context) (string, error) {
	activity, err := b.app.DailyActivity(ctx, 7)
	if err != nil {
		return "", err
	}
	health := metrics.GetSysHealth(filepath.Dir(b.cfg.DatabasePath))
	return formatMetricsReport(activity, health, b.app.Sessions().Len()), nil
}

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send reply")
	}
}

func (b *Bot) sendAdminAlert(text string) {
	if b.cfg.TelegramAdminID == 0 {
		return
	}
	b.send(b.cfg.TelegramAdminID, text)
}

func chatSessionKey(chatID int64) string {
	return fmt.Sprintf("chat-%d", chatID)
}

func userOwner(userID int64) string {
	return fmt.Sprintf("tg-%d", userID)
}

// parseCommand splits "/add@CanteenBot mon lunch idli" into "add" and its
// arguments. Plain text yields an empty command.
func parseCommand(text string) (string, []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", fields
	}
	cmd := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(cmd, '@'); at >= 0 {
		cmd = cmd[:at]
	}
	return strings.ToLower(cmd), fields[1:]
}

func parseFilter(args []string) (catalog.FilterState, error) {
	var f catalog.FilterState
	for _, a := range args {
		switch strings.ToLower(a) {
		case "veg", "vegetarian":
			f.Veg = true
		case "vegan":
			f.Vegan = true
		case "gf", "gluten-free", "glutenfree":
			f.GlutenFree = true
		default:
			return f, usageError("Filters: veg, vegan, gf")
		}
	}
	return f, nil
}

// parseCell reads a day and a meal. Meal numbers count from 1, like the
// positions /remove takes.
func parseCell(rawDay, rawMeal string) (planner.DayKey, int, error) {
	day, ok := planner.ParseDay(rawDay)
	if !ok {
		return "", 0, usageError("Days: Mon, Tue, Wed, Thu, Fri, Sat, Sun")
	}

	mealErr := usageError("Meals: breakfast, lunch, dinner or 1-3")
	if n, err := strconv.Atoi(rawMeal); err == nil {
		if !planner.ValidSlot(n - 1) {
			return "", 0, mealErr
		}
		return day, n - 1, nil
	}
	slot, ok := planner.ParseMeal(rawMeal)
	if !ok {
		return "", 0, mealErr
	}
	return day, slot, nil
}

func regionName(raw string) string {
	for _, r := range catalog.Regions {
		if strings.EqualFold(r, raw) {
			return r
		}
	}
	return ""
}

func filterTitle(f catalog.FilterState) string {
	var parts []string
	if f.Veg {
		parts = append(parts, catalog.TagVegetarian)
	}
	if f.Vegan {
		parts = append(parts, catalog.TagVegan)
	}
	if f.GlutenFree {
		parts = append(parts, catalog.TagGlutenFree)
	}
	if len(parts) == 0 {
		return "Catalog"
	}
	return "Catalog: " + strings.Join(parts, ", ")
}

// escape strips the characters legacy Markdown treats as markup.
func escape(s string) string {
	return strings.NewReplacer("*", "", "_", " ", "`", "'", "[", "(").Replace(s)
}
