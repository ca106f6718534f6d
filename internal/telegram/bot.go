package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"pairwatch-telegram-bot/internal/database"
	"pairwatch-telegram-bot/internal/lookup"
	"pairwatch-telegram-bot/internal/monitor"
	"pairwatch-telegram-bot/internal/types"
	"pairwatch-telegram-bot/lib/helpers"
	"pairwatch-telegram-bot/lib/translation"
)

// NewBot creates new telegram bot
func NewBot(c BotConfig, pl monitor.PriceLookup) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(c.Token)
	if err != nil {
		return nil, errors.Wrap(err, "could not create telegram bot")
	}

	bot.Debug = c.Debug

	return &Bot{
		Bot:    bot,
		Config: c,
		lookup: pl,
	}, nil
}

// GetUpdatesChannel gets new updates
func (b *Bot) GetUpdatesChannel() (tgbotapi.UpdatesChannel, error) {
	updatesConfig := tgbotapi.NewUpdate(0)
	if b.Config.UpdatesTimeout > 0 {
		updatesConfig.Timeout = b.Config.UpdatesTimeout
	}
	return b.Bot.GetUpdatesChan(updatesConfig), nil
}

// SendMessage sends a telegram message
func (b *Bot) SendMessage(m Message) error {
	msg := tgbotapi.NewMessage(m.ChatID, m.Text)
	msg.ReplyToMessageID = m.MessageID
	msg.DisableWebPagePreview = true
	msg.ParseMode = "MarkdownV2"
	_, err := b.Bot.Send(msg)
	return errors.Wrapf(err, "could not send message: %v", m)
}

// Notify delivers a trigger message to a chat. Implements monitor.Notifier.
func (b *Bot) Notify(chatID int64, text string) error {
	return b.SendMessage(Message{ChatID: chatID, Text: text})
}

// ParseWatchArguments splits "/watch" arguments into a pair address, a
// condition kind and a target value. Accepted forms:
//
//	<pairAddress> above <price>
//	<pairAddress> below <price>
//	<pairAddress> <percent>%
func ParseWatchArguments(args string) (string, string, float64, error) {
	fields := strings.Fields(args)

	switch len(fields) {
	case 2:
		raw := strings.TrimSuffix(fields[1], "%")
		if raw == fields[1] {
			return "", "", 0, errors.Errorf("expected a percent target, got %q", fields[1])
		}
		target, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return "", "", 0, errors.Wrapf(err, "invalid percent target %q", fields[1])
		}
		return fields[0], types.ConditionPercent, target, nil

	case 3:
		var condition string
		switch strings.ToLower(fields[1]) {
		case "above":
			condition = types.ConditionAbove
		case "below":
			condition = types.ConditionBelow
		default:
			return "", "", 0, errors.Errorf("unknown condition %q", fields[1])
		}
		target, err := strconv.ParseFloat(strings.TrimPrefix(fields[2], "$"), 64)
		if err != nil {
			return "", "", 0, errors.Wrapf(err, "invalid price target %q", fields[2])
		}
		return fields[0], condition, target, nil
	}

	return "", "", 0, errors.Errorf("expected 2 or 3 arguments, got %d", len(fields))
}

// HandleUpdate processes Telegram updates
func (b *Bot) HandleUpdate(u tgbotapi.Update) string {
	text := helpers.EscapeMarkdownV2(translation.Translate("Commands:\n/watch <pair> above|below <price> - set a price alert\n/watch <pair> <percent>% - set a percent-change alert\n/alerts - list your alerts\n/unwatch <id> - cancel an alert\n/refresh - check all alerts now"))
	log.Debugf("received command: %s", u.Message.Command())

	switch u.Message.Command() {
	case "watch":
		text = b.CommandWatch(u.Message.Chat.ID, u.Message.CommandArguments())
	case "unwatch":
		text = b.CommandUnwatch(u.Message.CommandArguments())
	case "alerts":
		text = b.CommandAlerts(u.Message.Chat.ID)
	case "refresh":
		text = b.CommandRefresh()
	}

	return text
}

// CommandWatch creates a one-shot alert. The live price fetched here becomes
// the alert's reference price; creation is rejected when no usable price is
// available, which also keeps zero reference prices out of the store.
func (b *Bot) CommandWatch(chatID int64, args string) string {
	pairAddress, condition, target, err := ParseWatchArguments(args)
	if err != nil {
		log.Debugf("rejected /watch arguments %q: %v", args, err)
		return helpers.EscapeMarkdownV2(translation.Translate("Usage: /watch <pair> above|below <price> or /watch <pair> <percent>%"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.lookupTimeout())
	defer cancel()

	quote, err := b.lookup.Fetch(ctx, pairAddress)
	if err != nil {
		log.Errorf("Could not fetch price for new alert on %s: %v", pairAddress, err)
		return helpers.EscapeMarkdownV2(translation.Translate("Could not fetch a live price for that pair. Check the pair address and try again."))
	}
	if quote.PriceUSD == 0 {
		return helpers.EscapeMarkdownV2(translation.Translate("That pair has no usable price right now, alert not created."))
	}

	a := types.Alert{
		ID:             uuid.NewString(),
		ChatID:         chatID,
		PairAddress:    pairAddress,
		TokenName:      quote.TokenName,
		TokenSymbol:    quote.TokenSymbol,
		Chain:          quote.Chain,
		Condition:      condition,
		Target:         target,
		ReferencePrice: quote.PriceUSD,
	}

	if err := database.InsertAlert(a); err != nil {
		log.Errorf("Failed to save alert: %v", err)
		return helpers.EscapeMarkdownV2(translation.Translate("Failed to save alert. Please try again later."))
	}

	return fmt.Sprintf(
		"✅ *%s*\n\n*%s \\(%s\\)* %s\n%s: *$%s*\n%s: `%s`",
		translation.Translate("Alert Set"),
		helpers.EscapeMarkdownV2(quote.TokenName),
		helpers.EscapeMarkdownV2(quote.TokenSymbol),
		describeCondition(condition, target),
		translation.Translate("Current Price"),
		helpers.FormatPriceUS(quote.PriceUSD, true),
		translation.Translate("Alert ID"),
		a.ID,
	)
}

// CommandUnwatch cancels an alert by id. Cancelling an unknown or already
// retired id is a normal outcome, not an error.
func (b *Bot) CommandUnwatch(args string) string {
	id := strings.TrimSpace(args)
	if id == "" {
		return helpers.EscapeMarkdownV2(translation.Translate("Usage: /unwatch <id>"))
	}

	prior, err := database.DeleteAlert(id)
	if err != nil {
		log.Errorf("Failed to cancel alert %s: %v", id, err)
		return helpers.EscapeMarkdownV2(translation.Translate("Failed to cancel the alert. Please try again later."))
	}
	if prior == nil {
		return helpers.EscapeMarkdownV2(translation.Translate("Nothing to cancel: no alert with that id."))
	}

	return fmt.Sprintf(
		"🗑 %s *%s \\(%s\\)*",
		translation.Translate("Alert cancelled for"),
		helpers.EscapeMarkdownV2(prior.TokenName),
		helpers.EscapeMarkdownV2(prior.TokenSymbol),
	)
}

// CommandAlerts lists the chat's pending alerts with a best-effort live price
// per unique pair. When a lookup fails the creation-time price is shown
// instead, explicitly labeled stale.
func (b *Bot) CommandAlerts(chatID int64) string {
	alerts, err := database.GetAlertsByChatID(chatID)
	if err != nil {
		log.Errorf("Error fetching alerts for chat %d: %v", chatID, err)
		return helpers.EscapeMarkdownV2(translation.Translate("Failed to fetch your alerts. Please try again later."))
	}

	if len(alerts) == 0 {
		return helpers.EscapeMarkdownV2(translation.Translate("You have no active alerts."))
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.lookupTimeout())
	defer cancel()

	// one lookup per unique pair, shared across the chat's alerts
	quotes := make(map[string]*lookup.PairPrice)
	for _, a := range alerts {
		if _, seen := quotes[a.PairAddress]; seen {
			continue
		}
		quote, err := b.lookup.Fetch(ctx, a.PairAddress)
		if err != nil {
			log.Errorf("Listing lookup failed for pair %s: %v", a.PairAddress, err)
			quote = nil
		}
		quotes[a.PairAddress] = quote
	}

	var list strings.Builder
	list.WriteString(fmt.Sprintf("🔔 *%s*\n", translation.Translate("Your active alerts")))
	for _, a := range alerts {
		var priceLine string
		if quote := quotes[a.PairAddress]; quote != nil {
			priceLine = fmt.Sprintf("%s: $%s", translation.Translate("now"), helpers.FormatPriceUS(quote.PriceUSD, true))
			if quote.Change24h != 0 {
				priceLine += fmt.Sprintf(" \\(%s 24h\\)", helpers.FormatPercentage(quote.Change24h))
			}
		} else {
			priceLine = fmt.Sprintf("%s: $%s", translation.Translate("entry price, live quote unavailable"), helpers.FormatPriceUS(a.ReferencePrice, true))
		}

		list.WriteString(fmt.Sprintf(
			"\n▫️ *%s \\(%s\\)* %s\n    %s \\| %s %s \\| `%s`\n",
			helpers.EscapeMarkdownV2(a.TokenName),
			helpers.EscapeMarkdownV2(a.TokenSymbol),
			describeCondition(a.Condition, a.Target),
			priceLine,
			translation.Translate("set"),
			helpers.EscapeMarkdownV2(helpers.FormatDate(a.CreatedAt)),
			a.ID,
		))
	}

	return list.String()
}

// CommandRefresh runs one monitoring cycle synchronously and reports the outcome.
func (b *Bot) CommandRefresh() string {
	report, err := b.Monitor.RunCycle(context.Background())
	if err != nil {
		log.Errorf("Manual refresh failed: %v", err)
		return helpers.EscapeMarkdownV2(translation.Translate("Refresh failed. Please try again later."))
	}

	return helpers.EscapeMarkdownV2(fmt.Sprintf(
		translation.Translate("Refresh complete: %d alert(s) triggered, %d pair(s) checked, %d lookup failure(s)."),
		report.Triggered, report.GroupsChecked, report.Failures,
	))
}

func (b *Bot) lookupTimeout() time.Duration {
	if b.Config.LookupTimeout > 0 {
		return time.Duration(b.Config.LookupTimeout) * time.Second
	}
	return 10 * time.Second
}

func describeCondition(condition string, target float64) string {
	switch condition {
	case types.ConditionAbove:
		return fmt.Sprintf("%s *$%s*", translation.Translate("above"), helpers.FormatPriceUS(target, true))
	case types.ConditionBelow:
		return fmt.Sprintf("%s *$%s*", translation.Translate("below"), helpers.FormatPriceUS(target, true))
	case types.ConditionPercent:
		return fmt.Sprintf("%s *%s*", translation.Translate("change of"), helpers.FormatPercentage(target))
	}
	return helpers.EscapeMarkdownV2(condition)
}
