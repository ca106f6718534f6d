package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"pairwatch-telegram-bot/internal/monitor"
)

// BotConfig configuration of the bot
type BotConfig struct {
	Token          string
	Debug          bool
	UpdatesTimeout int
	LookupTimeout  int // seconds, for command-time price fetches
}

// Bot telegram interaction client
type Bot struct {
	Bot     *tgbotapi.BotAPI
	Config  BotConfig
	Monitor *monitor.Monitor
	lookup  monitor.PriceLookup
}

// Message a telegram message struct
type Message struct {
	ChatID    int64
	MessageID int
	Text      string
}
