package control

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/arbscan/arbscan/internal/logger"
)

// StatusFunc supplies the /status reply body.
type StatusFunc func() string

// Bot is the operator command channel: it long-polls Telegram updates and
// translates /pause, /resume, /restart and /status into Control calls. Every
// recognized command is acknowledged, even ones with no effect.
type Bot struct {
	bot     *tgbotapi.BotAPI
	control *Control
	status  StatusFunc
}

// NewBot creates the command bot.
func NewBot(botToken string, control *Control, status StatusFunc) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create control bot: %w", err)
	}
	return &Bot{bot: bot, control: control, status: status}, nil
}

// Run polls for commands until ctx is cancelled. It always returns nil so a
// control-channel hiccup never brings the process down.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.bot.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message != nil && update.Message.IsCommand() {
				b.handleCommand(update.Message)
			}
		}
	}
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	var ack string
	switch msg.Command() {
	case "pause":
		b.control.Pause()
		ack = "⏸ Paused: the worker will release its session."
	case "resume":
		b.control.Resume()
		ack = "▶️ Resumed: the worker will bring the session back up."
	case "restart":
		b.control.Restart()
		ack = "🔁 Restarting: the worker will rebuild its session and sign in again."
	case "status":
		ack = b.status()
	default:
		return
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, ack)
	if _, err := b.bot.Send(reply); err != nil {
		logger.Warn("control: failed to acknowledge /%s: %v", msg.Command(), err)
	}
}
