package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type commandHandler func(ctx context.Context, message *tgbotapi.Message) error

// commandRoutes defines all available bot commands and their handlers.
func (r *RealTelegramBotAdapter) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"start": r.handleStartCommand,
		"queue": r.handleQueueCommand,
		"help":  r.handleHelpCommand,
	}
}

// handleStartCommand resets the chat's session and greets it.
func (r *RealTelegramBotAdapter) handleStartCommand(ctx context.Context, message *tgbotapi.Message) error {
	text, err := r.facade.HandleStart(ctx, message.Chat.ID)
	if err != nil {
		r.log.Error().Err(err).Int64("chat_id", message.Chat.ID).Msg("start failed")
	}
	return r.SendText(ctx, message.Chat.ID, text)
}

func (r *RealTelegramBotAdapter) handleQueueCommand(ctx context.Context, message *tgbotapi.Message) error {
	text, err := r.facade.HandleQueue(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("queue status failed")
	}
	return r.SendText(ctx, message.Chat.ID, text)
}

func (r *RealTelegramBotAdapter) handleHelpCommand(ctx context.Context, message *tgbotapi.Message) error {
	text, _ := r.facade.HandleHelp(ctx)
	return r.SendText(ctx, message.Chat.ID, text)
}

// SetMenuCommands publishes the command list shown in the Telegram client menu.
func (r *RealTelegramBotAdapter) SetMenuCommands(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Start over and send a selfie"},
		tgbotapi.BotCommand{Command: "queue", Description: "Show how many tasks are waiting"},
		tgbotapi.BotCommand{Command: "help", Description: "How it works"},
	)
	_, err := r.bot.Request(cfg)
	return err
}
