package gateway

import (
	"context"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tomaszwi66/ollama-desktop-agent/internal/agent"
)

// telegramLimit is the Bot API's maximum message length.
const telegramLimit = 4096

type TelegramGateway struct {
	Bot   *tgbotapi.BotAPI
	Agent *agent.Agent
}

func NewTelegramGateway(token string, a *agent.Agent) (*TelegramGateway, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	return &TelegramGateway{Bot: bot, Agent: a}, nil
}

func (tg *TelegramGateway) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := tg.Bot.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil {
			continue
		}

		log.Printf("[%s] %s", update.Message.From.UserName, update.Message.Text)

		// Remote chats get no confirmation gate: plan and run in one go.
		chatID := fmt.Sprintf("%d", update.Message.Chat.ID)
		reply, err := tg.Agent.Submit(context.Background(), chatID, update.Message.Text)

		text := reply.Text
		if err != nil {
			log.Printf("Error handling message: %v", err)
			text = "I'm having trouble thinking right now..."
		} else if !reply.Conversational() {
			text = agent.Report(reply.Plan)
		}

		msg := tgbotapi.NewMessage(update.Message.Chat.ID, clip(text, telegramLimit))
		if _, err := tg.Bot.Send(msg); err != nil {
			log.Printf("Error sending reply: %v", err)
		}
	}
	return nil
}

func (tg *TelegramGateway) Send(chatID string, text string) error {
	id := 0
	fmt.Sscanf(chatID, "%d", &id)
	if id == 0 {
		return fmt.Errorf("invalid chat ID: %s", chatID)
	}

	msg := tgbotapi.NewMessage(int64(id), clip(text, telegramLimit))
	_, err := tg.Bot.Send(msg)
	return err
}

func (tg *TelegramGateway) Stop() error {
	tg.Bot.StopReceivingUpdates()
	return nil
}
