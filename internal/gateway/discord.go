package gateway

import (
	"context"
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/tomaszwi66/ollama-desktop-agent/internal/agent"
)

// discordLimit is Discord's maximum message length.
const discordLimit = 2000

type DiscordGateway struct {
	Session *discordgo.Session
	Agent   *agent.Agent
}

func NewDiscordGateway(token string, a *agent.Agent) (*DiscordGateway, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}

	dg := &DiscordGateway{Session: session, Agent: a}
	session.AddHandler(dg.onMessage)
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	return dg, nil
}

func (dg *DiscordGateway) Start() error {
	if err := dg.Session.Open(); err != nil {
		return err
	}
	log.Println("Discord gateway connected")
	return nil
}

func (dg *DiscordGateway) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.Bot {
		return
	}
	if s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}

	log.Printf("[%s] %s", m.Author.Username, m.Content)

	// Remote chats get no confirmation gate: plan and run in one go.
	reply, err := dg.Agent.Submit(context.Background(), m.ChannelID, m.Content)

	text := reply.Text
	if err != nil {
		log.Printf("Error handling message: %v", err)
		text = "I'm having trouble thinking right now..."
	} else if !reply.Conversational() {
		text = agent.Report(reply.Plan)
	}

	if _, err := s.ChannelMessageSend(m.ChannelID, clip(text, discordLimit)); err != nil {
		log.Printf("Error sending reply: %v", err)
	}
}

func (dg *DiscordGateway) Send(chatID string, text string) error {
	_, err := dg.Session.ChannelMessageSend(chatID, clip(text, discordLimit))
	return err
}

func (dg *DiscordGateway) Stop() error {
	return dg.Session.Close()
}
