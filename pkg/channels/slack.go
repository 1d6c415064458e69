package channels

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/leadline-ai/leadline/pkg/bus"
	"github.com/leadline-ai/leadline/pkg/logger"
)

// SlackConfig holds Socket Mode credentials.
type SlackConfig struct {
	BotToken  string   `json:"bot_token"`
	AppToken  string   `json:"app_token"`
	AllowList []string `json:"allow_list,omitempty"`
}

// SlackChannel receives prospect messages over Socket Mode and replies
// through the Web API.
type SlackChannel struct {
	*BaseChannel
	api    *slack.Client
	socket *socketmode.Client
	botID  string
	cancel context.CancelFunc
}

func NewSlackChannel(cfg SlackConfig, b *bus.MessageBus) (*SlackChannel, error) {
	if cfg.BotToken == "" || cfg.AppToken == "" {
		return nil, fmt.Errorf("slack channel requires bot_token and app_token")
	}
	api := slack.New(cfg.BotToken, slack.OptionAppLevelToken(cfg.AppToken))
	return &SlackChannel{
		BaseChannel: NewBaseChannel("slack", b, cfg.AllowList),
		api:         api,
		socket:      socketmode.New(api),
	}, nil
}

func (c *SlackChannel) Start(ctx context.Context) error {
	auth, err := c.api.AuthTestContext(ctx)
	if err != nil {
		return fmt.Errorf("slack auth test: %w", err)
	}
	c.botID = auth.UserID

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.SetRunning(true)

	go c.eventLoop(runCtx)
	go func() {
		if err := c.socket.RunContext(runCtx); err != nil && runCtx.Err() == nil {
			logger.ErrorCF("slack", "Socket Mode terminated", map[string]any{"error": err.Error()})
		}
	}()

	logger.InfoCF("slack", "Channel started", map[string]any{"bot_id": c.botID})
	return nil
}

func (c *SlackChannel) Stop(ctx context.Context) error {
	if c.cancel != nil {
		c.cancel()
	}
	c.SetRunning(false)
	return nil
}

func (c *SlackChannel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	_, _, err := c.api.PostMessageContext(ctx, msg.ChatID,
		slack.MsgOptionText(msg.Content, false))
	if err != nil {
		return fmt.Errorf("slack send: %w", err)
	}
	return nil
}

func (c *SlackChannel) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-c.socket.Events:
			if !ok {
				return
			}
			c.handleEvent(evt)
		}
	}
}

func (c *SlackChannel) handleEvent(evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeEventsAPI:
		apiEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			return
		}
		if evt.Request != nil {
			c.socket.Ack(*evt.Request)
		}
		c.handleEventsAPI(apiEvent)
	case socketmode.EventTypeConnectionError:
		logger.WarnC("slack", "Socket Mode connection error, retrying")
	}
}

func (c *SlackChannel) handleEventsAPI(event slackevents.EventsAPIEvent) {
	if event.Type != slackevents.CallbackEvent {
		return
	}
	switch ev := event.InnerEvent.Data.(type) {
	case *slackevents.MessageEvent:
		// Ignore our own messages and edits/joins carried as subtypes.
		if ev.User == "" || ev.User == c.botID || ev.SubType != "" {
			return
		}
		c.HandleMessage(ev.User, ev.Channel, ev.Text, map[string]string{
			"ts": ev.TimeStamp,
		})
	case *slackevents.AppMentionEvent:
		if ev.User == "" || ev.User == c.botID {
			return
		}
		c.HandleMessage(ev.User, ev.Channel, ev.Text, map[string]string{
			"ts":      ev.TimeStamp,
			"mention": "true",
		})
	}
}
