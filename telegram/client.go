// Copyright (c) 2025 BVK Chaitanya

// Package telegram implements a Telegram front-end for a chatcmd
// command registry. Incoming bot commands from authorized users are
// tokenized and dispatched through the registry; the handler result
// (or the routed error text) is sent back as the reply.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/bvk/chatcmd"
	"github.com/bvk/chatcmd/ctxutil"
	"github.com/bvk/chatcmd/gobs"
	"github.com/bvk/chatcmd/kvutil"
	"github.com/bvkgo/kv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"golang.org/x/time/rate"
)

// Client connects a chatcmd.Registry to the Telegram bot API.
type Client struct {
	cg ctxutil.CloseGroup

	db kv.Database

	mu sync.Mutex

	bot *bot.Bot

	self *models.User

	secrets *Secrets

	registry *chatcmd.Registry

	state *gobs.BotState

	// Telegram rejects bots that send too quickly; pace outgoing
	// messages well below the documented limits.
	limit *rate.Limiter
}

// New connects to the Telegram API, publishes the registry's command
// list, and starts handling updates in the background. Chat ids of
// authorized users are persisted in db so that notifications survive
// restarts.
func New(ctx context.Context, db kv.Database, secrets *Secrets, registry *chatcmd.Registry) (_ *Client, status error) {
	if db == nil || registry == nil {
		return nil, os.ErrInvalid
	}
	if err := secrets.Check(); err != nil {
		return nil, err
	}

	c := &Client{
		db:       db,
		secrets:  secrets.Clone(),
		registry: registry,
		limit:    rate.NewLimiter(rate.Every(time.Second), 5),
	}

	opts := []bot.Option{
		bot.WithDefaultHandler(c.handler),
	}
	b, err := bot.New(secrets.BotToken, opts...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if status != nil {
			b.Close(ctx)
		}
	}()
	c.bot = b

	self, err := b.GetMe(ctx)
	if err != nil {
		return nil, err
	}
	c.self = self

	state, err := kvutil.GetDB[gobs.BotState](ctx, db, c.stateKey())
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		state = &gobs.BotState{
			UserChatIDMap: make(map[string]int64),
		}
	}
	c.state = state

	if ok, err := c.bot.SetMyCommands(ctx, c.commands()); err != nil {
		return nil, err
	} else if !ok {
		return nil, fmt.Errorf("could not set bot commands")
	}

	c.cg.Go(func(ctx context.Context) {
		c.bot.Start(ctx)
	})
	return c, nil
}

func (c *Client) Close() error {
	c.cg.Close()
	return nil
}

func (c *Client) BotUserName() string {
	return c.self.Username
}

func (c *Client) OwnerUserName() string {
	return c.secrets.OwnerID
}

func (c *Client) stateKey() string {
	return path.Join("/telegram", c.secrets.OwnerID, "state")
}

// commands translates the registry's command list into the Telegram
// bot command menu.
func (c *Client) commands() *bot.SetMyCommandsParams {
	var cmds []models.BotCommand
	for name, cmd := range c.registry.Commands() {
		desc := cmd.Description()
		if len(desc) == 0 {
			desc = strings.Join(strings.Fields(cmd.Usage()), " ")
		}
		cmds = append(cmds, models.BotCommand{
			Command:     name,
			Description: desc,
		})
	}
	return &bot.SetMyCommandsParams{
		Commands: cmds,
	}
}

// tokens extracts the command tokens from an update. Telegram marks
// the leading "/cmd" as a bot-command entity; the rest of the message
// text is whitespace-split.
func (c *Client) tokens(update *models.Update) ([]string, error) {
	if update.Message == nil || len(update.Message.Entities) == 0 {
		return nil, os.ErrInvalid
	}
	entity := update.Message.Entities[0]
	if entity.Type != models.MessageEntityTypeBotCommand || entity.Offset != 0 {
		return nil, os.ErrInvalid
	}
	text := update.Message.Text
	if len(text) == 0 || text[0] != '/' {
		return nil, os.ErrInvalid
	}
	name := text[1:entity.Length]
	// Telegram group chats address commands as "/cmd@BotName".
	name, _, _ = strings.Cut(name, "@")
	return append([]string{name}, chatcmd.Tokenize(text[entity.Length:])...), nil
}

func (c *Client) handler(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	sender := update.Message.From.Username
	if !c.secrets.Authorized(sender) {
		slog.Warn("received message from unauthorized user (ignored)", "sender", sender)
		return
	}

	if err := c.updateChatIDs(ctx, update); err != nil {
		slog.Warn("could not update chat id values (ignored)", "err", err)
	}

	if err := c.respond(ctx, update); err != nil {
		slog.Error("could not respond to user command (ignored)", "user", sender, "err", err)
	}
}

func (c *Client) respond(ctx context.Context, update *models.Update) error {
	tokens, err := c.tokens(update)
	if err != nil {
		return err
	}

	var reply string
	result, err := c.registry.ExecuteArgs(ctx, tokens).Wait(ctx)
	switch {
	case err != nil:
		reply = err.Error()
	case result == nil:
		reply = "ok"
	default:
		reply = fmt.Sprint(result)
	}

	return c.reply(ctx, update, reply)
}

func (c *Client) reply(ctx context.Context, update *models.Update, text string) error {
	if err := c.limit.Wait(ctx); err != nil {
		return err
	}
	True := true
	p := &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   text,
		ReplyParameters: &models.ReplyParameters{
			MessageID: update.Message.ID,
		},
		LinkPreviewOptions: &models.LinkPreviewOptions{
			IsDisabled: &True,
		},
	}
	_, err := c.bot.SendMessage(ctx, p)
	return err
}

// SendMessage sends an unsolicited notification to every authorized
// user with a known chat id.
func (c *Client) SendMessage(ctx context.Context, at time.Time, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := at.Format("2006-01-02 15:04:05 MST") + " " + text
	slog.Info("sending notification", "at", at, "message", text)

	receivers := append([]string{c.secrets.OwnerID}, c.secrets.OtherIDs...)
	for _, receiver := range receivers {
		cid, ok := c.state.UserChatIDMap[receiver]
		if !ok {
			slog.Warn("could not notify receiver without chat id", "receiver", receiver)
			continue
		}
		if err := c.limit.Wait(ctx); err != nil {
			return err
		}
		p := &bot.SendMessageParams{
			ChatID: cid,
			Text:   msg,
		}
		if _, err := c.bot.SendMessage(ctx, p); err != nil {
			slog.Error("could not notify receiver (ignored)", "receiver", receiver, "err", err)
			continue
		}
	}
	return nil
}

func (c *Client) updateChatIDs(ctx context.Context, update *models.Update) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sender := update.Message.From.Username
	if id, ok := c.state.UserChatIDMap[sender]; !ok || id != update.Message.Chat.ID {
		c.state.UserChatIDMap[sender] = update.Message.Chat.ID
		if err := kvutil.SetDB(ctx, c.db, c.stateKey(), c.state); err != nil {
			slog.Error("could not save telegram state to the db", "err", err)
			return err
		}
	}
	return nil
}
