// Package bot exposes the shift monitor over Slack: inspecting the schedule,
// reporting conflicts and driving the virtual clock.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/fleetyard/shift-monitor/internal/poller"
	"github.com/fleetyard/shift-monitor/internal/schedule"
	"github.com/fleetyard/shift-monitor/internal/simulator"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"
)

type Bot struct {
	SlackApp
	poller   poller.Poller
	controls Controls
	logger   *slog.Logger
	update   poller.Update
	lock     sync.RWMutex
	updated  bool
}

// Controls drives the virtual clock.
type Controls interface {
	Play()
	Pause()
	SetSpeed(speed int) error
	SetInstant(instant schedule.Instant) error
	ResetToNow()
	State() simulator.PlaybackState
}

type SlackApp interface {
	AddSlashCommand(string, func(slack.SlashCommand, *socketmode.Client))
	Run(ctx context.Context) error
}

func New(app SlackApp, p poller.Poller, controls Controls, logger *slog.Logger) *Bot {
	b := Bot{
		SlackApp: app,
		poller:   p,
		controls: controls,
		logger:   logger,
	}

	b.SlackApp.AddSlashCommand("/shifts", b.doAndPost(b.onShifts))
	b.SlackApp.AddSlashCommand("/conflicts", b.doAndPost(b.onConflicts))
	b.SlackApp.AddSlashCommand("/simulate", b.doAndPost(b.onSimulate))
	b.SlackApp.AddSlashCommand("/play", b.doAndPost(b.onPlay))
	b.SlackApp.AddSlashCommand("/pause", b.doAndPost(b.onPause))
	b.SlackApp.AddSlashCommand("/speed", b.doAndPost(b.onSpeed))
	b.SlackApp.AddSlashCommand("/clock", b.doAndPost(b.onClock))
	b.SlackApp.AddSlashCommand("/refresh", b.doAndPost(b.onRefresh))

	return &b
}

func (b *Bot) Run(ctx context.Context) error {
	b.logger.Debug("bot started")
	defer b.logger.Debug("bot stopped")
	errCh := make(chan error)
	go func() { errCh <- b.SlackApp.Run(ctx) }()

	ch := b.poller.Subscribe()
	defer b.poller.Unsubscribe(ch)

	for {
		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("bot: %w", err)
			}
		case <-ctx.Done():
			return nil
		case update := <-ch:
			b.setUpdate(update)
		}
	}
}

func (b *Bot) setUpdate(update poller.Update) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.update = update
	b.updated = true
}

func (b *Bot) getUpdate() (poller.Update, bool) {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return b.update, b.updated
}

func (b *Bot) doAndPost(f func(context.Context, ...string) slack.Attachment) func(cmd slack.SlashCommand, c *socketmode.Client) {
	return func(cmd slack.SlashCommand, c *socketmode.Client) {
		a := f(context.Background(), tokenizeText(cmd.Text)...)
		if _, _, err := c.PostMessage(cmd.ChannelID, slack.MsgOptionAttachments(a)); err != nil {
			b.logger.Error("failed to post response", "err", err)
		}
	}
}

func tokenizeText(input string) []string {
	cleanInput := input
	for _, quote := range []string{"“", "”", "'"} {
		cleanInput = strings.ReplaceAll(cleanInput, quote, "\"")
	}
	r := regexp.MustCompile(`[^\s"]+|"([^"]*)"`)
	output := r.FindAllString(cleanInput, -1)

	for index, word := range output {
		output[index] = strings.Trim(word, "\"")
	}
	return output
}
