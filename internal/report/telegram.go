package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"wabatch/internal/dispatch"
	logx "wabatch/pkg/logx"
)

const telegramTextLimit = 4096

type TelegramConfig struct {
	Token    string
	ChatID   int64
	ThreadID int

	// URL overrides the Bot API endpoint (tests).
	URL string
}

// Telegram posts run summaries to a chat. It never polls for updates.
type Telegram struct {
	cfg TelegramConfig
	bot *tele.Bot
	log logx.Logger
}

func NewTelegram(cfg TelegramConfig, log logx.Logger) (*Telegram, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram chat_id is empty")
	}
	b, err := tele.NewBot(tele.Settings{
		URL:     cfg.URL,
		Token:   cfg.Token,
		Offline: true,
	})
	if err != nil {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Telegram{cfg: cfg, bot: b, log: log}, nil
}

func (t *Telegram) Notify(ctx context.Context, s *dispatch.Summary) error {
	if s == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	text := telegramText(s)
	_, err := t.bot.Send(&tele.Chat{ID: t.cfg.ChatID}, text, &tele.SendOptions{
		DisableWebPagePreview: true,
		ThreadID:              t.cfg.ThreadID,
	})
	if err != nil {
		t.log.Warn("telegram summary failed", logx.Int64("chat_id", t.cfg.ChatID), logx.Err(err))
		return fmt.Errorf("telegram send: %w", err)
	}
	t.log.Debug("telegram summary sent", logx.Int64("chat_id", t.cfg.ChatID))
	return nil
}

func telegramText(s *dispatch.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "WhatsApp batch %s\n", s.FinishedAt.Format(time.DateTime))
	b.WriteString(Render(s))
	return truncate(b.String(), telegramTextLimit)
}

func truncate(s string, maxN int) string {
	if len(s) <= maxN {
		return s
	}
	cut := maxN - 3
	for cut > 0 && !utf8Start(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func utf8Start(b byte) bool { return b&0xC0 != 0x80 }
