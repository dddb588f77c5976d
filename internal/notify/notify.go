// Package notify delivers analysis digests via the Telegram Bot API.
// Messages use MarkdownV2 and delivery is retried with a linear backoff.
package notify

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rewired-gh/solarscope/internal/models"
)

// maxListedOutliers caps how many flagged rows a digest lists.
const maxListedOutliers = 5

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Client handles Telegram notifications
type Client struct {
	bot            sender
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	return newClient(bot, chatID, maxRetries, retryDelayBase)
}

func newClient(bot sender, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// Send sends a digest of the analysis
func (c *Client) Send(a *models.Analysis, source string) error {
	msg := tgbotapi.NewMessage(c.chatID, formatDigest(a, source))
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		_, err := c.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}

	return fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

func formatDigest(a *models.Analysis, source string) string {
	var b strings.Builder

	b.WriteString("☀️ *Irradiance Summary*\n\n")
	if source != "" {
		fmt.Fprintf(&b, "📁 %s\n", escapeMarkdownV2(source))
	}
	fmt.Fprintf(&b, "📅 Window: %s\n", escapeMarkdownV2(a.Window.String()))
	fmt.Fprintf(&b, "🧮 Rows: %d\n\n", a.Summary.Rows)

	for _, col := range a.Summary.Columns {
		fmt.Fprintf(&b, "• `%s` mean %s, max %s\n",
			col.Column,
			escapeMarkdownV2(formatFloat(col.Mean)),
			escapeMarkdownV2(formatFloat(col.Max)))
	}

	missing := 0
	for _, m := range a.Summary.Missing {
		missing += m.Missing
	}
	fmt.Fprintf(&b, "\n❔ Missing readings: %d\n", missing)

	fmt.Fprintf(&b, "🚩 Outliers: *%d* \\(\\|z\\| \\> %s\\)\n",
		a.Outliers.Count, escapeMarkdownV2(formatFloat(a.Outliers.Threshold)))
	for i, row := range a.Outliers.Rows {
		if i == maxListedOutliers {
			fmt.Fprintf(&b, "   …and %d more\n", a.Outliers.Count-maxListedOutliers)
			break
		}
		triggers := make([]string, 0, len(row.Triggers))
		for _, z := range row.Triggers {
			triggers = append(triggers, fmt.Sprintf("%s z=%.2f", z.Column, z.Z))
		}
		fmt.Fprintf(&b, "   %s: %s\n",
			escapeMarkdownV2(row.Row.Timestamp.Format("2006-01-02 15:04:05")),
			escapeMarkdownV2(strings.Join(triggers, ", ")))
	}

	return b.String()
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	// _ * [ ] ( ) ~ ` > # + - = | { } . !
	var b strings.Builder
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
