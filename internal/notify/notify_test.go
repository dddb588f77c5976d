package notify

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rewired-gh/solarscope/internal/models"
)

type fakeBot struct {
	fails int
	calls int
	sent  []tgbotapi.MessageConfig
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.calls++
	if f.calls <= f.fails {
		return tgbotapi.Message{}, errors.New("telegram unavailable")
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func sampleAnalysis(t *testing.T) *models.Analysis {
	t.Helper()
	w, err := models.ParseDateWindow("2023-01-01", "2023-01-31")
	if err != nil {
		t.Fatalf("ParseDateWindow failed: %v", err)
	}
	ts := time.Date(2023, 1, 5, 12, 0, 0, 0, time.UTC)
	return &models.Analysis{
		ID:     "a1",
		Window: w,
		Summary: models.Summary{
			Rows: 124,
			Columns: []models.ColumnSummary{
				{Column: "ghi", Count: 124, Mean: 412.5, Max: 1010.25},
				{Column: "ws", Count: 0, Mean: math.NaN(), Max: math.NaN()},
			},
			Missing: []models.MissingCount{{Column: "ghi", Missing: 0}, {Column: "ws", Missing: 124}},
		},
		Outliers: models.OutlierSet{
			Threshold: 3.0,
			Rows: []models.FlaggedRow{{
				Row:      models.Row{Timestamp: ts},
				Triggers: []models.ZScore{{Column: "ghi", Value: 1010.25, Z: 3.41}},
			}},
			Count: 1,
		},
	}
}

func TestEscapeMarkdownV2(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"plain", "plain"},
		{"2023-01-01", "2023\\-01\\-01"},
		{"3.5", "3\\.5"},
		{"site_a (east)!", "site\\_a \\(east\\)\\!"},
		{`a\b`, `a\\b`},
	}
	for _, tt := range tests {
		if got := escapeMarkdownV2(tt.in); got != tt.expected {
			t.Errorf("escapeMarkdownV2(%q) = %q, expected %q", tt.in, got, tt.expected)
		}
	}
}

func TestFormatDigest(t *testing.T) {
	msg := formatDigest(sampleAnalysis(t), "site_a.csv")

	for _, want := range []string{
		"site\\_a\\.csv",
		"Window: 2023\\-01\\-01\\.\\.2023\\-01\\-31",
		"Rows: 124",
		"`ghi` mean 412\\.50, max 1010\\.25",
		"`ws` mean n/a, max n/a",
		"Missing readings: 124",
		"Outliers: *1*",
		"2023\\-01\\-05 12:00:00: ghi z\\=3\\.41",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("digest missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatDigest_CapsOutlierList(t *testing.T) {
	a := sampleAnalysis(t)
	row := a.Outliers.Rows[0]
	for len(a.Outliers.Rows) < maxListedOutliers+3 {
		a.Outliers.Rows = append(a.Outliers.Rows, row)
	}
	a.Outliers.Count = len(a.Outliers.Rows)

	msg := formatDigest(a, "")
	if !strings.Contains(msg, "and 3 more") {
		t.Errorf("expected truncated outlier list:\n%s", msg)
	}
}

func TestSend_Retries(t *testing.T) {
	bot := &fakeBot{fails: 2}
	c, err := newClient(bot, "12345", 3, time.Millisecond)
	if err != nil {
		t.Fatalf("newClient failed: %v", err)
	}

	if err := c.Send(sampleAnalysis(t), "site.csv"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if bot.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", bot.calls)
	}
	if len(bot.sent) != 1 || bot.sent[0].ChatID != 12345 || bot.sent[0].ParseMode != tgbotapi.ModeMarkdownV2 {
		t.Errorf("unexpected message: %+v", bot.sent)
	}
}

func TestSend_GivesUp(t *testing.T) {
	bot := &fakeBot{fails: 10}
	c, err := newClient(bot, "12345", 2, time.Millisecond)
	if err != nil {
		t.Fatalf("newClient failed: %v", err)
	}
	if err := c.Send(sampleAnalysis(t), ""); err == nil {
		t.Fatal("expected error after retries")
	}
	if bot.calls != 2 {
		t.Errorf("expected 2 attempts, got %d", bot.calls)
	}
}

func TestNewClient_InvalidChatID(t *testing.T) {
	if _, err := newClient(&fakeBot{}, "not-a-number", 1, 0); err == nil {
		t.Error("expected error for invalid chat ID")
	}
}
