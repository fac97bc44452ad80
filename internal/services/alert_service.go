package services

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// AlertService pushes ops notifications to a Telegram channel. Attempts are
// tracked but never block verification, so repeated failures surface here
// for a human to review instead.
type AlertService struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewAlertService returns a disabled (nil-safe) service when the token is
// empty or the bot cannot authorize.
func NewAlertService(botToken string, chatID int64) *AlertService {
	if botToken == "" || chatID == 0 {
		return &AlertService{}
	}
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		log.Printf("[alerts][init] telegram bot unavailable, alerts disabled: %v", err)
		return &AlertService{}
	}
	return &AlertService{bot: bot, chatID: chatID}
}

func (a *AlertService) Enabled() bool {
	return a != nil && a.bot != nil
}

// RepeatedCodeFailures fires once a record crosses the review threshold.
func (a *AlertService) RepeatedCodeFailures(email, purpose string, attempts int) {
	if !a.Enabled() {
		return
	}
	text := fmt.Sprintf("⚠️ %d failed %s verification attempts for %s", attempts, purpose, email)
	msg := tgbotapi.NewMessage(a.chatID, text)
	if _, err := a.bot.Send(msg); err != nil {
		log.Printf("[alerts][send] failed: %v", err)
	}
}
