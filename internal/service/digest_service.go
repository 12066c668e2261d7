package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"apptrack/internal/model"
	"apptrack/internal/repository"
)

// DigestService sends each user a daily pacing summary over Telegram:
// how many applications went out today versus the rolling daily average.
type DigestService struct {
	manager      *repository.Manager
	vocab        model.Vocabulary
	bot          *tgbotapi.BotAPI
	chatID       int64
	defaultCycle string
	log          *zap.Logger
}

func NewDigestService(
	manager *repository.Manager,
	vocab model.Vocabulary,
	bot *tgbotapi.BotAPI,
	chatID int64,
	defaultCycle string,
	log *zap.Logger,
) *DigestService {
	return &DigestService{
		manager:      manager,
		vocab:        vocab,
		bot:          bot,
		chatID:       chatID,
		defaultCycle: defaultCycle,
		log:          log,
	}
}

// SendDigests builds and delivers one digest per known user. A failing
// user is logged and skipped so one broken store cannot block the rest.
func (s *DigestService) SendDigests(ctx context.Context) error {
	users, err := s.manager.Users()
	if err != nil {
		return err
	}

	for _, user := range users {
		if err := s.sendUserDigest(ctx, user); err != nil {
			s.log.Warn("digest failed",
				zap.String("user", user),
				zap.Error(err))
		}
	}
	return nil
}

func (s *DigestService) sendUserDigest(ctx context.Context, user string) error {
	var (
		cycle string
		pace  Pace
	)
	err := s.manager.With(ctx, user, func(st *repository.Store) error {
		cycle = s.defaultCycle
		if v, err := st.GetSetting(ctx, repository.SettingDefaultCycle); err == nil {
			cycle = v
		}

		entries, err := st.CycleEntries(ctx, cycle)
		if errors.Is(err, repository.ErrNotFound) {
			// The preferred cycle is gone; fall back to everything.
			cycle = repository.AllCycles
			entries, err = st.CycleEntries(ctx, cycle)
		}
		if err != nil {
			return err
		}

		pace = TodayVsAverage(entries, time.Now())
		return nil
	})
	if err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(s.chatID, digestText(user, cycle, pace, time.Now()))
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("send digest for %s: %w", user, err)
	}
	return nil
}

func digestText(user, cycle string, pace Pace, now time.Time) string {
	var b strings.Builder
	b.WriteString("📊 <b>Application pace</b>\n")
	b.WriteString(fmt.Sprintf("🗓 %s — %s (%s)\n\n", now.Format("02.01.2006"), user, cycle))
	b.WriteString(fmt.Sprintf("Today: <b>%d</b>\n", pace.Today))
	b.WriteString(fmt.Sprintf("Daily average before today: <b>%.2f</b>\n", pace.Average))

	switch {
	case pace.Average == 0 && pace.Today == 0:
		b.WriteString("\nNo applications on record yet.")
	case float64(pace.Today) >= pace.Average:
		b.WriteString("\nOn pace. 🔥")
	default:
		b.WriteString("\nBehind the usual pace.")
	}
	return b.String()
}
