// Package telegram drives the approval workflow over a Telegram bot:
// sequential approval requests with inline decisions, resolution
// notices, and a morning digest of upcoming writing deadlines.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Chris-Chai-Minjae/legal-scheduler/internal/domain"
	"github.com/Chris-Chai-Minjae/legal-scheduler/internal/store"
)

// overdueLookbackDays bounds how far back the daily digest surfaces
// deadlines that slipped past without being done.
const overdueLookbackDays = 30

// Sender is the bot API slice this package uses; *tgbotapi.BotAPI
// satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// NotifyStore is the repository slice the notifier reads.
type NotifyStore interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	NextPending(ctx context.Context, userID int64) (*domain.Schedule, error)
	CountPending(ctx context.Context, userID int64) (int, error)
	ListByStatusInRange(ctx context.Context, userID int64, statuses []domain.Status, from, to time.Time) ([]domain.Schedule, error)
}

// Notifier sends approval requests and status notices. Approval
// requests are strictly sequential: one pending schedule at a time,
// the next one only after the current one is resolved.
type Notifier struct {
	bot   Sender
	store NotifyStore
	log   *zap.Logger
	loc   *time.Location
}

func NewNotifier(bot Sender, st NotifyStore, log *zap.Logger, loc *time.Location) *Notifier {
	if loc == nil {
		loc = time.UTC
	}
	return &Notifier{bot: bot, store: st, log: log, loc: loc}
}

// NotifyNext sends the approval request for the user's earliest pending
// schedule. No pending schedules is not an error: the drain is done.
func (n *Notifier) NotifyNext(ctx context.Context, user *domain.User) error {
	if !user.TelegramLinked() {
		return nil
	}
	s, err := n.store.NextPending(ctx, user.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	total, err := n.store.CountPending(ctx, user.ID)
	if err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(user.TelegramChatID, approvalText(s, total))
	msg.ReplyMarkup = approvalKeyboard(s.ID)
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("send approval request: %w", err)
	}
	n.log.Info("approval request sent",
		zap.Int64("user_id", user.ID), zap.Int64("schedule_id", s.ID), zap.Int("pending", total))
	return nil
}

// NotifyOutcome tells the user how a schedule was resolved. The wording
// follows the schedule's current status.
func (n *Notifier) NotifyOutcome(ctx context.Context, user *domain.User, s *domain.Schedule) error {
	if !user.TelegramLinked() {
		return nil
	}
	text := outcomeText(s)
	if text == "" {
		return nil
	}
	if _, err := n.bot.Send(tgbotapi.NewMessage(user.TelegramChatID, text)); err != nil {
		return fmt.Errorf("send outcome notice: %w", err)
	}
	return nil
}

// RunDaily sends the morning digest to every linked user.
func (n *Notifier) RunDaily(ctx context.Context) error {
	users, err := n.store.ListUsers(ctx)
	if err != nil {
		return err
	}
	for i := range users {
		if err := n.NotifyDaily(ctx, &users[i]); err != nil {
			n.log.Error("daily digest failed", zap.Int64("user_id", users[i].ID), zap.Error(err))
		}
	}
	return nil
}

// NotifyDaily sends one user's digest: today's deadlines, the rest of
// the week, and the pending-approval count. Nothing to report means no
// message at all.
func (n *Notifier) NotifyDaily(ctx context.Context, user *domain.User) error {
	if !user.TelegramLinked() {
		return nil
	}

	today := localToday(n.loc)
	confirmed := []domain.Status{domain.StatusApproved, domain.StatusSynced}

	overdue, err := n.store.ListByStatusInRange(ctx, user.ID, confirmed,
		today.AddDate(0, 0, -overdueLookbackDays), today.AddDate(0, 0, -1))
	if err != nil {
		return err
	}
	dueToday, err := n.store.ListByStatusInRange(ctx, user.ID, confirmed, today, today)
	if err != nil {
		return err
	}
	dueWeek, err := n.store.ListByStatusInRange(ctx, user.ID, confirmed,
		today.AddDate(0, 0, 1), domain.WeekEnd(today))
	if err != nil {
		return err
	}
	pending, err := n.store.CountPending(ctx, user.ID)
	if err != nil {
		return err
	}

	if len(overdue) == 0 && len(dueToday) == 0 && len(dueWeek) == 0 && pending == 0 {
		return nil
	}
	_, err = n.bot.Send(tgbotapi.NewMessage(user.TelegramChatID,
		dailyDigest(today, overdue, dueToday, dueWeek, pending)))
	return err
}

// localToday is today's civil date in loc, normalized to midnight UTC
// like every stored schedule date.
func localToday(loc *time.Location) time.Time {
	y, m, d := time.Now().In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
