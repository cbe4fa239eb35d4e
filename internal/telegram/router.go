package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Chris-Chai-Minjae/legal-scheduler/internal/domain"
	"github.com/Chris-Chai-Minjae/legal-scheduler/internal/store"
)

// RouterStore is the repository slice the router needs.
type RouterStore interface {
	GetUserByChatID(ctx context.Context, chatID int64) (*domain.User, error)
	GetSchedule(ctx context.Context, id int64) (*domain.Schedule, error)
	UpdateSchedule(ctx context.Context, s *domain.Schedule) error
}

// Syncer pushes an approved schedule to the target calendar.
type Syncer interface {
	SyncSchedule(ctx context.Context, scheduleID int64) error
}

// Dispatcher queues background work; *queue.Queue satisfies it.
type Dispatcher interface {
	Enqueue(name string, run func(ctx context.Context) error) bool
}

// Router wires Telegram updates to the approval handlers. Calendar
// writes never happen inline: an approval enqueues the sync job and
// returns immediately.
type Router struct {
	bot      Sender
	repo     RouterStore
	notifier *Notifier
	sync     Syncer
	queue    Dispatcher
	log      *zap.Logger
}

// NewRouter creates a new Telegram router.
func NewRouter(bot Sender, repo RouterStore, notifier *Notifier, sync Syncer, queue Dispatcher, log *zap.Logger) *Router {
	return &Router{bot: bot, repo: repo, notifier: notifier, sync: sync, queue: queue, log: log}
}

// HandleUpdate routes a single update to the appropriate handler.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message != nil {
		msg := upd.Message
		text := strings.TrimSpace(msg.Text)
		if strings.HasPrefix(text, "/start") {
			r.handleStart(ctx, msg.Chat.ID)
		}
		// Free-form text has no role in this bot; decisions are buttons.
		return
	}

	if upd.CallbackQuery != nil {
		r.handleCallback(ctx, upd.CallbackQuery)
	}
}

func (r *Router) handleStart(ctx context.Context, chatID int64) {
	user, err := r.repo.GetUserByChatID(ctx, chatID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			r.log.Error("start lookup failed", zap.Int64("chat_id", chatID), zap.Error(err))
		}
		r.sendText(chatID, startUnlinkedText)
		return
	}
	r.sendText(chatID, startLinkedText)
	// Resume the approval drain in case anything is waiting.
	if err := r.notifier.NotifyNext(ctx, user); err != nil {
		r.log.Error("notify next failed", zap.Int64("user_id", user.ID), zap.Error(err))
	}
}

func (r *Router) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	data := cb.Data

	user, err := r.repo.GetUserByChatID(ctx, chatID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			r.log.Error("callback lookup failed", zap.Int64("chat_id", chatID), zap.Error(err))
		}
		r.answerCallback(cb.ID, cbUnknownUser)
		return
	}

	switch {
	case strings.HasPrefix(data, cbPrefixSetDate):
		rest := strings.TrimPrefix(data, cbPrefixSetDate)
		idStr, dateStr, ok := strings.Cut(rest, "_")
		if !ok {
			r.answerCallback(cb.ID, "")
			return
		}
		r.handleSetDate(ctx, cb, user, idStr, dateStr)
	case strings.HasPrefix(data, cbPrefixApprove):
		r.handleDecision(ctx, cb, user, strings.TrimPrefix(data, cbPrefixApprove), true)
	case strings.HasPrefix(data, cbPrefixReject):
		r.handleDecision(ctx, cb, user, strings.TrimPrefix(data, cbPrefixReject), false)
	case strings.HasPrefix(data, cbPrefixReschedule):
		r.handleReschedule(ctx, cb, user, strings.TrimPrefix(data, cbPrefixReschedule))
	default:
		// Unknown callback — ignore silently.
	}
}

// loadOwned resolves a callback's schedule and enforces that it belongs
// to the pressing user. A nil schedule means the callback was already
// answered.
func (r *Router) loadOwned(ctx context.Context, cb *tgbotapi.CallbackQuery, user *domain.User, idStr string) *domain.Schedule {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		r.answerCallback(cb.ID, "")
		return nil
	}
	s, err := r.repo.GetSchedule(ctx, id)
	if err != nil {
		r.log.Error("schedule lookup failed", zap.Int64("schedule_id", id), zap.Error(err))
		r.answerCallback(cb.ID, cbAlreadyHandled)
		return nil
	}
	if s.UserID != user.ID {
		r.answerCallback(cb.ID, cbNotYours)
		return nil
	}
	return s
}

func (r *Router) handleDecision(ctx context.Context, cb *tgbotapi.CallbackQuery, user *domain.User, idStr string, approve bool) {
	s := r.loadOwned(ctx, cb, user, idStr)
	if s == nil {
		return
	}
	// Double-click guard: the second press of an already resolved
	// schedule only gets a toast.
	if s.Resolved() {
		r.answerCallback(cb.ID, cbAlreadyHandled)
		return
	}

	var transErr error
	if approve {
		transErr = s.Approve("")
	} else {
		transErr = s.Reject()
	}
	if transErr != nil {
		r.answerCallback(cb.ID, cbAlreadyHandled)
		return
	}
	if err := r.repo.UpdateSchedule(ctx, s); err != nil {
		r.log.Error("decision persist failed", zap.Int64("schedule_id", s.ID), zap.Error(err))
		r.answerCallback(cb.ID, "")
		return
	}

	if approve {
		r.answerCallback(cb.ID, cbApproved)
	} else {
		r.answerCallback(cb.ID, cbRejected)
	}
	r.editText(cb, outcomeText(s))
	r.log.Info("schedule resolved",
		zap.Int64("user_id", user.ID), zap.Int64("schedule_id", s.ID), zap.String("status", s.Status.String()))

	if approve {
		r.enqueueSync(s.ID)
	}
	if err := r.notifier.NotifyNext(ctx, user); err != nil {
		r.log.Error("notify next failed", zap.Int64("user_id", user.ID), zap.Error(err))
	}
}

func (r *Router) handleReschedule(ctx context.Context, cb *tgbotapi.CallbackQuery, user *domain.User, idStr string) {
	s := r.loadOwned(ctx, cb, user, idStr)
	if s == nil {
		return
	}
	if s.Resolved() {
		r.answerCallback(cb.ID, cbAlreadyHandled)
		return
	}

	kb := rescheduleKeyboard(s, time.Now())
	if len(kb.InlineKeyboard) == 0 {
		r.answerCallback(cb.ID, cbDateTooLate)
		return
	}
	r.answerCallback(cb.ID, cbPickDate)
	edit := tgbotapi.NewEditMessageTextAndMarkup(cb.Message.Chat.ID, cb.Message.MessageID,
		approvalText(s, 1)+"\n\n📅 변경할 날짜를 선택해 주세요:", kb)
	if _, err := r.bot.Send(edit); err != nil {
		r.log.Error("edit failed", zap.Int64("schedule_id", s.ID), zap.Error(err))
	}
}

func (r *Router) handleSetDate(ctx context.Context, cb *tgbotapi.CallbackQuery, user *domain.User, idStr, dateStr string) {
	s := r.loadOwned(ctx, cb, user, idStr)
	if s == nil {
		return
	}
	if s.Resolved() {
		r.answerCallback(cb.ID, cbAlreadyHandled)
		return
	}
	newDate, err := time.ParseInLocation("2006-01-02", dateStr, time.UTC)
	if err != nil {
		r.answerCallback(cb.ID, "")
		return
	}

	if err := s.Reschedule(newDate); err != nil {
		if errors.Is(err, domain.ErrDateOrder) {
			r.answerCallback(cb.ID, cbDateTooLate)
		} else {
			r.answerCallback(cb.ID, cbAlreadyHandled)
		}
		return
	}
	// Picking a date is approval at that date.
	if err := s.Approve(""); err != nil {
		r.answerCallback(cb.ID, cbAlreadyHandled)
		return
	}
	if err := r.repo.UpdateSchedule(ctx, s); err != nil {
		r.log.Error("reschedule persist failed", zap.Int64("schedule_id", s.ID), zap.Error(err))
		r.answerCallback(cb.ID, "")
		return
	}

	r.answerCallback(cb.ID, cbApproved)
	r.editText(cb, outcomeText(s))
	r.log.Info("schedule rescheduled and approved",
		zap.Int64("user_id", user.ID), zap.Int64("schedule_id", s.ID), zap.String("date", dateStr))

	r.enqueueSync(s.ID)
	if err := r.notifier.NotifyNext(ctx, user); err != nil {
		r.log.Error("notify next failed", zap.Int64("user_id", user.ID), zap.Error(err))
	}
}

// enqueueSync hands the calendar write to the background queue.
func (r *Router) enqueueSync(scheduleID int64) {
	r.queue.Enqueue("calendar_sync", func(ctx context.Context) error {
		return r.sync.SyncSchedule(ctx, scheduleID)
	})
}

func (r *Router) sendText(chatID int64, text string) {
	if _, err := r.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		r.log.Error("send failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (r *Router) answerCallback(id, text string) {
	if _, err := r.bot.Request(tgbotapi.NewCallback(id, text)); err != nil {
		r.log.Error("answer callback failed", zap.Error(err))
	}
}

// editText replaces the approval message in place, dropping its
// keyboard so the buttons cannot be pressed twice.
func (r *Router) editText(cb *tgbotapi.CallbackQuery, text string) {
	edit := tgbotapi.NewEditMessageText(cb.Message.Chat.ID, cb.Message.MessageID, text)
	if _, err := r.bot.Send(edit); err != nil {
		r.log.Error("edit failed", zap.Error(err))
	}
}
