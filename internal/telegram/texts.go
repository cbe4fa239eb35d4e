package telegram

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Chris-Chai-Minjae/legal-scheduler/internal/domain"
)

// User-facing texts are Korean; the audience is Korean legal staff.
const (
	startLinkedText = "⚖️ 법률 일정 비서입니다.\n\n" +
		"재판 일정이 확인되면 서면작성 일정을 제안해 드립니다.\n" +
		"승인 대기 중인 일정이 있으면 곧 알려드리겠습니다."
	startUnlinkedText = "등록되지 않은 사용자입니다. 웹에서 먼저 계정을 연결해 주세요."

	cbApproved       = "승인되었습니다"
	cbRejected       = "거부되었습니다"
	cbAlreadyHandled = "이미 처리된 일정입니다"
	cbNotYours       = "권한이 없습니다"
	cbUnknownUser    = "등록되지 않은 사용자입니다"
	cbPickDate       = "변경할 날짜를 선택해 주세요"
	cbDateTooLate    = "재판일 이후로는 변경할 수 없습니다"
)

// Callback token prefixes. set_date carries two arguments:
// set_date_<scheduleID>_<2006-01-02>.
const (
	cbPrefixApprove    = "approve_"
	cbPrefixReject     = "reject_"
	cbPrefixReschedule = "reschedule_"
	cbPrefixSetDate    = "set_date_"
)

// approvalText renders the approval request for the next pending
// schedule. total is the user's current pending count.
func approvalText(s *domain.Schedule, total int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 새로운 재판 일정이 확인되었습니다. (%d건 중 1번째)\n\n", total)
	if s.CaseNumber != "" {
		fmt.Fprintf(&b, "사건번호: %s\n", s.CaseNumber)
	}
	if s.CaseName != "" {
		fmt.Fprintf(&b, "사건명: %s\n", s.CaseName)
	}
	fmt.Fprintf(&b, "재판일: %s\n", domain.KoreanDateWeekday(s.OriginalDate))
	fmt.Fprintf(&b, "서면 작성 예정일: %s\n", domain.KoreanDateWeekday(s.ScheduledDate))
	b.WriteString("\n서면작성 일정을 등록할까요?")
	return b.String()
}

// outcomeText picks the resolution notice from the schedule's status.
func outcomeText(s *domain.Schedule) string {
	switch s.Status {
	case domain.StatusApproved:
		return fmt.Sprintf("✅ 승인되었습니다.\n%s에 서면작성 일정이 등록될 예정입니다.",
			domain.KoreanDateWeekday(s.ScheduledDate))
	case domain.StatusRejected:
		return "❌ 거부되었습니다. 해당 일정은 등록되지 않습니다."
	case domain.StatusSynced:
		return fmt.Sprintf("📅 캘린더에 일정이 등록되었습니다.\n%s\n%s",
			s.Title, domain.KoreanDateWeekday(s.ScheduledDate))
	case domain.StatusCancelled:
		return fmt.Sprintf("⚠️ 원본 재판 일정이 삭제되어 서면작성 일정이 취소되었습니다.\n%s (%s)",
			s.Title, domain.KoreanDate(s.ScheduledDate))
	default:
		return ""
	}
}

// reminderTag phrases the urgency of a deadline relative to today.
func reminderTag(days int) string {
	switch {
	case days < 0:
		return "기한 초과"
	case days == 0:
		return "오늘 마감"
	case days == 1:
		return "내일 마감"
	case days <= 3:
		return fmt.Sprintf("%d일 남음 ⚠️", days)
	default:
		return fmt.Sprintf("%d일 남음", days)
	}
}

// dailyDigest renders the morning briefing. Callers suppress the
// message entirely when there is nothing to report.
func dailyDigest(today time.Time, overdue, dueToday, week []domain.Schedule, pending int) string {
	var b strings.Builder
	b.WriteString("🌅 오늘의 일정 브리핑\n")
	if len(overdue) > 0 {
		b.WriteString("\n⚠️ 기한 초과:\n")
		for _, s := range overdue {
			fmt.Fprintf(&b, "• %s — %s\n", s.Title, domain.KoreanDateWeekday(s.ScheduledDate))
		}
	}
	if len(dueToday) > 0 {
		b.WriteString("\n🔴 오늘 마감:\n")
		for _, s := range dueToday {
			fmt.Fprintf(&b, "• %s\n", s.Title)
		}
	}
	if len(week) > 0 {
		b.WriteString("\n📌 이번 주 예정:\n")
		for _, s := range week {
			days := int(s.ScheduledDate.Sub(today).Hours() / 24)
			fmt.Fprintf(&b, "• %s — %s (%s)\n", s.Title, domain.KoreanDateWeekday(s.ScheduledDate), reminderTag(days))
		}
	}
	if pending > 0 {
		fmt.Fprintf(&b, "\n⏳ 승인 대기: %d건\n", pending)
	}
	return b.String()
}

// approvalKeyboard builds the three-way decision row for a pending
// schedule.
func approvalKeyboard(scheduleID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ 승인", fmt.Sprintf("%s%d", cbPrefixApprove, scheduleID)),
			tgbotapi.NewInlineKeyboardButtonData("❌ 거부", fmt.Sprintf("%s%d", cbPrefixReject, scheduleID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📅 날짜 변경", fmt.Sprintf("%s%d", cbPrefixReschedule, scheduleID)),
		),
	)
}

// rescheduleKeyboard offers the next five weekdays after "from" as
// alternative deadlines, never reaching the court date itself.
func rescheduleKeyboard(s *domain.Schedule, from time.Time) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	day := domain.DateOnly(from)
	for len(rows) < 5 {
		day = day.AddDate(0, 0, 1)
		if !day.Before(s.OriginalDate) {
			break
		}
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				domain.KoreanDateWeekday(day),
				fmt.Sprintf("%s%d_%s", cbPrefixSetDate, s.ID, day.Format("2006-01-02")),
			),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
