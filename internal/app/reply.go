// internal/app/reply.go
package app

import (
	"fmt"
	"time"

	"export_stats_bot/internal/domain/chat"
)

// ReplyKind selects one of the follow-up message shapes.
type ReplyKind string

const (
	ReplyRecorded         ReplyKind = "recorded"
	ReplyDuplicateIgnored ReplyKind = "duplicate-ignored"
	ReplyStoreFailed      ReplyKind = "store-failed"
)

const storeFailedText = "Really sorry but for some weird reason I couldn't save the export. Please see an administrator with this info:"

// ReplyParams parameterize FormatReply.
type ReplyParams struct {
	UserID     string
	Date       time.Time
	Successful bool
	ReportURL  string
	Err        error // Only used by ReplyStoreFailed
}

// FormatReply builds the in-channel follow-up to an interactive callback.
func FormatReply(kind ReplyKind, p ReplyParams) chat.Message {
	var text string
	switch kind {
	case ReplyRecorded:
		text = fmt.Sprintf("%s <@%s>, %s's export has been successfully recorded. <%s|Find out more> (:chart_with_upwards_trend: and stuff).",
			outcomeGreeting(p.Successful), p.UserID, DayLabel(p.Date), p.ReportURL)
	case ReplyDuplicateIgnored:
		text = fmt.Sprintf("%s <@%s>, %s's export was already recorded. <%s|Check here> for charts and stuff.",
			outcomeGreeting(p.Successful), p.UserID, DayLabel(p.Date), p.ReportURL)
	case ReplyStoreFailed:
		detail := "unknown error"
		if p.Err != nil {
			detail = p.Err.Error()
		}
		text = fmt.Sprintf("%s %s", storeFailedText, detail)
	default:
		text = fmt.Sprintf("Thanks <@%s>, your answer for %s's export was received.", p.UserID, DayLabel(p.Date))
	}

	return chat.Message{
		Text:            text,
		ResponseType:    chat.ResponseInChannel,
		ReplaceOriginal: true,
	}
}

// DayLabel names the reported day: Friday for Fridays (reported on Monday), yesterday otherwise.
func DayLabel(date time.Time) string {
	if date.Weekday() == time.Friday {
		return "Friday"
	}
	return "yesterday"
}

func outcomeGreeting(successful bool) string {
	if successful {
		return "Great! :+1: Thanks a lot"
	}
	return "Hmmm, this smells like a PDCA! :wink: Thanks anyway"
}
