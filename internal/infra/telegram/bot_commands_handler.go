// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"export_stats_bot/internal/app"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// StatsReader is the read side of the export history used by bot commands.
type StatsReader interface {
	ComputeStats(ctx context.Context, windows []app.Window, asOfYear int) (map[string]app.WindowStats, error)
	CurrentStreak(ctx context.Context) (int, error)
}

const defaultCommandTimeout = 15 * time.Second

// CommandDeps are the collaborators of the read-only bot commands.
type CommandDeps struct {
	Stats     StatsReader
	Windows   []app.Window
	ReportURL string
	Now       func() time.Time
	Timeout   time.Duration // Per command; defaults to 15s
}

func RegisterBotCommands(
	ctx context.Context,
	b *telebot.Bot,
	deps CommandDeps,
	baseLogger *logrus.Entry,
) {
	cmdLogger := baseLogger.WithField("handler_group", "commands")
	if deps.Timeout <= 0 {
		deps.Timeout = defaultCommandTimeout
	}

	b.Handle("/start", func(c telebot.Context) error {
		cmdLogger.WithField("command", "/start").WithField("sender_id", c.Sender().ID).Info("Processing /start command")
		return c.Send(fmt.Sprintf("Hi %s! I keep track of the daily data export. Try /streak or /stats.", c.Sender().FirstName))
	})

	b.Handle("/help", func(c telebot.Context) error {
		cmdLogger.WithField("command", "/help").WithField("sender_id", c.Sender().ID).Info("Processing /help command")
		return c.Send(helpText(deps.ReportURL))
	})

	b.Handle("/streak", func(c telebot.Context) error {
		logCtx := cmdLogger.WithField("command", "/streak").WithField("sender_id", c.Sender().ID)
		text, err := commandText(ctx, deps, streakText)
		if err != nil {
			logCtx.WithError(err).Error("Failed to compute streak")
			return c.Send("Sorry, I couldn't read the export history right now.")
		}
		return c.Send(text)
	})

	b.Handle("/stats", func(c telebot.Context) error {
		logCtx := cmdLogger.WithField("command", "/stats").WithField("sender_id", c.Sender().ID)
		text, err := commandText(ctx, deps, statsText)
		if err != nil {
			logCtx.WithError(err).Error("Failed to compute stats")
			return c.Send("Sorry, I couldn't read the export history right now.")
		}
		return c.Send(text)
	})
}

// commandText renders a reply under the per-command deadline.
func commandText(ctx context.Context, deps CommandDeps, render func(context.Context, CommandDeps) (string, error)) (string, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, deps.Timeout)
	defer cancel()
	return render(cmdCtx, deps)
}

func helpText(reportURL string) string {
	var help strings.Builder
	help.WriteString("Available commands:\n\n")
	help.WriteString("/streak - successful exports since the last failure\n")
	help.WriteString("/stats - success counts over recent windows\n")
	help.WriteString("/help - show this message\n")
	if reportURL != "" {
		help.WriteString("\nCharts: " + reportURL)
	}
	return help.String()
}

func streakText(ctx context.Context, deps CommandDeps) (string, error) {
	streak, err := deps.Stats.CurrentStreak(ctx)
	if err != nil {
		return "", err
	}
	switch streak {
	case 0:
		return "The last export failed. Fingers crossed for the next one!", nil
	case 1:
		return "1 successful export in a row.", nil
	default:
		return fmt.Sprintf("%d successful exports in a row!", streak), nil
	}
}

func statsText(ctx context.Context, deps CommandDeps) (string, error) {
	year := deps.Now().UTC().Year()
	stats, err := deps.Stats.ComputeStats(ctx, deps.Windows, year)
	if err != nil {
		return "", err
	}

	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	// Keep the configured window order.
	order := make(map[string]int, len(deps.Windows))
	for i, w := range deps.Windows {
		order[w.Name] = i
	}
	sort.Slice(names, func(i, j int) bool { return order[names[i]] < order[names[j]] })

	var out strings.Builder
	out.WriteString("--- Export stats ---\n")
	for _, name := range names {
		ws := stats[name]
		out.WriteString(fmt.Sprintf("%s: %d/%d successful (%d: %d/%d)\n",
			name, ws.SuccessCount, ws.Total, year, ws.CurrentYearSuccessCount, ws.CurrentYearTotal))
	}
	return out.String(), nil
}
