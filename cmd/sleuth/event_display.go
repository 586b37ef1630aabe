package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/steveyegge/sleuth/internal/events"
)

// displayEvent prints one event in a two-line format: a headline and a
// metadata line.
func displayEvent(w io.Writer, event *events.Event) {
	emoji := getEventEmoji(event)
	severityColor := getSeverityColor(event.Severity)
	typeColor := color.New(color.FgMagenta)

	round := "  "
	if event.Round > 0 {
		round = fmt.Sprintf("r%d", event.Round)
	}

	maxMessageLen := 70 - len(string(event.Type))
	fmt.Fprintf(w, "%s [%s] %s %s: %s\n",
		emoji,
		event.Timestamp.Local().Format("15:04:05"),
		round,
		typeColor.Sprint(event.Type),
		severityColor.Sprint(truncateString(event.Message, maxMessageLen)),
	)

	if metadata := extractEventMetadata(event); metadata != "" {
		gray := color.New(color.FgHiBlack)
		fmt.Fprintf(w, "     %s\n", gray.Sprint(metadata))
	}
}

func getEventEmoji(event *events.Event) string {
	switch event.Type {
	case events.EventTypeInvestigationStarted:
		return "🚀"
	case events.EventTypeRoundStarted:
		return "🔁"
	case events.EventTypeTheoriesGenerated:
		return "🧠"
	case events.EventTypeExperimentsSelected:
		return "📋"
	case events.EventTypeExperimentSkipped:
		return "⏭️"
	case events.EventTypeExperimentCompleted:
		return "🧪"
	case events.EventTypeProbeExecuted:
		return "🔧"
	case events.EventTypeTheoryFalsified:
		return "🚫"
	case events.EventTypeTheoryConfirmed:
		return "✅"
	case events.EventTypeAICost:
		return "💰"
	}

	switch event.Severity {
	case events.SeverityInfo:
		return "ℹ️"
	case events.SeverityWarning:
		return "⚠️"
	case events.SeverityError:
		return "❌"
	default:
		return "•"
	}
}

func getSeverityColor(severity events.EventSeverity) *color.Color {
	switch severity {
	case events.SeverityInfo:
		return color.New(color.FgCyan)
	case events.SeverityWarning:
		return color.New(color.FgYellow)
	case events.SeverityError:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgWhite)
	}
}

// extractEventMetadata picks the few data fields worth a glance for each
// event type, pipe-separated.
func extractEventMetadata(event *events.Event) string {
	var fields []string

	switch event.Type {
	case events.EventTypeExperimentsSelected:
		candidates := fmt.Sprintf("%d candidates", getIntField(event.Data, "candidates", 0))
		order := getStringField(event.Data, "order", "")
		fields = []string{candidates, order}

	case events.EventTypeExperimentCompleted:
		verdict := getStringField(event.Data, "verdict", "unknown")
		roi := fmt.Sprintf("roi %.2f", getFloatField(event.Data, "roi", 0))
		duration := formatDuration(time.Duration(getFloatField(event.Data, "duration", 0)))
		theory := truncateString(getStringField(event.Data, "theory", ""), 30)
		fields = []string{verdict, roi, duration, theory}

	case events.EventTypeExperimentSkipped, events.EventTypeTheoryFalsified, events.EventTypeTheoryConfirmed:
		fields = []string{truncateString(getStringField(event.Data, "experiment", ""), 60)}

	case events.EventTypeProbeExecuted:
		exit := fmt.Sprintf("exit %d", getIntField(event.Data, "exit_code", 0))
		if getBoolField(event.Data, "timed_out", false) {
			exit = "timed out"
		}
		duration := formatDuration(time.Duration(getFloatField(event.Data, "duration", 0)))
		command := truncateString(getStringField(event.Data, "command", ""), 40)
		fields = []string{exit, duration, command}

	case events.EventTypeAICost:
		operation := getStringField(event.Data, "operation", "")
		tokens := fmt.Sprintf("%s in / %s out",
			formatTokens(int64(getIntField(event.Data, "input_tokens", 0))),
			formatTokens(int64(getIntField(event.Data, "output_tokens", 0))))
		usd := fmt.Sprintf("$%.4f", getFloatField(event.Data, "cost", 0))
		fields = []string{operation, tokens, usd}

	default:
		if err, ok := event.Data["error"].(string); ok {
			fields = append(fields, truncateString(err, 50))
		}
	}

	return truncateString(joinFields(fields), 90)
}

func getStringField(data map[string]interface{}, key, defaultValue string) string {
	if val, ok := data[key].(string); ok {
		return val
	}
	return defaultValue
}

func getIntField(data map[string]interface{}, key string, defaultValue int) int {
	switch val := data[key].(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		return int(val)
	}
	return defaultValue
}

func getFloatField(data map[string]interface{}, key string, defaultValue float64) float64 {
	switch val := data[key].(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	}
	return defaultValue
}

func getBoolField(data map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := data[key].(bool); ok {
		return val
	}
	return defaultValue
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
}

// joinFields joins non-empty fields with " | ".
func joinFields(fields []string) string {
	nonEmpty := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			nonEmpty = append(nonEmpty, f)
		}
	}
	return strings.Join(nonEmpty, " | ")
}

// truncateString truncates a string to maxLen runes, adding "..." if needed
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return string(r[:maxLen-3]) + "..."
}
