package ai

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/steveyegge/sleuth/internal/cost"
	"github.com/steveyegge/sleuth/internal/events"
)

// callModel sends a single-turn prompt and returns the text of the reply.
// It enforces the cost budget before calling, and records token usage after.
func (s *Supervisor) callModel(ctx context.Context, operation, model, prompt string, maxTokens int64) (string, error) {
	investigationID := events.InvestigationFromContext(ctx)

	if s.costTracker != nil {
		if ok, reason := s.costTracker.CanProceed(investigationID); !ok {
			return "", fmt.Errorf("%s: %w: %s", operation, cost.ErrBudgetExceeded, reason)
		}
	}

	if model == "" {
		model = s.model
	}
	if maxTokens == 0 {
		maxTokens = 4096
	}

	startTime := time.Now()
	var response *anthropic.Message
	err := s.retryWithBackoff(ctx, operation, func(attemptCtx context.Context) error {
		resp, apiErr := s.client.Messages.New(attemptCtx, anthropic.MessageNewParams{
			Model:     anthropic.Model(model),
			MaxTokens: maxTokens,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if apiErr != nil {
			return apiErr
		}
		response = resp
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	duration := time.Since(startTime)
	s.logger.Debug("AI call completed",
		"operation", operation,
		"model", model,
		"input_tokens", response.Usage.InputTokens,
		"output_tokens", response.Usage.OutputTokens,
		"duration", duration)

	s.recordUsage(ctx, investigationID, operation, model, response.Usage.InputTokens, response.Usage.OutputTokens)

	return text.String(), nil
}

// recordUsage feeds token usage to the cost tracker and the event stream.
// Failures here are logged and never fail the call.
func (s *Supervisor) recordUsage(ctx context.Context, investigationID, operation, model string, inputTokens, outputTokens int64) {
	var usd float64
	if s.costTracker != nil {
		usd = s.costTracker.CalculateCost(inputTokens, outputTokens)
		if _, err := s.costTracker.RecordUsage(ctx, investigationID, inputTokens, outputTokens); err != nil {
			s.logger.Warn("failed to record AI usage", "operation", operation, "error", err)
		}
	}

	if s.events == nil {
		return
	}
	event, err := events.NewAICostEvent(investigationID,
		fmt.Sprintf("AI %s: %d in / %d out tokens", operation, inputTokens, outputTokens),
		events.AICostData{
			Operation:    operation,
			Model:        model,
			InputTokens:  inputTokens,
			OutputTokens: outputTokens,
			Cost:         usd,
		})
	if err != nil {
		s.logger.Warn("failed to build AI cost event", "error", err)
		return
	}
	if err := s.events.RecordEvent(ctx, event); err != nil {
		s.logger.Warn("failed to record AI cost event", "error", err)
	}
}

// truncateString keeps the head and tail of s within roughly maxLen bytes,
// marking what was dropped. Command output is usually most telling at the
// start (what ran) and the end (how it failed).
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}

	const minChunk = 16
	marker := fmt.Sprintf("\n[... truncated %d bytes ...]\n", len(s)-maxLen)
	budget := maxLen - len(marker)
	if budget < 2*minChunk {
		budget = 2 * minChunk
	}

	head := safeTruncateString(s, budget/3)
	tail := safeSuffix(s, budget-len(head))
	return head + marker + tail
}

// safeTruncateString truncates a string to maxLen bytes while preserving UTF-8 encoding.
// If truncation would split a multi-byte sequence, it backs off to a valid boundary.
func safeTruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 0 {
		return ""
	}

	truncated := s[:maxLen]
	for i := 0; i < utf8.UTFMax && len(truncated) > 0; i++ {
		if utf8.ValidString(truncated) {
			return truncated
		}
		truncated = truncated[:len(truncated)-1]
	}
	return truncated
}

// safeSuffix returns at most the last maxLen bytes of s, starting on a rune boundary.
func safeSuffix(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 0 {
		return ""
	}

	start := len(s) - maxLen
	for start < len(s) && !utf8.RuneStart(s[start]) {
		start++
	}
	return s[start:]
}
