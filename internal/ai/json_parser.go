// Package ai implements the model-backed collaborators of an investigation.
package ai

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// Pre-compiled patterns for cleaning up model output.
var (
	// Matches ```json\n{...}\n```, ```{...}``` and ``` json{...}```
	codeFenceStartRegex = regexp.MustCompile(`(?s)^` + "`" + `{3}(?:json|javascript|js)?\s*\n?([\s\S]*?)\n?` + "`" + `{3}\s*$`)
	codeFenceAnyRegex   = regexp.MustCompile(`(?s)` + "`" + `{3}(?:json|javascript|js)?\s*\n?([\s\S]*?)\n?` + "`" + `{3}`)

	trailingCommaRegex     = regexp.MustCompile(`,(\s*[}\]])`)
	unquotedKeyRegex       = regexp.MustCompile(`([{,]\s*)([a-zA-Z_$][a-zA-Z0-9_$]*)\s*:`)
	// Only comments at line start or after a delimiter, so URLs in strings survive
	singleLineCommentRegex = regexp.MustCompile(`(?m)(^\s*|[,{\[]\s*)//.*$`)
	multiLineCommentRegex  = regexp.MustCompile(`(?s)/\*.*?\*/`)

	// Greedy, so nested structures are captured whole
	objectRegex = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
	arrayRegex  = regexp.MustCompile(`(?s)\[[\s\S]*\]`)
)

// ParseResult is the outcome of a Parse call.
type ParseResult[T any] struct {
	Success      bool
	Data         T
	Error        string
	OriginalText string
}

// ParseOptions configures JSON parsing behavior. The zero value parses with
// every cleanup strategy, logs failures, and enforces the default size limit.
type ParseOptions struct {
	Context        string // Prefix for error messages, e.g. "theories response"
	DisableCleanup bool   // Only attempt a direct parse
	Quiet          bool   // Don't log failed strategies
	MaxInputSize   int    // Maximum input size in bytes (0 = default 1MB, <0 = unlimited)
}

const defaultMaxInputSize = 1 << 20

// Parse attempts to parse JSON with multiple fallback strategies for the
// quirks of LLM output.
//
// Strategy sequence:
//  1. Direct JSON parse
//  2. Remove code fences and retry
//  3. Fix common JSON issues and retry
//  4. Extract JSON from mixed content and retry
func Parse[T any](text string, opts ...ParseOptions) ParseResult[T] {
	var options ParseOptions
	if len(opts) > 0 {
		options = opts[0]
	}
	maxSize := options.MaxInputSize
	if maxSize == 0 {
		maxSize = defaultMaxInputSize
	}

	if maxSize > 0 && len(text) > maxSize {
		return createError[T](
			fmt.Sprintf("input exceeds size limit (%d > %d bytes)", len(text), maxSize),
			truncate(text, 1000),
			options.Context,
		)
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return createError[T]("empty input", text, options.Context)
	}

	result, err := tryDirectParse[T](trimmed)
	if err == nil {
		return ParseResult[T]{Success: true, Data: result, OriginalText: text}
	}

	if options.DisableCleanup {
		return createError[T](err.Error(), text, options.Context)
	}

	if !options.Quiet {
		slog.Debug("direct JSON parse failed, trying cleanup strategies",
			"error", err.Error(),
			"text_preview", truncate(text, 100),
			"context", options.Context)
	}

	candidates := []func(string) string{
		removeCodeFences,
		func(s string) string { return cleanupJSON(removeCodeFences(s)) },
		func(s string) string { return extractJSON(cleanupJSON(removeCodeFences(s))) },
	}
	for _, candidate := range candidates {
		cleaned := candidate(trimmed)
		if cleaned == "" || cleaned == trimmed {
			continue
		}
		if result, err := tryDirectParse[T](cleaned); err == nil {
			return ParseResult[T]{Success: true, Data: result, OriginalText: text}
		}
	}

	if !options.Quiet {
		slog.Warn("all JSON parsing strategies failed",
			"text_preview", truncate(text, 200),
			"context", options.Context)
	}
	return createError[T]("all JSON parsing strategies failed", text, options.Context)
}

func tryDirectParse[T any](text string) (T, error) {
	var result T
	err := json.Unmarshal([]byte(text), &result)
	return result, err
}

// removeCodeFences strips markdown code fences, or single backticks that wrap
// the whole text.
func removeCodeFences(text string) string {
	cleaned := codeFenceStartRegex.ReplaceAllString(text, "$1")
	if cleaned == text {
		cleaned = codeFenceAnyRegex.ReplaceAllString(text, "$1")
	}

	if strings.HasPrefix(cleaned, "`") && strings.HasSuffix(cleaned, "`") {
		cleaned = strings.TrimPrefix(cleaned, "`")
		cleaned = strings.TrimSuffix(cleaned, "`")
	}

	return strings.TrimSpace(cleaned)
}

// cleanupJSON fixes common formatting issues: comments, trailing commas and
// unquoted keys. Single quotes are left alone since apostrophes in string
// values are legal.
func cleanupJSON(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = multiLineCommentRegex.ReplaceAllString(cleaned, "")
	cleaned = singleLineCommentRegex.ReplaceAllString(cleaned, "$1")
	cleaned = trailingCommaRegex.ReplaceAllString(cleaned, "$1")
	cleaned = unquotedKeyRegex.ReplaceAllString(cleaned, `$1"$2":`)
	return strings.TrimSpace(cleaned)
}

// extractJSON pulls the outermost object or array out of mixed content.
// Returns an empty string if nothing JSON-like is found.
func extractJSON(text string) string {
	trimmed := strings.TrimSpace(text)

	// The leading character decides between object and array, so
	// [{"a":1},{"a":2}] isn't cut down to its first element
	if strings.HasPrefix(trimmed, "[") {
		if match := arrayRegex.FindString(text); match != "" {
			return match
		}
	}
	if match := objectRegex.FindString(text); match != "" {
		return match
	}
	return arrayRegex.FindString(text)
}

func createError[T any](message, text, context string) ParseResult[T] {
	errorMsg := message
	if context != "" {
		errorMsg = context + ": " + message
	}
	return ParseResult[T]{Error: errorMsg, OriginalText: text}
}

// truncate shortens s to maxLen bytes, marking the cut with "...".
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return safeTruncateString(s, maxLen) + "..."
}
