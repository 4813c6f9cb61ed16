package chat

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgnsrekt/netchat_agent/internal/types"
)

// maxPromptCalls caps how many calls are summarized into the prompt so it
// stays within a small model's context budget.
const maxPromptCalls = 30

const systemPreamble = `You are an assistant that helps a user understand the HTTP network traffic their browser produced while using a website. Answer questions about the calls listed below: what endpoints were hit, what data was sent, what the responses looked like, and anything unusual. Be concise and concrete. If a question cannot be answered from the listed calls, say so.`

// BuildSystemPrompt renders the system message framing the conversation,
// including a summary of the most recent calls.
func BuildSystemPrompt(calls []types.NetworkCall) string {
	summary := FormatCalls(calls)
	if summary == "" {
		return systemPreamble + "\n\nNo network calls have been captured yet."
	}
	return systemPreamble + "\n\nMost recent network calls (newest first):\n" + summary
}

// FormatCalls renders one summary line per call, newest first, capped at
// maxPromptCalls entries.
func FormatCalls(calls []types.NetworkCall) string {
	if len(calls) == 0 {
		return ""
	}

	sorted := make([]types.NetworkCall, len(calls))
	copy(sorted, calls)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Request.Timestamp > sorted[j].Request.Timestamp
	})
	if len(sorted) > maxPromptCalls {
		sorted = sorted[:maxPromptCalls]
	}

	var b strings.Builder
	for i, call := range sorted {
		fmt.Fprintf(&b, "%d. %s %s %s", i+1, call.Request.Method, call.Request.URL, formatOutcome(call))
		if call.Request.Body != "" {
			fmt.Fprintf(&b, "\n   body: %s", call.Request.Body)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatOutcome(call types.NetworkCall) string {
	ts := time.UnixMilli(call.Request.Timestamp).UTC().Format(time.RFC3339)
	if call.Response == nil {
		return fmt.Sprintf("-> (no response) at %s", ts)
	}
	text := call.Response.StatusText
	if text == "" {
		text = "-"
	}
	return fmt.Sprintf("-> %d %s at %s", call.Response.Status, text, ts)
}
