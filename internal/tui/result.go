package tui

import (
	"fmt"
	"strings"

	"github.com/billie-coop/sift/internal/analyzer"
	"github.com/billie-coop/sift/internal/session"
	"github.com/billie-coop/sift/internal/tui/styles"
)

// resultMarkdown turns an analyzer payload into markdown. Payloads in the
// files shape become one section per file; anything else is shown as JSON.
func resultMarkdown(r *analyzer.Result) string {
	if r == nil {
		return ""
	}
	files, ok := r.Files()
	if !ok {
		return "```json\n" + r.Pretty() + "\n```"
	}
	if len(files) == 0 {
		return "_No findings._"
	}

	var b strings.Builder
	for _, f := range files {
		fmt.Fprintf(&b, "### %s\n\n", f.Path)
		if f.Comment != "" {
			b.WriteString(f.Comment)
			b.WriteString("\n\n")
		}
		if len(f.LineComments) == 0 {
			b.WriteString("_No line comments._\n\n")
			continue
		}
		for _, lc := range f.LineComments {
			fmt.Fprintf(&b, "- **line %d**: %s\n", lc.Line, lc.Comment)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// statusLine is the one-line summary above the result.
func statusLine(snap session.Snapshot, spin, idleHint string) string {
	s := styles.CurrentTheme().S()
	switch snap.State {
	case session.PendingDebounce:
		return s.Muted.Render("Waiting for typing to pause…")
	case session.RequestInFlight:
		return s.Info.Render(spin + " Analyzing...")
	case session.Failed:
		return s.Error.Render(snap.Message)
	case session.AuthRequired:
		return s.Warning.Render(snap.Message)
	case session.ResultShown:
		n := snap.Result.IssueCount()
		noun := "findings"
		if n == 1 {
			noun = "finding"
		}
		return s.Success.Render(fmt.Sprintf("%d %s", n, noun))
	}
	if snap.Loading {
		return s.Info.Render(spin + " Loading project...")
	}
	return s.Muted.Render(idleHint)
}

// renderResult draws the status line and the displayed result. The result
// stays visible while a newer request is pending or in flight.
func renderResult(cache *styles.MarkdownCache, snap session.Snapshot, width int, spin, idleHint string) string {
	head := statusLine(snap, spin, idleHint)
	if snap.Result == nil {
		return head
	}
	id := fmt.Sprintf("%s#%d", snap.ID, snap.Seq)
	return head + "\n\n" + cache.Render(id, width, resultMarkdown(snap.Result))
}
