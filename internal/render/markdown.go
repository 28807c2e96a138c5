package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/John-Robertt/tipster/internal/domain"
)

// Markdown 渲染票据为 Markdown 文档。
func Markdown(tk domain.Ticket) string {
	var b strings.Builder
	b.WriteString("# Prediction ticket\n\n")

	meta := []string{"**Strategy:** " + StrategyName(tk.Strategy)}
	if tk.Market != "" {
		meta = append(meta, "**Market:** "+tk.Market)
	}
	if tk.Model != "" {
		meta = append(meta, "**Model:** `"+tk.Model+"`")
	}
	if !tk.CreatedAt.IsZero() {
		meta = append(meta, "**Created:** "+tk.CreatedAt.Format("2006-01-02 15:04 MST"))
	}
	b.WriteString(strings.Join(meta, " · "))
	fmt.Fprintf(&b, "\n\n%d matches, %d succeeded, %d failed.\n\n", tk.Summary.Total, tk.Summary.Succeeded, tk.Summary.Failed)

	if tk.OverallAnalysis != "" {
		fmt.Fprintf(&b, "## Overall analysis\n\n%s\n\n", tk.OverallAnalysis)
	}

	b.WriteString("## Predictions\n")
	for i, it := range tk.Items {
		fmt.Fprintf(&b, "\n### %d. %s\n\n", i+1, it.Match)
		if it.Error {
			fmt.Fprintf(&b, "**%s**\n\n> %s\n", it.Prediction, it.Reasoning.Main)
			continue
		}
		fmt.Fprintf(&b, "**%s** %s\n\n%s\n", it.Prediction, Stars(it.Conviction), it.Reasoning.Main)
		if it.Reasoning.DevilsAdvocate != "" {
			fmt.Fprintf(&b, "\n- **Main risk:** %s", it.Reasoning.DevilsAdvocate)
		}
		if it.Reasoning.ConsideredAlternatives != "" {
			fmt.Fprintf(&b, "\n- **Considered alternatives:** %s", it.Reasoning.ConsideredAlternatives)
		}
		if len(it.Sources) > 0 {
			links := make([]string, 0, len(it.Sources))
			for _, s := range it.Sources {
				title := s.Title
				if title == "" {
					title = s.URI
				}
				links = append(links, fmt.Sprintf("[%s](%s)", escapeLink(title), s.URI))
			}
			fmt.Fprintf(&b, "\n- **Sources:** %s", strings.Join(links, ", "))
		}
		if it.Reasoning.DevilsAdvocate != "" || it.Reasoning.ConsideredAlternatives != "" || len(it.Sources) > 0 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Glamour 用 glamour 把 Markdown 渲染为终端文本；width<=0 时不折行。
func Glamour(md string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithStylePath("dark")}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", err
	}
	out, err := r.Render(md)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n") + "\n", nil
}

func escapeLink(s string) string {
	return strings.NewReplacer("[", `\[`, "]", `\]`).Replace(s)
}
