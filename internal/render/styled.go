package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/John-Robertt/tipster/internal/domain"
)

// Styles 是终端输出使用的一组样式（绑定到某个输出流的 renderer）。
type Styles struct {
	Title      lipgloss.Style
	Match      lipgloss.Style
	Prediction lipgloss.Style
	Stars      lipgloss.Style
	Failed     lipgloss.Style
	Faint      lipgloss.Style
	Box        lipgloss.Style
}

// NewStyles 按 w 的颜色能力创建样式（非终端时自动降级为无色）。
func NewStyles(w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)
	return Styles{
		Title:      r.NewStyle().Bold(true).Foreground(lipgloss.Color("62")),
		Match:      r.NewStyle().Bold(true),
		Prediction: r.NewStyle().Foreground(lipgloss.Color("42")),
		Stars:      r.NewStyle().Foreground(lipgloss.Color("220")),
		Failed:     r.NewStyle().Foreground(lipgloss.Color("196")),
		Faint:      r.NewStyle().Foreground(lipgloss.Color("245")),
		Box: r.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1),
	}
}

// Styled 渲染带样式的票据；width>0 时整体分析按该宽度折行。
func Styled(st Styles, tk domain.Ticket, width int) string {
	var b strings.Builder
	head := "Prediction ticket · " + StrategyName(tk.Strategy)
	if tk.Market != "" {
		head += " · " + tk.Market
	}
	b.WriteString(st.Title.Render(head))
	b.WriteByte('\n')
	b.WriteString(st.Faint.Render(fmt.Sprintf("%s  %d ok / %d failed", tk.ID, tk.Summary.Succeeded, tk.Summary.Failed)))
	b.WriteString("\n\n")

	if tk.OverallAnalysis != "" {
		box := st.Box
		if width > 4 {
			box = box.Width(width - 2)
		}
		b.WriteString(box.Render(tk.OverallAnalysis))
		b.WriteString("\n\n")
	}

	for i, it := range tk.Items {
		fmt.Fprintf(&b, "%s %s\n", st.Faint.Render(fmt.Sprintf("%2d.", i+1)), st.Match.Render(it.Match))
		if it.Error {
			fmt.Fprintf(&b, "    %s  %s\n", st.Failed.Render(it.Prediction), st.Faint.Render(it.Reasoning.Main))
			continue
		}
		fmt.Fprintf(&b, "    %s  %s\n", st.Prediction.Render(it.Prediction), st.Stars.Render(Stars(it.Conviction)))
		fmt.Fprintf(&b, "    %s\n", it.Reasoning.Main)
		if it.Reasoning.DevilsAdvocate != "" {
			fmt.Fprintf(&b, "    %s %s\n", st.Faint.Render("risk:"), it.Reasoning.DevilsAdvocate)
		}
		for _, s := range it.Sources {
			title := s.Title
			if title == "" {
				title = s.URI
			}
			fmt.Fprintf(&b, "    %s\n", st.Faint.Render("↳ "+title))
		}
	}
	return b.String()
}
