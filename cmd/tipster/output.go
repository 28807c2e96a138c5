package main

import (
	"fmt"
	"strings"

	"github.com/John-Robertt/tipster/internal/domain"
	"github.com/John-Robertt/tipster/internal/render"
)

// 票据输出格式；空值表示自动（终端为 styled，否则 json）。
const (
	formatAuto     = ""
	formatJSON     = "json"
	formatText     = "text"
	formatMarkdown = "markdown"
	formatStyled   = "styled"
)

func parseFormat(s string) (string, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case formatAuto, "auto":
		return formatAuto, nil
	case formatJSON, formatText, formatMarkdown, formatStyled:
		return v, nil
	case "md":
		return formatMarkdown, nil
	default:
		return "", usageError{err: fmt.Errorf("--format 只能是 json|text|markdown|styled，实际是 %q", s)}
	}
}

func (c *cli) emitTicket(tk domain.Ticket, format string) error {
	if format == formatAuto {
		format = formatStyled
		if c.jsonMode() {
			format = formatJSON
		}
	}

	switch format {
	case formatJSON:
		return c.emitJSON(tk)
	case formatText:
		_, err := fmt.Fprintln(c.stdout, render.Text(tk))
		return err
	case formatMarkdown:
		md := render.Markdown(tk)
		if isTerminal(c.stdout) {
			out, err := render.Glamour(md, c.termWidth())
			if err == nil {
				md = out
			}
		}
		_, err := fmt.Fprint(c.stdout, md)
		return err
	default:
		_, err := fmt.Fprint(c.stdout, render.Styled(render.NewStyles(c.stdout), tk, c.termWidth()))
		return err
	}
}
