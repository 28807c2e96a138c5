package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/tipster/internal/config"
	"github.com/John-Robertt/tipster/internal/domain"
	"github.com/John-Robertt/tipster/internal/render"
	"github.com/John-Robertt/tipster/internal/store"
)

// lastRef 在 show 中表示最近一次分析结果（未必已保存）。
const lastRef = "last"

type ticketRow struct {
	ID       string               `json:"id"`
	SavedAt  *time.Time           `json:"saved_at,omitempty"`
	Strategy domain.Strategy      `json:"strategy"`
	Market   string               `json:"market,omitempty"`
	Summary  domain.TicketSummary `json:"summary"`
	Matches  []string             `json:"matches"`
}

type ticketListDoc struct {
	Tickets []ticketRow `json:"tickets"`
	Skipped []string    `json:"skipped,omitempty"`
}

func newTicketsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tickets",
		Short: "管理已保存的票据",
	}

	var showFormat string
	show := &cobra.Command{
		Use:   "show <id|prefix|last>",
		Short: "显示一张票据",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(showFormat)
			if err != nil {
				return err
			}
			st, err := c.ticketStore()
			if err != nil {
				return err
			}
			var tk domain.Ticket
			if args[0] == lastRef {
				tk, err = st.LoadLast()
			} else {
				tk, err = st.LoadTicket(args[0])
			}
			if err != nil {
				return ticketErr(args[0], err)
			}
			return c.emitTicket(tk, format)
		},
	}
	show.Flags().StringVar(&showFormat, "format", "", "输出格式：json|text|markdown|styled")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "列出已保存的票据（从新到旧）",
			Args:  exactArgs(0),
			RunE: func(cmd *cobra.Command, args []string) error {
				st, err := c.ticketStore()
				if err != nil {
					return err
				}
				tks, skipped, err := st.ListTickets()
				if err != nil {
					return err
				}
				for _, p := range skipped {
					fmt.Fprintf(c.stderr, "跳过无法解析的票据：%s\n", p)
				}
				doc := ticketListDoc{Tickets: make([]ticketRow, 0, len(tks)), Skipped: skipped}
				for _, tk := range tks {
					doc.Tickets = append(doc.Tickets, toRow(tk))
				}
				if c.jsonMode() {
					return c.emitJSON(doc)
				}
				if len(doc.Tickets) == 0 {
					fmt.Fprintln(c.stdout, "（没有已保存的票据）")
					return nil
				}
				for _, r := range doc.Tickets {
					saved := ""
					if r.SavedAt != nil {
						saved = r.SavedAt.Local().Format("2006-01-02 15:04")
					}
					fmt.Fprintf(c.stdout, "%s  %s  %-20s  %d/%d ok\n", r.ID[:min(8, len(r.ID))], saved, render.StrategyName(r.Strategy), r.Summary.Succeeded, r.Summary.Total)
				}
				return nil
			},
		},
		show,
		&cobra.Command{
			Use:     "rm <id|prefix>",
			Aliases: []string{"delete"},
			Short:   "删除一张已保存的票据",
			Args:    exactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				st, err := c.ticketStore()
				if err != nil {
					return err
				}
				id, err := st.DeleteTicket(args[0])
				if err != nil {
					return ticketErr(args[0], err)
				}
				fmt.Fprintf(c.stderr, "已删除票据：%s\n", id)
				if c.jsonMode() {
					return c.emitJSON(map[string]string{"deleted": id})
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "save",
			Short: "保存最近一次分析结果",
			Args:  exactArgs(0),
			RunE: func(cmd *cobra.Command, args []string) error {
				st, err := c.ticketStore()
				if err != nil {
					return err
				}
				tk, err := st.LoadLast()
				if err != nil {
					return ticketErr(lastRef, err)
				}
				saved, err := st.SaveTicket(tk)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.stderr, "已保存票据：%s\n", saved.ID)
				if c.jsonMode() {
					return c.emitJSON(toRow(saved))
				}
				fmt.Fprintln(c.stdout, saved.ID)
				return nil
			},
		},
	)
	return cmd
}

func (c *cli) ticketStore() (*store.Store, error) {
	eff, err := c.load(config.CLIArgs{})
	if err != nil {
		return nil, err
	}
	return c.openStore(eff), nil
}

func toRow(tk domain.Ticket) ticketRow {
	r := ticketRow{
		ID:       tk.ID,
		SavedAt:  tk.SavedAt,
		Strategy: tk.Strategy,
		Market:   tk.Market,
		Summary:  tk.Summary,
		Matches:  make([]string, 0, len(tk.Items)),
	}
	for _, it := range tk.Items {
		r.Matches = append(r.Matches, it.Match)
	}
	return r
}

func ticketErr(ref string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound) && ref == lastRef:
		return fmt.Errorf("还没有分析结果；请先运行 tipster analyze")
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrAmbiguous):
		return usageError{err: err}
	default:
		return err
	}
}
