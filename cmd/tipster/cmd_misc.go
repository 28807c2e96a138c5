package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/tipster/internal/config"
	"github.com/John-Robertt/tipster/internal/domain"
	"github.com/John-Robertt/tipster/internal/prompt"
)

type strategyDoc struct {
	ID          domain.Strategy `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	NeedsMarket bool            `json:"needs_market,omitempty"`
	SingleMatch bool            `json:"single_match_only,omitempty"`
}

type strategiesDoc struct {
	Strategies []strategyDoc `json:"strategies"`
	Markets    []string      `json:"markets"`
}

func newStrategiesCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "列出分析策略与可选市场",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc := strategiesDoc{Markets: domain.Markets}
			for _, s := range prompt.Builtin().All() {
				doc.Strategies = append(doc.Strategies, strategyDoc{
					ID:          s.ID(),
					Name:        s.Name(),
					Description: s.Description(),
					NeedsMarket: s.ID().NeedsMarket(),
					SingleMatch: s.ID().SingleMatchOnly(),
				})
			}
			if c.jsonMode() {
				return c.emitJSON(doc)
			}
			for _, s := range doc.Strategies {
				fmt.Fprintf(c.stdout, "%-20s %s\n%20s %s\n", s.ID, s.Name, "", s.Description)
			}
			fmt.Fprintln(c.stdout, "\nMARKET_SPECIALIST 可选市场（--market）：")
			for _, m := range doc.Markets {
				fmt.Fprintf(c.stdout, "  %s\n", m)
			}
			return nil
		},
	}
}

func newResetCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "清空比赛列表与最近一次结果（已保存的票据保留）",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			eff, err := c.load(config.CLIArgs{})
			if err != nil {
				return err
			}
			if err := c.openStore(eff).Reset(); err != nil {
				return err
			}
			fmt.Fprintln(c.stderr, "已重置")
			if c.jsonMode() {
				return c.emitJSON(map[string]bool{"reset": true})
			}
			return nil
		},
	}
}
