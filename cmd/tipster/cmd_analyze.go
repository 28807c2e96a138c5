package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/tipster/internal/analysis"
	"github.com/John-Robertt/tipster/internal/app/planner"
	"github.com/John-Robertt/tipster/internal/app/run"
	"github.com/John-Robertt/tipster/internal/app/runner"
	"github.com/John-Robertt/tipster/internal/config"
	"github.com/John-Robertt/tipster/internal/domain"
	"github.com/John-Robertt/tipster/internal/infra/httpx"
	"github.com/John-Robertt/tipster/internal/match"
	"github.com/John-Robertt/tipster/internal/prompt"
	"github.com/John-Robertt/tipster/internal/source"
	"github.com/John-Robertt/tipster/internal/store"
)

type analyzeFlags struct {
	strategy    string
	market      string
	concurrency int
	model       string
	save        bool
	noSummary   bool
	format      string
}

func newAnalyzeCmd(c *cli) *cobra.Command {
	var f analyzeFlags
	cmd := &cobra.Command{
		Use:   "analyze [match...]",
		Short: "按策略分析比赛列表（或参数中的比赛），输出预测票据",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(f.format)
			if err != nil {
				return err
			}
			fl := cmd.Flags()
			eff, err := c.load(config.CLIArgs{
				Strategy:       f.strategy,
				StrategySet:    fl.Changed("strategy"),
				Market:         f.market,
				MarketSet:      fl.Changed("market"),
				Model:          f.model,
				ModelSet:       fl.Changed("model"),
				Concurrency:    f.concurrency,
				ConcurrencySet: fl.Changed("concurrency"),
			})
			if err != nil {
				return err
			}
			return c.analyze(eff, args, f, format)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&f.strategy, "strategy", "", "分析策略（见 tipster strategies；默认 "+string(domain.DefaultStrategy)+"）")
	fs.StringVar(&f.market, "market", "", "MARKET_SPECIALIST 使用的市场")
	fs.IntVarP(&f.concurrency, "concurrency", "c", config.DefaultConcurrency, "并发分析的比赛数")
	fs.StringVar(&f.model, "model", "", "模型名（默认 "+config.DefaultModel+"）")
	fs.BoolVar(&f.save, "save", false, "把结果保存为票据")
	fs.BoolVar(&f.noSummary, "no-summary", false, "不生成整体分析")
	fs.StringVar(&f.format, "format", "", "输出格式：json|text|markdown|styled（默认终端 styled，否则 json）")
	return cmd
}

func (c *cli) analyze(eff config.EffectiveConfig, args []string, f analyzeFlags, format string) error {
	if err := eff.RequireAPIKey(); err != nil {
		return err
	}
	st := c.openStore(eff)

	matches := match.ParseLines(strings.Join(args, "\n"))
	if len(args) == 0 {
		saved, err := st.LoadMatches()
		if err != nil {
			return err
		}
		matches = saved
	}
	plan, err := planner.Plan(planner.Input{
		Matches:     matches,
		Strategy:    eff.Strategy,
		Market:      eff.Market,
		Concurrency: eff.Concurrency,
	})
	if err != nil {
		return err
	}

	completer, err := c.newCompleter(eff)
	if err != nil {
		return err
	}
	log := c.logger(eff)
	a := &analysis.Analyzer{
		LLM:        completer,
		Prompts:    prompt.Builtin(),
		Model:      eff.Model,
		Structured: eff.StructuredOutput,
		Logger:     log,
	}
	var titles *store.TitleCache
	if eff.ResolveSourceTitles {
		pc, err := httpx.NewPageClient(eff.ProxyURL)
		if err != nil {
			return err
		}
		titles = st.TitleCache()
		a.Titles = &source.Resolver{Client: pc, Cache: titles, Logger: log}
	}

	opts := run.Options{Model: eff.Model, Logger: log}
	if !f.noSummary {
		opts.Summarize = a.Summarize
	}
	var obs run.Observer
	if w, ok := c.progressWriter(); ok {
		obs = newProgressUI(w)
	}

	ctx, stop := c.signalContext()
	defer stop()

	tk, err := run.ExecuteWithObserver(ctx, plan, a, opts, obs)
	if titles != nil {
		if ferr := titles.Flush(); ferr != nil {
			log.Warn("写入来源标题缓存失败", "err", ferr)
		}
	}
	if errors.Is(err, runner.ErrCancelled) {
		return err
	}
	if err != nil {
		return runError{err: err}
	}

	if err := st.SaveLast(tk); err != nil {
		log.Warn("写入最近一次结果失败", "err", err)
	}
	if f.save {
		saved, err := st.SaveTicket(tk)
		if err != nil {
			return err
		}
		tk = saved
		fmt.Fprintf(c.stderr, "已保存票据：%s\n", tk.ID)
	}

	if err := c.emitTicket(tk, format); err != nil {
		return err
	}
	fmt.Fprintf(c.stderr, "完成：total=%d succeeded=%d failed=%d\n", tk.Summary.Total, tk.Summary.Succeeded, tk.Summary.Failed)
	if tk.Summary.Failed > 0 {
		return exitError{code: exitFailed}
	}
	return nil
}
