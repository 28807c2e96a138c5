package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/tipster/internal/app"
	"github.com/John-Robertt/tipster/internal/app/runner"
	"github.com/John-Robertt/tipster/internal/config"
	"github.com/John-Robertt/tipster/internal/extract"
	"github.com/John-Robertt/tipster/internal/scan"
)

type extractImageDoc struct {
	Path    string   `json:"path"`
	Matches []string `json:"matches"`
	Error   string   `json:"error,omitempty"`
}

type extractDoc struct {
	Images     []extractImageDoc `json:"images"`
	Matches    []string          `json:"matches"`
	Added      []string          `json:"added"`
	Duplicates int               `json:"duplicates"`
}

func newExtractCmd(c *cli) *cobra.Command {
	var (
		exclude []string
		noAdd   bool
	)
	cmd := &cobra.Command{
		Use:   "extract <image|dir>...",
		Short: "识别截图中的比赛并加入比赛列表",
		Args:  minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eff, err := c.load(config.CLIArgs{})
			if err != nil {
				return err
			}
			if err := eff.RequireAPIKey(); err != nil {
				return err
			}
			paths, err := scan.Images(args, exclude)
			if err != nil {
				return usageError{err: err}
			}
			completer, err := c.newCompleter(eff)
			if err != nil {
				return err
			}
			log := c.logger(eff)

			ctx, stop := c.signalContext()
			defer stop()

			fmt.Fprintf(c.stderr, "识别 %d 张截图（model=%s）...\n", len(paths), eff.VisionModel)
			ex := &extract.Extractor{LLM: completer, Model: eff.VisionModel, Concurrency: eff.Concurrency, Logger: log}
			res, err := ex.Extract(ctx, paths)
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %w", runner.ErrCancelled, ctx.Err())
			}
			if err != nil && len(res.Images) == 0 {
				return err
			}

			doc := extractDoc{Images: make([]extractImageDoc, 0, len(res.Images)), Matches: res.Matches, Added: []string{}}
			for _, im := range res.Images {
				d := extractImageDoc{Path: im.Path, Matches: im.Matches}
				if d.Matches == nil {
					d.Matches = []string{}
				}
				if im.Err != nil {
					d.Error = im.Err.Error()
					fmt.Fprintf(c.stderr, "%s: %v\n", im.Path, im.Err)
				}
				doc.Images = append(doc.Images, d)
			}
			if doc.Matches == nil {
				doc.Matches = []string{}
			}

			if !noAdd && len(res.Matches) > 0 {
				st := c.openStore(eff)
				list, lerr := st.LoadMatches()
				if lerr != nil {
					return lerr
				}
				merged := app.MergeMatches(list, res.Matches)
				if len(merged.Added) > 0 {
					if serr := st.SaveMatches(merged.Matches); serr != nil {
						return serr
					}
				}
				doc.Added = merged.Added
				doc.Duplicates = merged.Duplicates
				fmt.Fprintf(c.stderr, "识别到 %d 场比赛，新增 %d 场\n", len(res.Matches), len(merged.Added))
				if merged.Duplicates > 0 {
					fmt.Fprintln(c.stderr, app.DuplicateNotice(merged.Duplicates))
				}
			}
			if len(res.Matches) == 0 {
				fmt.Fprintln(c.stderr, "没有识别到比赛")
			}

			if c.jsonMode() {
				if e := c.emitJSON(doc); e != nil {
					return e
				}
			} else {
				for _, m := range doc.Matches {
					fmt.Fprintln(c.stdout, m)
				}
			}
			if err != nil {
				return exitError{code: exitFailed}
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "扫描目录时排除的子目录（可重复）")
	cmd.Flags().BoolVar(&noAdd, "no-add", false, "只输出识别结果，不加入比赛列表")
	return cmd
}
