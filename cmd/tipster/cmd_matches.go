package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/tipster/internal/app"
	"github.com/John-Robertt/tipster/internal/config"
	"github.com/John-Robertt/tipster/internal/match"
	"github.com/John-Robertt/tipster/internal/store"
)

type matchesDoc struct {
	Matches    []string `json:"matches"`
	Added      []string `json:"added,omitempty"`
	Removed    string   `json:"removed,omitempty"`
	Duplicates int      `json:"duplicates,omitempty"`
}

func newMatchesCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "matches",
		Short: "管理待分析的比赛列表",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add [match...]",
			Short: "添加比赛（不带参数时从 stdin 逐行读取）",
			RunE: func(cmd *cobra.Command, args []string) error {
				incoming := args
				if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
					lines, err := readLines(c.stdin)
					if err != nil {
						return err
					}
					incoming = lines
				}
				return c.addMatches(incoming)
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "列出比赛",
			Args:  exactArgs(0),
			RunE: func(cmd *cobra.Command, args []string) error {
				_, list, err := c.loadMatches()
				if err != nil {
					return err
				}
				return c.emitMatches(matchesDoc{Matches: list}, "")
			},
		},
		&cobra.Command{
			Use:   "rm <position>",
			Short: "按位置（从 1 开始）删除一场比赛",
			Args:  exactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				pos, err := strconv.Atoi(args[0])
				if err != nil {
					return usageError{err: fmt.Errorf("位置必须是整数：%q", args[0])}
				}
				st, list, err := c.loadMatches()
				if err != nil {
					return err
				}
				next, removed, err := app.RemoveAt(list, pos)
				if err != nil {
					return usageError{err: err}
				}
				if err := st.SaveMatches(next); err != nil {
					return err
				}
				return c.emitMatches(matchesDoc{Matches: next, Removed: removed}, "已删除："+removed)
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "清空比赛列表",
			Args:  exactArgs(0),
			RunE: func(cmd *cobra.Command, args []string) error {
				eff, err := c.load(config.CLIArgs{})
				if err != nil {
					return err
				}
				if err := c.openStore(eff).SaveMatches(nil); err != nil {
					return err
				}
				return c.emitMatches(matchesDoc{Matches: []string{}}, "比赛列表已清空")
			},
		},
	)
	return cmd
}

func (c *cli) loadMatches() (*store.Store, []string, error) {
	eff, err := c.load(config.CLIArgs{})
	if err != nil {
		return nil, nil, err
	}
	s := c.openStore(eff)
	list, err := s.LoadMatches()
	if err != nil {
		return nil, nil, err
	}
	return s, list, nil
}

// addMatches 把 incoming 合并进已保存的列表并输出合并结果。
func (c *cli) addMatches(incoming []string) error {
	st, list, err := c.loadMatches()
	if err != nil {
		return err
	}
	res := app.MergeMatches(list, incoming)
	if len(res.Added) > 0 {
		if err := st.SaveMatches(res.Matches); err != nil {
			return err
		}
	}
	note := fmt.Sprintf("新增 %d 场比赛", len(res.Added))
	if res.Duplicates > 0 {
		note += "；" + app.DuplicateNotice(res.Duplicates)
	}
	return c.emitMatches(matchesDoc{Matches: res.Matches, Added: res.Added, Duplicates: res.Duplicates}, note)
}

func (c *cli) emitMatches(doc matchesDoc, note string) error {
	if doc.Matches == nil {
		doc.Matches = []string{}
	}
	if note != "" {
		fmt.Fprintln(c.stderr, note)
	}
	if c.jsonMode() {
		return c.emitJSON(doc)
	}
	if len(doc.Matches) == 0 {
		fmt.Fprintln(c.stdout, "（比赛列表为空）")
		return nil
	}
	for i, m := range doc.Matches {
		fmt.Fprintf(c.stdout, "%3d. %s\n", i+1, m)
	}
	return nil
}

// readLines 读取 r 的全部行并按比赛格式规范化（空行丢弃）。
func readLines(r io.Reader) ([]string, error) {
	if r == nil {
		return nil, nil
	}
	var b strings.Builder
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		b.WriteString(sc.Text())
		b.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return match.ParseLines(b.String()), nil
}
