package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/tipster/internal/app/planner"
	"github.com/John-Robertt/tipster/internal/app/run"
	"github.com/John-Robertt/tipster/internal/app/runner"
	"github.com/John-Robertt/tipster/internal/config"
)

// 退出码约定。
const (
	exitOK        = 0
	exitFailed    = 1
	exitUsage     = 2
	exitCancelled = 130
)

func main() {
	os.Exit(execute(newCLI(os.Stdin, os.Stdout, os.Stderr), os.Args[1:]))
}

// usageError 表示参数错误（退出码 2）。
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// runError 表示分析运行本身失败（不同于单场失败，单场失败会写进票据）。
type runError struct{ err error }

func (e runError) Error() string { return e.err.Error() }
func (e runError) Unwrap() error { return e.err }

// exitError 携带已经输出过的结果对应的退出码（不再打印错误）。
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit %d", e.code) }

func execute(c *cli, args []string) int {
	root := newRootCmd(c)
	root.SetArgs(args)
	root.SetIn(c.stdin)
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)

	err := root.Execute()
	return exitCode(c.stderr, err)
}

func exitCode(stderr io.Writer, err error) int {
	if err == nil {
		return exitOK
	}
	var ee exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	if errors.Is(err, runner.ErrCancelled) {
		fmt.Fprintln(stderr, run.HumanizeError(err))
		return exitCancelled
	}
	var re runError
	if errors.As(err, &re) {
		fmt.Fprintf(stderr, "%s\n错误：%v\n", run.HumanizeError(re.err), re.err)
		return exitFailed
	}

	var ue usageError
	var pe *planner.Error
	switch {
	case errors.As(err, &ue):
		fmt.Fprintf(stderr, "参数错误：%v\n", err)
		return exitUsage
	case errors.As(err, &pe):
		fmt.Fprintf(stderr, "%s: %s\n", pe.Code, pe.Msg)
		return exitUsage
	}
	if code := config.Code(err); code != "" {
		fmt.Fprintf(stderr, "%s: %v\n", code, err)
		return exitFailed
	}
	fmt.Fprintf(stderr, "错误：%v\n", err)
	return exitFailed
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "tipster",
		Short:         "识别投注截图中的比赛，并让模型按策略给出预测票据",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	// flag 解析错误统一按 usage 处理。
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err: err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&c.global.configPath, "config", "", "配置文件路径（默认 $"+config.ConfigEnvVar+" 或用户配置目录下的 tipster/"+config.FileName+"）")
	pf.StringVar(&c.global.dataDir, "data-dir", "", "数据目录（比赛列表、票据）")
	pf.BoolVarP(&c.global.verbose, "verbose", "v", false, "输出调试日志到 stderr")
	pf.BoolVar(&c.global.json, "json", false, "始终输出 JSON（即使 stdout 是终端）")

	root.AddCommand(
		newMatchesCmd(c),
		newExtractCmd(c),
		newAnalyzeCmd(c),
		newTicketsCmd(c),
		newStrategiesCmd(c),
		newResetCmd(c),
	)
	return root
}
