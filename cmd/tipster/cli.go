package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"golang.org/x/term"

	"github.com/John-Robertt/tipster/internal/config"
	"github.com/John-Robertt/tipster/internal/infra/httpx"
	"github.com/John-Robertt/tipster/internal/llm"
	"github.com/John-Robertt/tipster/internal/store"
)

type globalFlags struct {
	configPath string
	dataDir    string
	verbose    bool
	json       bool
}

// cli 持有一次进程运行的 I/O 与可替换依赖（测试注入 fake）。
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	global globalFlags
	env    config.Env

	// newCompleter 由生效配置构造模型客户端。
	newCompleter func(eff config.EffectiveConfig) (llm.Completer, error)
	// signalContext 返回随 Ctrl+C 取消的 context。
	signalContext func() (context.Context, context.CancelFunc)
}

func newCLI(stdin io.Reader, stdout, stderr io.Writer) *cli {
	return &cli{
		stdin:         stdin,
		stdout:        stdout,
		stderr:        stderr,
		env:           config.OSEnv(),
		newCompleter:  newLLMClient,
		signalContext: notifyContext,
	}
}

func newLLMClient(eff config.EffectiveConfig) (llm.Completer, error) {
	hc, err := httpx.NewAPIClient(eff.ProxyURL, eff.RequestTimeout)
	if err != nil {
		return nil, err
	}
	return llm.New(llm.Options{
		APIKey:     eff.APIKey,
		BaseURL:    eff.BaseURL,
		Model:      eff.Model,
		HTTPClient: hc,
	})
}

// load 合并配置；cmdArgs 来自具体命令的 flag（全局 flag 在这里补齐）。
func (c *cli) load(cmdArgs config.CLIArgs) (config.EffectiveConfig, error) {
	cmdArgs.ConfigPath = c.global.configPath
	cmdArgs.DataDir = c.global.dataDir
	cmdArgs.Verbose = c.global.verbose
	return config.LoadEffective(cmdArgs, c.env)
}

func (c *cli) logger(eff config.EffectiveConfig) *slog.Logger {
	return slog.New(slog.NewTextHandler(c.stderr, &slog.HandlerOptions{Level: eff.LogLevel}))
}

func (c *cli) openStore(eff config.EffectiveConfig) *store.Store {
	return store.New(eff.DataDir)
}

// jsonMode 表示 stdout 是否应输出单个 JSON 文档。
func (c *cli) jsonMode() bool {
	return c.global.json || !isTerminal(c.stdout)
}

// emitJSON 向 stdout 输出一个 JSON 文档；终端上带缩进与颜色。
func (c *cli) emitJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if isTerminal(c.stdout) {
		_, err = c.stdout.Write(pretty.Color(pretty.Pretty(b), nil))
		return err
	}
	_, err = fmt.Fprintf(c.stdout, "%s\n", b)
	return err
}

// termWidth 返回 stdout 的终端宽度；不是终端时返回 0。
func (c *cli) termWidth() int {
	f, ok := c.stdout.(*os.File)
	if !ok {
		return 0
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return w
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// progressWriter 选择进度输出的目标：只在交互终端启用；默认 stderr（不污染 stdout JSON）。
func (c *cli) progressWriter() (io.Writer, bool) {
	if isTerminal(c.stderr) {
		return c.stderr, true
	}
	return nil, false
}

// exactArgs 与 cobra.ExactArgs 相同，但参数错误按 usage 处理。
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError{err: err}
		}
		return nil
	}
}

func minArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MinimumNArgs(n)(cmd, args); err != nil {
			return usageError{err: err}
		}
		return nil
	}
}
