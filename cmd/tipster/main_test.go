package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/John-Robertt/tipster/internal/app/run"
	"github.com/John-Robertt/tipster/internal/app/runner"
	"github.com/John-Robertt/tipster/internal/config"
	"github.com/John-Robertt/tipster/internal/domain"
	"github.com/John-Robertt/tipster/internal/llm"
)

var promptMatchRE = regexp.MustCompile(`(?m)^- (.+)$`)

// fakeModel 按请求类型返回固定回答：截图识别、单场分析、整体分析。
type fakeModel struct {
	mu    sync.Mutex
	fail  map[string]bool
	calls int
}

func (f *fakeModel) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	switch {
	case len(req.Images) > 0:
		return llm.Response{Text: "Arsenal v Chelsea\nRoma vs Lazio"}, nil
	case strings.Contains(req.Prompt, "meta-analysis"):
		return llm.Response{Text: "Moderate risk."}, nil
	}
	m := promptMatchRE.FindStringSubmatch(req.Prompt)
	if m == nil {
		return llm.Response{}, errors.New("提示词中没有比赛")
	}
	if f.fail[m[1]] {
		return llm.Response{}, errors.New("HTTP 503")
	}
	return llm.Response{Text: fmt.Sprintf(`{"match":%q,"prediction":"Over 1.5 goals","conviction":4,"reasoning":{"main":"m","devils_advocate":"d","considered_alternatives":"c"},"sources":[]}`, m[1])}, nil
}

type harness struct {
	t      *testing.T
	home   string
	env    map[string]string
	model  *fakeModel
	ctx    context.Context
	stdin  string
	stdout bytes.Buffer
	stderr bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	home := t.TempDir()
	return &harness{
		t:     t,
		home:  home,
		env:   map[string]string{"TIPSTER_API_KEY": "k"},
		model: &fakeModel{},
		ctx:   context.Background(),
	}
}

func (h *harness) run(args ...string) int {
	h.t.Helper()
	h.stdout.Reset()
	h.stderr.Reset()
	c := newCLI(strings.NewReader(h.stdin), &h.stdout, &h.stderr)
	c.env = config.Env{
		Getenv:     func(k string) string { return h.env[k] },
		ConfigHome: h.home,
		Cwd:        h.home,
	}
	c.newCompleter = func(config.EffectiveConfig) (llm.Completer, error) { return h.model, nil }
	c.signalContext = func() (context.Context, context.CancelFunc) { return context.WithCancel(h.ctx) }
	return execute(c, args)
}

func (h *harness) decode(v any) {
	h.t.Helper()
	dec := json.NewDecoder(bytes.NewReader(h.stdout.Bytes()))
	if err := dec.Decode(v); err != nil {
		h.t.Fatalf("stdout 不是合法 JSON：%v\nstdout=%q", err, h.stdout.String())
	}
	if dec.More() {
		h.t.Fatalf("stdout 只能包含一个 JSON 文档：%q", h.stdout.String())
	}
}

func TestMatches_AddListRm(t *testing.T) {
	h := newHarness(t)

	if code := h.run("matches", "add", "Arsenal v Chelsea", "Roma vs Lazio"); code != exitOK {
		t.Fatalf("exit=%d stderr=%s", code, h.stderr.String())
	}
	h.stdin = "arsenal VS chelsea\n\n- Ajax vs PSV\n"
	if code := h.run("matches", "add"); code != exitOK {
		t.Fatalf("exit=%d stderr=%s", code, h.stderr.String())
	}
	var doc matchesDoc
	h.decode(&doc)
	if doc.Duplicates != 1 || len(doc.Added) != 1 || len(doc.Matches) != 3 {
		t.Fatalf("合并结果不符合预期：%+v", doc)
	}
	if !strings.Contains(h.stderr.String(), "1 duplicate match was ignored.") {
		t.Fatalf("stderr 缺少重复提示：%q", h.stderr.String())
	}

	if code := h.run("matches", "rm", "2"); code != exitOK {
		t.Fatalf("exit=%d stderr=%s", code, h.stderr.String())
	}
	if code := h.run("matches", "list"); code != exitOK {
		t.Fatalf("exit=%d", code)
	}
	doc = matchesDoc{}
	h.decode(&doc)
	want := []string{"Arsenal vs Chelsea", "Ajax vs PSV"}
	if strings.Join(doc.Matches, "|") != strings.Join(want, "|") {
		t.Fatalf("got=%v want=%v", doc.Matches, want)
	}

	if code := h.run("matches", "rm", "9"); code != exitUsage {
		t.Fatalf("越界位置应返回 %d，got=%d", exitUsage, code)
	}
	if code := h.run("matches", "rm", "x"); code != exitUsage {
		t.Fatalf("非整数位置应返回 %d，got=%d", exitUsage, code)
	}
}

func TestAnalyze_NoTTY_StdoutOnlyTicketJSON(t *testing.T) {
	h := newHarness(t)
	h.run("matches", "add", "A vs B", "C vs D")

	if code := h.run("analyze", "--concurrency", "2"); code != exitOK {
		t.Fatalf("exit=%d stderr=%s", code, h.stderr.String())
	}
	var tk domain.Ticket
	h.decode(&tk)
	if tk.ID == "" || tk.Strategy != domain.StrategyCautious || tk.Summary.Succeeded != 2 {
		t.Fatalf("票据不符合预期：%+v", tk)
	}
	if tk.Items[0].Match != "A vs B" || tk.Items[1].Match != "C vs D" {
		t.Fatalf("条目顺序不符合预期：%+v", tk.Items)
	}
	if tk.OverallAnalysis != "Moderate risk." {
		t.Fatalf("整体分析不符合预期：%q", tk.OverallAnalysis)
	}
	if !strings.Contains(h.stderr.String(), "完成：total=2 succeeded=2 failed=0") {
		t.Fatalf("stderr 缺少完成摘要：%q", h.stderr.String())
	}

	// 最近一次结果可以被保存并列出。
	if code := h.run("tickets", "save"); code != exitOK {
		t.Fatalf("exit=%d stderr=%s", code, h.stderr.String())
	}
	if code := h.run("tickets", "list"); code != exitOK {
		t.Fatalf("exit=%d", code)
	}
	var list ticketListDoc
	h.decode(&list)
	if len(list.Tickets) != 1 || list.Tickets[0].ID != tk.ID || list.Tickets[0].SavedAt == nil {
		t.Fatalf("票据列表不符合预期：%+v", list)
	}

	if code := h.run("tickets", "show", tk.ID[:8], "--format", "text"); code != exitOK {
		t.Fatalf("exit=%d stderr=%s", code, h.stderr.String())
	}
	if !strings.HasPrefix(h.stdout.String(), "--- SPORTYBET AI PREDICTION TICKET ---\n\nStrategy Used: Accumulator Builder") {
		t.Fatalf("文本格式不符合预期：%q", h.stdout.String())
	}

	if code := h.run("tickets", "rm", tk.ID); code != exitOK {
		t.Fatalf("exit=%d stderr=%s", code, h.stderr.String())
	}
	if code := h.run("tickets", "show", tk.ID); code != exitUsage {
		t.Fatalf("删除后再显示应返回 %d，got=%d", exitUsage, code)
	}
}

func TestAnalyze_ItemFailureIsDataAndExit1(t *testing.T) {
	h := newHarness(t)
	h.model.fail = map[string]bool{"C vs D": true}

	code := h.run("analyze", "--no-summary", "--save", "A vs B", "C vs D")
	if code != exitFailed {
		t.Fatalf("有失败条目时应返回 %d，got=%d", exitFailed, code)
	}
	var tk domain.Ticket
	h.decode(&tk)
	if tk.Summary.Failed != 1 || !tk.Items[1].Error || tk.Items[1].Reasoning.Main != "HTTP 503" {
		t.Fatalf("失败条目不符合预期：%+v", tk.Items)
	}
	if tk.OverallAnalysis != "" || tk.SavedAt == nil {
		t.Fatalf("--no-summary/--save 未生效：%+v", tk)
	}
	if h.model.calls != 2 {
		t.Fatalf("--no-summary 时只应有 2 次调用，got=%d", h.model.calls)
	}
}

func TestAnalyze_Cancelled(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h.ctx = ctx

	if code := h.run("analyze", "A vs B"); code != exitCancelled {
		t.Fatalf("取消应返回 %d，got=%d", exitCancelled, code)
	}
	if h.stdout.Len() != 0 {
		t.Fatalf("取消时 stdout 应为空：%q", h.stdout.String())
	}
	if !strings.Contains(h.stderr.String(), "Analysis was cancelled.") {
		t.Fatalf("stderr 缺少取消提示：%q", h.stderr.String())
	}
}

func TestExitCode_RunLevelErrors(t *testing.T) {
	var buf bytes.Buffer
	if code := exitCode(&buf, runError{err: errors.New("analyzer 不能为空")}); code != exitFailed {
		t.Fatalf("运行失败应返回 %d，got=%d", exitFailed, code)
	}
	if got := buf.String(); !strings.Contains(got, run.GenericErrorMsg) || !strings.Contains(got, "analyzer 不能为空") {
		t.Fatalf("应输出通用文案与原始错误：%q", got)
	}

	buf.Reset()
	err := fmt.Errorf("%w: %w", runner.ErrCancelled, context.Canceled)
	if code := exitCode(&buf, runError{err: err}); code != exitCancelled {
		t.Fatalf("取消应返回 %d，got=%d", exitCancelled, code)
	}
	if got := strings.TrimSpace(buf.String()); got != run.CancelledMsg {
		t.Fatalf("取消只输出取消文案：%q", got)
	}
}

func TestAnalyze_Errors(t *testing.T) {
	h := newHarness(t)
	if code := h.run("analyze"); code != exitUsage {
		t.Fatalf("空列表应返回 %d，got=%d", exitUsage, code)
	}
	if !strings.Contains(h.stderr.String(), "plan_no_matches") {
		t.Fatalf("stderr=%q", h.stderr.String())
	}
	if code := h.run("analyze", "--strategy", "high-reward-single", "A vs B", "C vs D"); code != exitUsage {
		t.Fatalf("单场策略配多场比赛应返回 %d，got=%d", exitUsage, code)
	}
	if code := h.run("analyze", "--format", "xml", "A vs B"); code != exitUsage {
		t.Fatalf("未知格式应返回 %d，got=%d", exitUsage, code)
	}
	if code := h.run("analyze", "--concurrency", "abc"); code != exitUsage {
		t.Fatalf("flag 解析错误应返回 %d，got=%d", exitUsage, code)
	}

	h.env = map[string]string{}
	if code := h.run("analyze", "A vs B"); code != exitFailed {
		t.Fatalf("缺少 API key 应返回 %d，got=%d", exitFailed, code)
	}
	if !strings.Contains(h.stderr.String(), config.ErrCodeMissingAPIKey) {
		t.Fatalf("stderr 缺少错误码：%q", h.stderr.String())
	}
	if h.model.calls != 0 {
		t.Fatalf("校验失败时不应调用模型，calls=%d", h.model.calls)
	}
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("创建图片失败：%v", err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("写入图片失败：%v", err)
	}
}

func TestExtract_MergesIntoList(t *testing.T) {
	h := newHarness(t)
	dir := filepath.Join(h.home, "shots")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	writePNG(t, filepath.Join(dir, "1.png"))
	writePNG(t, filepath.Join(dir, "2.png"))
	h.run("matches", "add", "Roma vs Lazio")

	if code := h.run("extract", dir); code != exitOK {
		t.Fatalf("exit=%d stderr=%s", code, h.stderr.String())
	}
	var doc extractDoc
	h.decode(&doc)
	if len(doc.Images) != 2 || len(doc.Matches) != 4 {
		t.Fatalf("识别结果不符合预期：%+v", doc)
	}
	if len(doc.Added) != 1 || doc.Added[0] != "Arsenal vs Chelsea" || doc.Duplicates != 3 {
		t.Fatalf("合并结果不符合预期：added=%v duplicates=%d", doc.Added, doc.Duplicates)
	}
	if !strings.Contains(h.stderr.String(), "3 duplicate matches were ignored.") {
		t.Fatalf("stderr 缺少重复提示：%q", h.stderr.String())
	}
}

func TestStrategiesAndReset(t *testing.T) {
	h := newHarness(t)
	if code := h.run("strategies"); code != exitOK {
		t.Fatalf("exit=%d", code)
	}
	var doc strategiesDoc
	h.decode(&doc)
	if len(doc.Strategies) != len(domain.Strategies()) || len(doc.Markets) != len(domain.Markets) {
		t.Fatalf("策略列表不符合预期：%+v", doc)
	}

	h.run("matches", "add", "A vs B")
	h.run("analyze", "--save")
	if code := h.run("reset"); code != exitOK {
		t.Fatalf("exit=%d stderr=%s", code, h.stderr.String())
	}
	h.run("matches", "list")
	var ms matchesDoc
	h.decode(&ms)
	if len(ms.Matches) != 0 {
		t.Fatalf("reset 后比赛列表应为空：%v", ms.Matches)
	}
	if code := h.run("tickets", "show", "last"); code != exitFailed {
		t.Fatalf("reset 后不应有最近结果，got=%d", code)
	}
	h.run("tickets", "list")
	var list ticketListDoc
	h.decode(&list)
	if len(list.Tickets) != 1 {
		t.Fatalf("reset 不应删除已保存的票据：%+v", list)
	}
}
