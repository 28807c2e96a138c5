package prompt

import (
	"strings"
	"testing"

	"github.com/John-Robertt/tipster/internal/domain"
)

func TestBuiltin_CoversAllStrategiesInOrder(t *testing.T) {
	r := Builtin()
	all := r.All()
	want := domain.Strategies()
	if len(all) != len(want) {
		t.Fatalf("策略数量不一致：got=%d want=%d", len(all), len(want))
	}
	for i, s := range all {
		if s.ID() != want[i] {
			t.Fatalf("第 %d 个策略不一致：got=%s want=%s", i, s.ID(), want[i])
		}
		if s.Name() == "" || s.Description() == "" {
			t.Fatalf("策略 %s 缺少名称或说明", s.ID())
		}
	}
}

func TestBuild_ContainsMatchAndContract(t *testing.T) {
	r := Builtin()
	for _, id := range domain.Strategies() {
		p := Params{}
		if id.NeedsMarket() {
			p.Market = "Over 2.5 goals"
		}
		got, err := r.Build(id, "  Arsenal vs Chelsea ", p)
		if err != nil {
			t.Fatalf("%s 不期望错误：%v", id, err)
		}
		if !strings.Contains(got, "- Arsenal vs Chelsea\n") {
			t.Fatalf("%s 提示词缺少比赛名：%q", id, got)
		}
		for _, key := range []string{`"conviction"`, `"devils_advocate"`, `"considered_alternatives"`, `"sources"`} {
			if !strings.Contains(got, key) {
				t.Fatalf("%s 提示词缺少字段 %s", id, key)
			}
		}
	}
}

func TestBuild_StrategySpecificText(t *testing.T) {
	r := Builtin()

	got, _ := r.Build(domain.StrategyCautious, "A vs B", Params{})
	if !strings.Contains(got, NoSafeBet) {
		t.Fatalf("CAUTIOUS 应允许 %q", NoSafeBet)
	}

	got, _ = r.Build(domain.StrategyGoalsSpecialist, "A vs B", Params{})
	if strings.Contains(got, "Home win (1)") {
		t.Fatalf("GOALS_SPECIALIST 不应包含胜负市场")
	}
	if !strings.Contains(got, "Both Teams To Score (Yes)") {
		t.Fatalf("GOALS_SPECIALIST 应包含 BTTS")
	}

	got, _ = r.Build(domain.StrategyValueHunter, "A vs B", Params{})
	if !strings.Contains(got, "Booking Points Over 30.5") {
		t.Fatalf("VALUE_HUNTER 应包含完整市场列表")
	}

	got, err := r.Build(domain.StrategyMarketSpecialist, "A vs B", Params{Market: "draw no bet - home"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !strings.Contains(got, `"Draw No Bet – Home"`) {
		t.Fatalf("应使用规范化的 market：%q", got)
	}
}

func TestBuild_Errors(t *testing.T) {
	r := Builtin()
	if _, err := r.Build(domain.StrategyMarketSpecialist, "A vs B", Params{}); err == nil {
		t.Fatalf("缺少 market 应报错")
	}
	if _, err := r.Build(domain.StrategyCautious, "   ", Params{}); err == nil {
		t.Fatalf("空比赛名应报错")
	}
	if _, err := r.Build("NOPE", "A vs B", Params{}); err == nil {
		t.Fatalf("未知策略应报错")
	}
}

func TestNewRegistry_RejectsDuplicates(t *testing.T) {
	if _, err := NewRegistry(cautious, cautious); err == nil {
		t.Fatalf("重复策略应报错")
	}
	if _, err := NewRegistry(nil); err == nil {
		t.Fatalf("nil 策略应报错")
	}
	var zero Registry
	if _, ok := zero.Get(domain.StrategyCautious); ok {
		t.Fatalf("零值 Registry 不应命中")
	}
}

func TestOverall_ListsItems(t *testing.T) {
	got := Overall([]domain.PredictionItem{
		{Match: "A vs B", Prediction: "Over 1.5 goals", Conviction: 4},
		{Match: "C vs D", Prediction: "Home or Draw", Conviction: 5},
	})
	for _, want := range []string{"- A vs B: Over 1.5 goals (Conviction: 4/5)", "- C vs D: Home or Draw (Conviction: 5/5)", "The Banker"} {
		if !strings.Contains(got, want) {
			t.Fatalf("缺少 %q：%q", want, got)
		}
	}
}
