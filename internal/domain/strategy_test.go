package domain

import "testing"

func TestParseStrategy(t *testing.T) {
	cases := map[string]Strategy{
		"CAUTIOUS":           StrategyCautious,
		"value-hunter":       StrategyValueHunter,
		" goals specialist ": StrategyGoalsSpecialist,
		"High_Reward_Single": StrategyHighRewardSingle,
		"market-specialist":  StrategyMarketSpecialist,
	}
	for in, want := range cases {
		got, err := ParseStrategy(in)
		if err != nil {
			t.Fatalf("%q 不期望错误：%v", in, err)
		}
		if got != want {
			t.Fatalf("%q 期望 %q，实际 %q", in, want, got)
		}
	}

	if _, err := ParseStrategy("yolo"); err == nil {
		t.Fatalf("未知策略应报错")
	}
	if _, err := ParseStrategy("  "); err == nil {
		t.Fatalf("空策略应报错")
	}
}

func TestParseMarket_NormalizesDashAndCase(t *testing.T) {
	got, err := ParseMarket("draw no bet - home")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if got != "Draw No Bet – Home" {
		t.Fatalf("期望规范写法，实际 %q", got)
	}
	if _, err := ParseMarket("Anytime Goalscorer"); err == nil {
		t.Fatalf("未知市场应报错")
	}
}

func TestStrategyFlags(t *testing.T) {
	if !StrategyMarketSpecialist.NeedsMarket() || StrategyCautious.NeedsMarket() {
		t.Fatalf("NeedsMarket 不符合预期")
	}
	if !StrategyHighRewardSingle.SingleMatchOnly() || StrategyValueHunter.SingleMatchOnly() {
		t.Fatalf("SingleMatchOnly 不符合预期")
	}
}
