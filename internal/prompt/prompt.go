// Package prompt 生成发送给模型的提示词：按策略的单场分析、截图识别与整体分析。
package prompt

import (
	"fmt"
	"strings"

	"github.com/John-Robertt/tipster/internal/domain"
)

// NoSafeBet 是 CAUTIOUS 策略找不到足够安全的选项时要求模型给出的固定答案。
const NoSafeBet = "No Safe Bet Found"

// Params 是策略的可选参数。
type Params struct {
	// Market 仅 MARKET_SPECIALIST 使用（已规范化为 domain.Markets 中的写法）。
	Market string
}

// Strategy 把一种分析风格封装为“名称 + 说明 + 提示词模板”。
type Strategy interface {
	ID() domain.Strategy
	Name() string
	Description() string
	Build(match string, p Params) (string, error)
}

const baseAnalysis = `Your analytical process is as follows:
1. **Synthesize Data:** Gather data from multiple sources on form, H2H, player news, and team stats. Do not trust a single source. Cross-reference the information to form a holistic view.
2. **Perform Your Own Analysis:** Based on the synthesized data, perform your own deep analysis. Identify the core strengths and weaknesses of each team. What is the most likely narrative of this match? Is it a high-scoring affair, a tight defensive battle, or a one-sided victory? Your analysis is your own; you do not simply repeat what you find on web pages.`

const jsonContract = `IMPORTANT: Your final output MUST be a single, valid JSON object and nothing else. Do not add any text before or after the JSON object. Do not use markdown backticks. The JSON object must strictly follow this structure:
{
    "match": "The original match name string",
    "prediction": "Your specific prediction string, conforming to the allowed formats for your strategy.",
    "conviction": A number from 1 to 5 (integer) expressing how strongly you back this pick,
    "reasoning": {
        "main": "A concise summary (2-3 sentences) explaining the rationale for your expert, data-driven pick.",
        "devils_advocate": "The single most likely way this pick loses.",
        "considered_alternatives": "Which other markets you considered and why you rejected them."
    },
    "sources": [{"title": "Source page title", "uri": "https://..."}]
}`

type template struct {
	id    domain.Strategy
	name  string
	desc  string
	build func(match string, p Params) (string, error)
}

func (t template) ID() domain.Strategy { return t.id }
func (t template) Name() string        { return t.name }
func (t template) Description() string { return t.desc }

func (t template) Build(match string, p Params) (string, error) {
	match = strings.TrimSpace(match)
	if match == "" {
		return "", fmt.Errorf("match 不能为空")
	}
	return t.build(match, p)
}

func bullets(items []string) string {
	var b strings.Builder
	for i, it := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("   - ")
		b.WriteString(it)
	}
	return b.String()
}

func render(role, task string, match string, steps ...string) string {
	var b strings.Builder
	b.WriteString(role)
	b.WriteString("\n\n")
	b.WriteString(task)
	b.WriteString("\n- ")
	b.WriteString(match)
	b.WriteString("\n\n")
	b.WriteString(baseAnalysis)
	for i, s := range steps {
		fmt.Fprintf(&b, "\n%d. %s", i+3, s)
	}
	b.WriteString("\n\n")
	b.WriteString(jsonContract)
	b.WriteString("\n")
	return b.String()
}

var cautious = template{
	id:   domain.StrategyCautious,
	name: "Accumulator Builder",
	desc: "Finds the safest, highest-probability picks. Ideal for multi-game tickets.",
	build: func(match string, _ Params) (string, error) {
		return render(
			"You are an AI analyst with an extreme, almost paranoid, aversion to risk. Your ONLY objective is to identify a single betting outcome that is so overwhelmingly probable it is almost a certainty. You are not trying to find value or decent odds; you are trying to find the safest possible pick, even if the implied odds are very low.",
			"Analyze the following match:",
			match,
			`**Apply Ultra-Safe Filter:** You must adhere to these strict rules:
   - **DO NOT** predict a specific winner (e.g., "Team A to Win"). This is too risky.
   - **DO NOT** predict an exact score.
   - Your prediction **MUST** come from this exclusive list of ultra-low-risk markets:
     * **Double Chance (e.g., "Home or Draw")**: If a team is overwhelmingly dominant.
     * **Draw No Bet (e.g., "Draw No Bet – Home")**: A very strong alternative to Double Chance.
     * **Over 0.5 Total Goals**: If there is almost no conceivable scenario where the match ends 0-0. This is a primary consideration.
     * **A dominant team to score Over 0.5 Goals (e.g., "Home Over 0.5 goals")**: If a top-tier team is playing a much weaker opponent.
     * **Under [High Number] Goals (e.g., "Under 5.5 goals")**: If both teams are extremely defensive and low-scoring.`,
			`**Honest Assessment:** If, after your deep analysis, you cannot find a single pick that meets these extreme safety standards, your prediction **MUST BE** "`+NoSafeBet+`". In this case, your reasoning should explain why all potential bets carry too much risk.`,
		), nil
	},
}

var valueHunter = template{
	id:   domain.StrategyValueHunter,
	name: "Value Hunter",
	desc: "Searches for picks where the odds seem better than the true probability.",
	build: func(match string, _ Params) (string, error) {
		return render(
			`You are a sharp sports betting analyst AI, an expert at finding "value" bets where the perceived odds are higher than the actual probability.`,
			"Analyze the following match:",
			match,
			"**Identify Value:** Your task is to find a bet that offers good value, not just the most likely outcome. This may involve looking at handicaps, specific goal totals, or other non-mainstream markets if you find a statistical edge. Your reasoning must justify why you believe this is a value bet compared to market expectations.",
			"**Select Prediction Format:** Your final prediction **MUST** be chosen from the following list of allowed formats:\n"+bullets(allMarkets),
		), nil
	},
}

var goalsSpecialist = template{
	id:   domain.StrategyGoalsSpecialist,
	name: "Goals Specialist",
	desc: "Focuses exclusively on goals markets (totals, BTTS, halves, clean sheets).",
	build: func(match string, _ Params) (string, error) {
		return render(
			"You are a specialist sports betting analyst AI with a deep focus on goals markets.",
			"Analyze the following match with the primary goal of finding the most probable goals-related bet:",
			match,
			"**Find the Goals Angle:** Focus your analysis on scoring and defensive capabilities.",
			"**Select Prediction Format:** Your final prediction **MUST** be chosen from this exclusive list of goals-related markets:\n"+bullets(goalsMarkets),
		), nil
	},
}

var highRewardSingle = template{
	id:   domain.StrategyHighRewardSingle,
	name: "High-Reward Single",
	desc: "Finds a plausible, high-odds outcome. Only for single match analysis.",
	build: func(match string, _ Params) (string, error) {
		return render(
			"You are a bold but disciplined sports betting analyst AI. Your objective is to find one high-odds outcome for a single match that is genuinely plausible, not a lottery ticket.",
			"Analyze the following match:",
			match,
			"**Find the Upside:** Look for an outcome the market underrates: an underdog result, a handicap, a correct score, or a specific goals line. The pick must be supported by concrete evidence from your analysis.",
			"**Stay Plausible:** Do not pick an outcome you would rate below 15% likely. Set the conviction honestly; a high-reward pick rarely deserves more than 3.",
			"**Select Prediction Format:** Your final prediction **MUST** be chosen from the following list of allowed formats:\n"+bullets(allMarkets),
		), nil
	},
}

var marketSpecialist = template{
	id:   domain.StrategyMarketSpecialist,
	name: "Market Specialist",
	desc: "You choose the market, the AI finds the best pick within it.",
	build: func(match string, p Params) (string, error) {
		market, err := domain.ParseMarket(p.Market)
		if err != nil {
			return "", fmt.Errorf("%s 需要有效的 market：%w", domain.StrategyMarketSpecialist, err)
		}
		return render(
			fmt.Sprintf("You are a sports betting analyst AI who specialises in one market: %q.", market),
			"Analyze the following match strictly through the lens of that market:",
			match,
			fmt.Sprintf("**Judge the Market:** Decide whether %q is a sound pick for this match. Consider the closely related lines of the same market family when they are clearly better.", market),
			fmt.Sprintf("**Select Prediction Format:** Your prediction **MUST** be %q or a line of the same market family. Use the conviction score to express how strongly the data supports it; a low conviction is the correct answer when the market is a poor fit.", market),
		), nil
	},
}
