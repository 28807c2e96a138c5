package prompt

// allMarkets 是 VALUE_HUNTER 等策略允许的完整预测市场列表。
var allMarkets = []string{
	"Home win (1)", "Away win (2)", "Home or Away", "Home or Draw", "Away or Draw",
	"Over 0.5 goals", "Over 1.5 goals", "Over 2.5 goals", "Over 3.5 goals", "Over 4.5 goals",
	"Under 0.5 goals", "Under 1.5 goals", "Under 2.5 goals", "Under 3.5 goals", "Under 4.5 goals",
	"Both Teams To Score (Yes)", "Both Teams To Score (No)",
	"Home Over 0.5 goals", "Home Over 1.5 goals", "Home Over 2.5 goals",
	"Away Over 0.5 goals", "Away Over 1.5 goals", "Away Over 2.5 goals",
	"Handicap Home -1", "Handicap Away -1", "Handicap Home +1", "Handicap Away +1",
	"First Half Home", "First Half Away",
	"First Half Over 0.5", "First Half Over 1.5", "First Half Under 0.5", "First Half Under 1.5",
	"Second Half Home", "Second Half Away",
	"Second Half Over 0.5", "Second Half Over 1.5", "Second Half Under 0.5", "Second Half Under 1.5",
	"Clean Sheet Home (Yes)", "Clean Sheet Away (Yes)",
	"Team To Score First – Home", "Team To Score First – Away",
	"Win To Nil – Home", "Win To Nil – Away",
	"Goal in Both Halves (Yes)", "Goal in Both Halves (No)",
	`Correct Score (e.g., "Correct Score: 1-0")`,
	"Exact Goals – 0 goals", "Exact Goals – 1 goal", "Exact Goals – 2 goals", "Exact Goals – 3 goals", "Exact Goals – 4+ goals",
	"Total Corners Over 7.5", "Total Corners Under 7.5", "Total Corners Over 9.5", "Total Corners Under 9.5",
	"Home Corners Over 4.5", "Away Corners Over 4.5",
	"Booking Points Over 30.5", "Booking Points Over 50.5", "Booking Points Under 30.5",
	"Draw No Bet – Home", "Draw No Bet – Away",
	"Both Halves Over 0.5", "Both Halves Over 1.5",
}

// goalsMarkets 是 GOALS_SPECIALIST 允许的进球类市场。
var goalsMarkets = []string{
	"Over 0.5 goals", "Over 1.5 goals", "Over 2.5 goals", "Over 3.5 goals", "Over 4.5 goals",
	"Under 0.5 goals", "Under 1.5 goals", "Under 2.5 goals", "Under 3.5 goals", "Under 4.5 goals",
	"Both Teams To Score (Yes)", "Both Teams To Score (No)",
	"Home Over 0.5 goals", "Home Over 1.5 goals", "Home Over 2.5 goals",
	"Away Over 0.5 goals", "Away Over 1.5 goals", "Away Over 2.5 goals",
	"First Half Over 0.5", "First Half Over 1.5", "First Half Under 0.5", "First Half Under 1.5",
	"Second Half Over 0.5", "Second Half Over 1.5", "Second Half Under 0.5", "Second Half Under 1.5",
	"Clean Sheet Home (Yes)", "Clean Sheet Away (Yes)",
	"Team To Score First – Home", "Team To Score First – Away",
	"Win To Nil – Home", "Win To Nil – Away",
	"Goal in Both Halves (Yes)", "Goal in Both Halves (No)",
	`Correct Score (e.g., "Correct Score: 2-1")`,
	"Exact Goals – 0 goals", "Exact Goals – 1 goal", "Exact Goals – 2 goals", "Exact Goals – 3 goals", "Exact Goals – 4+ goals",
	"Both Halves Over 0.5", "Both Halves Over 1.5",
}
