package output

// DefaultAssumptions lists the modeling rules rendered in console reports.
var DefaultAssumptions = []string{
	"Marbles are drawn with replacement; every draw is independent",
	"Each draw risks a fixed fraction of current equity (compounding)",
	"Result of a draw = amount risked x marble multiplier",
	"Equity is not floored at zero; losses beyond equity continue the run",
	"Drawdown is measured from the running equity peak",
}

// GlossaryEntry explains one reported statistic.
type GlossaryEntry struct {
	Term        string
	Description string
	Formula     string
}

// Glossary documents the statistics shown in reports.
var Glossary = []GlossaryEntry{
	{"Total Return", "Dollar gain or loss from the starting equity", "Final Equity - Starting Equity"},
	{"Return %", "Percentage change from the starting equity", "(Final - Start) / Start x 100"},
	{"Expectancy", "Average dollar gain or loss per draw", "Net Result / Draws"},
	{"Average Multiple", "Mean multiplier actually drawn", "Sum of Multipliers / Draws"},
	{"Sharpe Ratio", "Return per unit of volatility, per draw", "Mean Draw Return / StdDev of Draw Returns"},
	{"Max Drawdown", "Largest decline from a running peak", "max((Peak - Equity) / Peak x 100)"},
	{"Win Rate", "Share of draws with a positive multiplier", "Wins / Draws x 100"},
	{"Profit Factor", "Gross profit per unit of gross loss", "Gross Profit / Gross Loss"},
	{"Recovery Factor", "Net profit per unit of maximum drawdown", "Total Return / Max Drawdown"},
	{"Calmar Ratio", "Return % per unit of drawdown % of starting equity", "Return % / Max Drawdown %"},
}
