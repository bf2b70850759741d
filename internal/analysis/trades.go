package analysis

import (
	"math"
)

// TradeAnalysis breaks trades down into winners (profit > 0) and losers (profit <= 0).
// For losers, MaxLoss is the most negative result and MinLoss the one closest to zero.
type TradeAnalysis struct {
	TotalTrades   int `json:"total_trades"`
	WinningTrades int `json:"winning_trades"`
	LosingTrades  int `json:"losing_trades"`

	AvgProfit float64 `json:"avg_profit"`
	MaxProfit float64 `json:"max_profit"`
	MinProfit float64 `json:"min_profit"`
	AvgLoss   float64 `json:"avg_loss"`
	MaxLoss   float64 `json:"max_loss"`
	MinLoss   float64 `json:"min_loss"`

	AvgWinningHoldingHours float64 `json:"avg_winning_holding_hours"`
	AvgLosingHoldingHours  float64 `json:"avg_losing_holding_hours"`

	// indexed by exit weekday, 0 = Monday
	ProfitByWeekday [7]float64 `json:"profit_by_weekday"`
	// indexed by exit hour
	ProfitByHour [24]float64 `json:"profit_by_hour"`

	// CurrentStreak is positive for consecutive wins, negative for losses
	CurrentStreak        int `json:"current_streak"`
	MaxConsecutiveWins   int `json:"max_consecutive_wins"`
	MaxConsecutiveLosses int `json:"max_consecutive_losses"`
}

// AnalyzeTrades computes per-bucket statistics, time-of-exit profit and streaks
func (a *Analyzer) AnalyzeTrades() TradeAnalysis {
	ta := TradeAnalysis{TotalTrades: len(a.trades)}
	if len(a.trades) == 0 {
		return ta
	}

	var winSum, lossSum, winHours, lossHours float64
	ta.MaxProfit, ta.MinProfit = math.Inf(-1), math.Inf(1)
	ta.MaxLoss, ta.MinLoss = math.Inf(1), math.Inf(-1)
	streak := 0

	for _, t := range a.trades {
		pl := t.ProfitLoss
		weekday := (int(t.ExitTime.Weekday()) + 6) % 7
		ta.ProfitByWeekday[weekday] += pl
		ta.ProfitByHour[t.ExitTime.Hour()] += pl

		if pl > 0 {
			ta.WinningTrades++
			winSum += pl
			winHours += t.Duration.Hours()
			ta.MaxProfit = math.Max(ta.MaxProfit, pl)
			ta.MinProfit = math.Min(ta.MinProfit, pl)
			if streak > 0 {
				streak++
			} else {
				streak = 1
			}
			if streak > ta.MaxConsecutiveWins {
				ta.MaxConsecutiveWins = streak
			}
		} else {
			ta.LosingTrades++
			lossSum += pl
			lossHours += t.Duration.Hours()
			ta.MaxLoss = math.Min(ta.MaxLoss, pl)
			ta.MinLoss = math.Max(ta.MinLoss, pl)
			if streak < 0 {
				streak--
			} else {
				streak = -1
			}
			if -streak > ta.MaxConsecutiveLosses {
				ta.MaxConsecutiveLosses = -streak
			}
		}
	}
	ta.CurrentStreak = streak

	if ta.WinningTrades > 0 {
		ta.AvgProfit = winSum / float64(ta.WinningTrades)
		ta.AvgWinningHoldingHours = winHours / float64(ta.WinningTrades)
	} else {
		ta.MaxProfit, ta.MinProfit = 0, 0
	}
	if ta.LosingTrades > 0 {
		ta.AvgLoss = lossSum / float64(ta.LosingTrades)
		ta.AvgLosingHoldingHours = lossHours / float64(ta.LosingTrades)
	} else {
		ta.MaxLoss, ta.MinLoss = 0, 0
	}
	return ta
}
