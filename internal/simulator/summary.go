/*

This file derives the whale position summary from a finished record sequence:
the position value on the last buy-phase day and at fixed offsets after it.

*/

package simulator

import (
	"github.com/subtensor-labs/taosim/internal/amm"
	"github.com/subtensor-labs/taosim/internal/types"
)

// Summary reports the whale position at the end of the buy phase and 30, 60
// and 120 days later. Checkpoints past the end of the run are clamped to the
// last recorded day. The valuation always uses the alpha accumulated by the
// buy-end day, marked against the reserves of the checkpoint day.
//
// When the run has no buy phase, or it ends before the buy phase does, every
// value field is zero; TaoSpent still reports the whale's full planned spend.
func Summary(params types.SimulationParams, records []types.DayRecord) types.WhaleSummary {
	summary := types.WhaleSummary{
		TaoSpent: float64(params.BuyDays) * params.WhaleDailyBuyTao,
	}

	buyEnd := params.BuyDays - 1
	if buyEnd < 0 || buyEnd >= len(records) {
		return summary
	}

	alphaBought := records[buyEnd].WhaleAlpha
	summary.ValueAtBuyEnd = positionValueAt(records, buyEnd, alphaBought)
	summary.ValueAfter30d = positionValueAt(records, buyEnd+30, alphaBought)
	summary.ValueAfter60d = positionValueAt(records, buyEnd+60, alphaBought)
	summary.ValueAfter120d = positionValueAt(records, buyEnd+120, alphaBought)
	return summary
}

// positionValueAt marks alphaAmount to market against the reserves recorded
// on the given day, clamping the day to the end of the run.
func positionValueAt(records []types.DayRecord, day int, alphaAmount float64) float64 {
	if day > len(records)-1 {
		day = len(records) - 1
	}
	record := records[day]
	return amm.QuoteOut(record.AlphaReserve, record.TaoReserve, alphaAmount)
}
