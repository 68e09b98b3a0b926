package execution

import (
	"math"

	"github.com/shopspring/decimal"
)

func decFromFloat(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

func decToFloat(v decimal.Decimal) float64 {
	f, _ := v.Float64()
	return f
}

// priceOffset returns entry shifted by distance in the profit (or loss)
// direction for the given side: sign +1 moves with the trade, -1 against.
func priceOffset(entry, distance float64, side sideSign) float64 {
	e := decFromFloat(entry)
	d := decFromFloat(distance)
	if side < 0 {
		return decToFloat(e.Sub(d))
	}
	return decToFloat(e.Add(d))
}

type sideSign int

const (
	withTrade    sideSign = 1
	againstTrade sideSign = -1
)

// floorToStep rounds v down to a multiple of step (step > 0).
func floorToStep(v, step float64) float64 {
	if step <= 0 || v <= 0 {
		return 0
	}
	d := decFromFloat(v)
	s := decFromFloat(step)
	return decToFloat(d.Div(s).Floor().Mul(s))
}

// floorToPlaces rounds v down at the given number of decimal places.
func floorToPlaces(v float64, places int32) float64 {
	if v <= 0 {
		return 0
	}
	return decToFloat(decFromFloat(v).RoundFloor(places))
}
