package risk

import (
	"fmt"
	"math"
	"strconv"

	"github.com/flightrisk/flightrisk/internal/history"
)

// ProbabilityRange is a percentage range rendered as "min-max%".
type ProbabilityRange struct {
	Min float64
	Max float64

	// Decimals is the number of decimal places shown.
	Decimals int
}

// String renders the range, dropping trailing zeros.
func (r ProbabilityRange) String() string {
	return formatPercent(r.Min, r.Decimals) + "-" + formatPercent(r.Max, r.Decimals) + "%"
}

// MarshalText renders the range as its string form.
func (r ProbabilityRange) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func formatPercent(v float64, decimals int) string {
	p := math.Pow10(decimals)
	return strconv.FormatFloat(math.Round(v*p)/p, 'f', -1, 64)
}

// Probabilities are the delay and cancellation estimates.
type Probabilities struct {
	Delay        ProbabilityRange
	Cancellation ProbabilityRange

	// FromHistory is false when the static table was used.
	FromHistory bool

	// DelayUpperUnclamped is the delay upper bound before clamping to 100.
	// Zero when FromHistory is false.
	DelayUpperUnclamped float64
}

const (
	delayDecimals        = 0
	cancellationDecimals = 1

	minBaseDelay    = 5.0
	minModifier     = 0.5
	rangeLow        = 0.8
	rangeHigh       = 1.2
	delayFloor      = 1.0
	cancelFloor     = 0.1
	probabilityCeil = 100.0
)

var staticDelay = map[Level]ProbabilityRange{
	LevelLow:    {Min: 5, Max: 15, Decimals: delayDecimals},
	LevelMedium: {Min: 20, Max: 35, Decimals: delayDecimals},
	LevelHigh:   {Min: 40, Max: 60, Decimals: delayDecimals},
}

var staticCancellation = map[Level]ProbabilityRange{
	LevelLow:    {Min: 0.5, Max: 2, Decimals: cancellationDecimals},
	LevelMedium: {Min: 2, Max: 6, Decimals: cancellationDecimals},
	LevelHigh:   {Min: 6, Max: 12, Decimals: cancellationDecimals},
}

// EstimateProbabilities derives probability ranges. With history they are
// scaled from the observed rates by the component modifiers; without it they
// come from a static table keyed on level.
func EstimateProbabilities(p *history.Performance, c Components, level Level) (Probabilities, error) {
	if !p.Available() {
		return staticProbabilities(level), nil
	}
	return estimateFromHistory(p, c)
}

func staticProbabilities(level Level) Probabilities {
	d, ok := staticDelay[level]
	if !ok {
		d = staticDelay[LevelMedium]
	}
	x, ok := staticCancellation[level]
	if !ok {
		x = staticCancellation[LevelMedium]
	}
	return Probabilities{Delay: d, Cancellation: x}
}

func estimateFromHistory(p *history.Performance, c Components) (Probabilities, error) {
	baseDelay := math.Max(100-p.OnTimePercent, minBaseDelay)
	baseCancel := p.CancellationRate

	modifier := 1 +
		(c.Weather-10)/20 +
		(c.Complexity-6.5)/13.5 +
		(c.Connections-7.5)/15
	// All-low itineraries drive the raw sum negative.
	modifier = math.Max(modifier, minModifier)

	delay := baseDelay * modifier
	cancel := baseCancel * modifier
	if !finite(delay) || !finite(cancel) {
		return Probabilities{}, fmt.Errorf("%w: probability estimate is not finite", ErrComputation)
	}

	delayMin := math.Max(delay*rangeLow, delayFloor)
	delayMax := math.Max(delay*rangeHigh, delayFloor)
	cancelMin := math.Max(cancel*rangeLow, cancelFloor)
	cancelMax := math.Max(cancel*rangeHigh, cancelFloor)

	return Probabilities{
		Delay: ProbabilityRange{
			Min:      clampPercent(delayMin),
			Max:      clampPercent(delayMax),
			Decimals: delayDecimals,
		},
		Cancellation: ProbabilityRange{
			Min:      clampPercent(cancelMin),
			Max:      clampPercent(cancelMax),
			Decimals: cancellationDecimals,
		},
		FromHistory:         true,
		DelayUpperUnclamped: delayMax,
	}, nil
}

func clampPercent(v float64) float64 {
	return math.Max(0, math.Min(probabilityCeil, v))
}
