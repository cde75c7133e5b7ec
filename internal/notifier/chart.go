package notifier

import (
	"fmt"
	"math"
	"strings"

	"StockSentinel/internal/calculator"
	"StockSentinel/internal/model"
)

// DefaultChartWidth is the number of columns the sparkline spans.
const DefaultChartWidth = 60

const smaPeriod = 20

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// Sparkline draws the last width observations, one rune per observation.
func Sparkline(obs []model.Observation, width int) string {
	if width <= 0 {
		width = DefaultChartWidth
	}
	if len(obs) > width {
		obs = obs[len(obs)-width:]
	}
	high, low, err := calculator.PriceRange(obs)
	if err != nil {
		return ""
	}
	var b strings.Builder
	top := len(sparkRunes) - 1
	for _, o := range obs {
		pos, err := calculator.Position(o.Price, high, low)
		if err != nil {
			pos = 0.5
		}
		b.WriteRune(sparkRunes[int(math.Round(pos*float64(top)))])
	}
	return b.String()
}

// FormatChart renders the chart block: price range, moving average, sparkline
// and the time axis in seconds since the chart origin.
func FormatChart(st model.Status, width int) string {
	if width <= 0 {
		width = DefaultChartWidth
	}
	obs := make([]model.Observation, 0, len(st.Observations))
	for _, o := range st.Observations {
		if o.Symbol == st.Symbol {
			obs = append(obs, o)
		}
	}
	if len(obs) == 0 {
		return fmt.Sprintf("%s: no observations yet", st.Symbol)
	}

	high, low, _ := calculator.PriceRange(obs)
	sma, _ := calculator.ObservationSMA(obs, smaPeriod)
	points := model.ChartPoints(obs, st.Origin, st.Symbol)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s  high $%s  low $%s  sma%d $%s\n",
		st.Symbol, high.StringFixed(2), low.StringFixed(2), smaPeriod, sma.StringFixed(2)))
	b.WriteString(Sparkline(obs, width) + "\n")
	first, last := points[0].Seconds, points[len(points)-1].Seconds
	if len(points) > width {
		first = points[len(points)-width].Seconds
	}
	b.WriteString(fmt.Sprintf("%.0fs .. %.0fs (%d points)", first, last, len(points)))
	return b.String()
}
