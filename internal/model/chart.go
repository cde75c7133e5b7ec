package model

import "time"

// ChartPoint is one plotted sample: seconds since the chart origin against price.
type ChartPoint struct {
	Seconds float64 `json:"x"`
	Price   float64 `json:"y"`
}

// ChartPoints converts observations of symbol into chart coordinates relative to origin.
// Prices are only converted to float here, at chart scaling time.
func ChartPoints(obs []Observation, origin time.Time, symbol string) []ChartPoint {
	points := make([]ChartPoint, 0, len(obs))
	for _, o := range obs {
		if o.Symbol != symbol {
			continue
		}
		points = append(points, ChartPoint{
			Seconds: o.Time.Sub(origin).Seconds(),
			Price:   o.Price.InexactFloat64(),
		})
	}
	return points
}
