package ranking

import "routeopt/internal/indicators"

// Verdict is a displayable comparison of two solutions.
type Verdict struct {
	A       indicators.Indicators `json:"a"`
	B       indicators.Indicators `json:"b"`
	Mode    string                `json:"mode"`
	Compare int                   `json:"compare"`
	Better  string                `json:"better"` // "a", "b" or "tie"
}

func Judge(a, b indicators.Indicators) Verdict {
	c := Compare(a, b)
	better := "tie"
	switch {
	case c > 0:
		better = "a"
	case c < 0:
		better = "b"
	}
	return Verdict{A: a, B: b, Mode: ModeOf(a, b).String(), Compare: c, Better: better}
}
