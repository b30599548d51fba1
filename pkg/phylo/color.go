package phylo

import (
	"github.com/lucasb-eyer/go-colorful"
)

// Support colors.
const (
	ColorNoSupport   = "#000000"
	ColorZeroSupport = "#FF1919"
	gradientFrom     = "#3270FC"
	gradientTo       = "#397D02"
	gradientSteps    = 100
)

var supportGradient = buildGradient(gradientFrom, gradientTo, gradientSteps)

func buildGradient(from, to string, steps int) []string {
	a, _ := colorful.Hex(from)
	b, _ := colorful.Hex(to)
	out := make([]string, steps)
	for i := range out {
		out[i] = a.BlendHsv(b, float64(i)/float64(steps-1)).Clamped().Hex()
	}
	return out
}

// SupportColor returns the outline color for a node with the given support
// percentage: black without support, red at 0%, and otherwise a blue to
// green gradient. Percentages outside 1..100 are clamped.
func SupportColor(support *int) string {
	switch {
	case support == nil:
		return ColorNoSupport
	case *support == 0:
		return ColorZeroSupport
	}
	i := min(max(*support, 1), gradientSteps)
	return supportGradient[i-1]
}
