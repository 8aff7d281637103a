package harness

import (
	"fmt"
	"math"
)

// SplitCounts divides total examples by the given proportions, e.g. [85, 15]
// for a train/validation split. Counts are rounded half to even and must add
// up to total; a split whose rounding loses or gains an example is an error.
func SplitCounts(total int, proportions []float64) ([]int, error) {
	if total < 0 {
		return nil, fmt.Errorf("total must be non-negative, got %d", total)
	}
	if len(proportions) == 0 {
		return nil, fmt.Errorf("at least one split proportion required")
	}
	sum := 0.0
	for i, p := range proportions {
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
			return nil, fmt.Errorf("split[%d] must be a finite non-negative number, got %f", i, p)
		}
		sum += p
	}
	if sum == 0 {
		return nil, fmt.Errorf("split proportions must not all be zero")
	}

	counts := make([]int, len(proportions))
	assigned := 0
	for i, p := range proportions {
		counts[i] = int(math.RoundToEven(float64(total) * p / sum))
		assigned += counts[i]
	}
	if assigned != total {
		return nil, fmt.Errorf("split %v of %d examples rounds to %v (sum %d)", proportions, total, counts, assigned)
	}
	return counts, nil
}
