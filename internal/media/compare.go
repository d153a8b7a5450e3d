package media

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseCompareOutput extracts the RMSE score from ImageMagick compare
// output, e.g. "1234.56 (0.0188)". The first token is the score.
func ParseCompareOutput(output string) (float64, error) {
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		score, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			continue
		}
		return score, nil
	}
	return 0, fmt.Errorf("no score in compare output %q", strings.TrimSpace(output))
}
