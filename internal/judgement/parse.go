package judgement

import (
	"strconv"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/errors"
)

// ParseJudgements reads the 1-based result positions the user marked as
// relevant. Only digits and spaces are accepted and every position must lie
// in [1, max]. A blank line yields no positions and no error.
func ParseJudgements(line string, max int) ([]int, error) {
	for _, r := range line {
		if (r < '0' || r > '9') && r != ' ' {
			return nil, apperrors.Newf(apperrors.ErrInvalidJudgement, "unexpected character %q", r)
		}
	}
	fields := strings.Fields(line)
	positions := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, apperrors.Newf(apperrors.ErrInvalidJudgement, "%q is not a number", f)
		}
		if n < 1 || n > max {
			return nil, apperrors.Newf(apperrors.ErrInvalidJudgement, "%d is outside 1..%d", n, max)
		}
		positions = append(positions, n)
	}
	return positions, nil
}
