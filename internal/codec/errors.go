package codec

import (
	"errors"
	"fmt"
)

// InvalidIntensity is raised when encoding input contains a negative
// intensity (spec.md §4.A, §7).
type InvalidIntensity struct {
	Bin   int
	Value int
}

func (e *InvalidIntensity) Error() string {
	return fmt.Sprintf("CODEC > negative intensity %d at bin %d", e.Value, e.Bin)
}

var (
	errTruncatedLiteral = errors.New("CODEC > truncated literal run in compressed blob")
	errTruncatedMatch   = errors.New("CODEC > truncated back-reference in compressed blob")
	errBadBackReference = errors.New("CODEC > back-reference points before start of output")
)
