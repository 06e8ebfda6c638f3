// Package semsim computes Resnik and Lin semantic similarity between
// ontology terms from their information content.
package semsim

import (
	"errors"
	"fmt"
)

// ErrUnknownMetric is returned by ParseMetric for an unsupported name.
var ErrUnknownMetric = errors.New("the similarity metric must be one of [Resnik, Lin]")

// Metric selects the similarity measure.
type Metric int

const (
	Resnik Metric = iota + 1
	Lin
)

// ParseMetric parses "Resnik" or "Lin".
func ParseMetric(s string) (Metric, error) {
	switch s {
	case "Resnik":
		return Resnik, nil
	case "Lin":
		return Lin, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMetric, s)
}

func (m Metric) String() string {
	switch m {
	case Resnik:
		return "Resnik"
	case Lin:
		return "Lin"
	}
	return fmt.Sprintf("Metric(%d)", int(m))
}
