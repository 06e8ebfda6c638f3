package output

import (
	"bufio"
	"io"
	"strconv"

	"github.com/inodb/goutil/internal/embed"
)

// WriteCoordinates writes "term x y" rows with three decimals.
func WriteCoordinates(w io.Writer, e *embed.Embedding) error {
	bw := bufio.NewWriter(w)
	for i, term := range e.Terms {
		line := term
		for c := 0; c < embed.Dims; c++ {
			line += "\t" + strconv.FormatFloat(e.Coords.At(i, c), 'f', 3, 64)
		}
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteClusters writes "term cluster medoid" rows, where medoid is true for
// the representative term of each cluster.
func WriteClusters(w io.Writer, terms []string, c *embed.Clustering) error {
	bw := bufio.NewWriter(w)
	for i, term := range terms {
		line := term + "\t" + strconv.Itoa(c.Labels[i]) + "\t" + strconv.FormatBool(c.IsMedoid(i)) + "\n"
		if _, err := bw.WriteString(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}
