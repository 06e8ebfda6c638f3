package semsim

import (
	"context"
	"runtime"
	"sync"

	"go.uber.org/zap"
)

// progressEvery is the number of rows between progress log lines.
const progressEvery = 1000

// Pair is a scored pair of term indices with I < J in list order.
type Pair struct {
	I, J  int
	Score float64
}

// WorkItem is one row of the pairwise computation: term Row against every
// term in Partners.
type WorkItem struct {
	Seq      int
	Row      int
	Partners []int
}

// WorkResult holds the positive-scoring pairs of a single row.
type WorkResult struct {
	Seq   int
	Pairs []Pair
}

// ParallelScore scores work items using a pool of workers.
// Results are sent to the returned channel in arrival order (not sequence order).
// Use OrderedCollect to consume results in sequence-number order.
// If workers is 0, runtime.NumCPU() is used.
func (e *Engine) ParallelScore(items <-chan WorkItem, metric Metric, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()
			for item := range items {
				results <- WorkResult{
					Seq:   item.Seq,
					Pairs: e.scoreRow(item.Row, item.Partners, metric),
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

func (e *Engine) scoreRow(row int, partners []int, metric Metric) []Pair {
	var pairs []Pair
	for _, j := range partners {
		if s := e.Similarity(row, j, metric); s > 0 {
			pairs = append(pairs, Pair{I: row, J: j, Score: s})
		}
	}
	return pairs
}

// OrderedCollect calls fn for each result in sequence-number order.
// It buffers out-of-order results in a pending map and emits them
// as soon as the next expected sequence number is available.
// Blocks until the results channel is closed.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	pending := make(map[int]WorkResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Drain remaining results to unblock workers.
				for range results {
				}
				return err
			}
		}
	}

	return nil
}

// Pairs scores every pair (terms[a], terms[b]) with a < b and calls emit for
// those with a positive score, in row-major order. terms should already be
// restricted to informative terms.
func (e *Engine) Pairs(ctx context.Context, terms []int, metric Metric, workers int, emit func(Pair) error) error {
	e.Prepare(terms)

	feedCtx, stop := context.WithCancel(ctx)
	defer stop()

	items := make(chan WorkItem)
	go func() {
		defer close(items)
		for a := 0; a+1 < len(terms); a++ {
			select {
			case items <- WorkItem{Seq: a, Row: terms[a], Partners: terms[a+1:]}:
			case <-feedCtx.Done():
				return
			}
		}
	}()

	err := OrderedCollect(e.ParallelScore(items, metric, workers), func(r WorkResult) error {
		if done := r.Seq + 1; done%progressEvery == 0 {
			e.logger.Debug("similarity rows scored",
				zap.Int("rows", done),
				zap.Int("total", len(terms)-1))
		}
		for _, p := range r.Pairs {
			if err := emit(p); err != nil {
				stop()
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return ctx.Err()
}
