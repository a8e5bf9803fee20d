package decode

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	iface "DetBlur/interface"
	"DetBlur/profile"
)

// accumulator is the shared candidate list of a parallel decode. Workers never touch it;
// merge is the only writer and runs once, after every worker has finished.
type accumulator struct {
	mu    sync.Mutex
	items []iface.Candidate
}

func (a *accumulator) merge(locals [][]iface.Candidate) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, l := range locals {
		a.items = append(a.items, l...)
	}
}

// DecodeParallel decodes each tensor on its own worker, at most workers at a time.
// The result equals DecodeAll for the same input.
func DecodeParallel(ctx context.Context, ts []iface.Tensor, p profile.Profile, width, height, workers int) ([]iface.Candidate, error) {
	if workers <= 1 || len(ts) <= 1 {
		return DecodeAll(ts, p, width, height), nil
	}
	locals := make([][]iface.Candidate, len(ts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, t := range ts {
		i, t := i, t
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			locals[i] = Decode(t, p, width, height)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	acc := &accumulator{}
	acc.merge(locals)
	return acc.items, nil
}
