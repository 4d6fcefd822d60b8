// Package result is the load state of a page section: Loading, Error or Ready.
package result

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/papaburgs/spacegui/internal/spacetraders"
)

type State int

const (
	Loading State = iota
	Error
	Ready
)

func (s State) String() string {
	switch s {
	case Error:
		return "error"
	case Ready:
		return "ready"
	default:
		return "loading"
	}
}

// Result carries either Data (Ready) or Detail (Error).
type Result[T any] struct {
	State  State
	Detail string
	Data   T
}

func Pending[T any]() Result[T] {
	return Result[T]{State: Loading}
}

func Of[T any](v T) Result[T] {
	return Result[T]{State: Ready, Data: v}
}

// Failed keeps the user-facing detail of err.
func Failed[T any](err error) Result[T] {
	return Result[T]{State: Error, Detail: spacetraders.DetailOf(err)}
}

// From picks Failed or Of depending on err.
func From[T any](v T, err error) Result[T] {
	if err != nil {
		return Failed[T](err)
	}
	return Of(v)
}

func (r Result[T]) IsLoading() bool { return r.State == Loading }
func (r Result[T]) IsError() bool   { return r.State == Error }
func (r Result[T]) IsReady() bool   { return r.State == Ready }

// Gather runs loaders concurrently and waits for all of them. The first
// failure cancels the others and is returned.
func Gather(ctx context.Context, loaders ...func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, load := range loaders {
		g.Go(func() error {
			return load(gctx)
		})
	}
	return g.Wait()
}

// Into wraps a typed load so its value lands in dst. Use with Gather.
func Into[T any](dst *T, load func(context.Context) (T, error)) func(context.Context) error {
	return func(ctx context.Context) error {
		v, err := load(ctx)
		if err != nil {
			return err
		}
		*dst = v
		return nil
	}
}
