package chunk

import (
	"context"
	"io"
)

// Prefetch wraps src with a bounded read-ahead of depth chunks. Order is
// preserved; the reader goroutine stops at the first error from src or
// when the returned Source is closed. A depth <= 0 disables read-ahead
// and returns src unchanged.
//
// The wrapper owns src: closing the wrapper closes src.
func Prefetch(src Source, depth int) Source {
	if depth <= 0 {
		return src
	}
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan fetched, depth)
	go func() {
		defer close(ch)
		for {
			text, err := src.Next(ctx)
			select {
			case ch <- fetched{text: text, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return &prefetchSource{ch: ch, stop: cancel, src: src}
}

type fetched struct {
	text string
	err  error
}

type prefetchSource struct {
	ch   <-chan fetched
	stop context.CancelFunc
	src  Source
	err  error
	done bool
}

func (p *prefetchSource) Next(ctx context.Context) (string, error) {
	if p.done {
		return "", p.err
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case item, ok := <-p.ch:
		if !ok {
			p.done = true
			p.err = io.EOF
			return "", io.EOF
		}
		if item.err != nil {
			p.done = true
			p.err = item.err
			return "", item.err
		}
		return item.text, nil
	}
}

func (p *prefetchSource) Close() error {
	p.stop()
	return p.src.Close()
}
