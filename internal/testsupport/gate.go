package testsupport

import (
	"context"
	"sync"
)

// gates blocks calls keyed by name until the test opens them.
type gates struct {
	mu    sync.Mutex
	byKey map[string]chan struct{}
}

func (g *gates) hold(key string) func() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.byKey == nil {
		g.byKey = make(map[string]chan struct{})
	}
	ch := make(chan struct{})
	g.byKey[key] = ch
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			if g.byKey[key] == ch {
				delete(g.byKey, key)
			}
			g.mu.Unlock()
			close(ch)
		})
	}
}

func (g *gates) wait(ctx context.Context, key string) error {
	g.mu.Lock()
	ch := g.byKey[key]
	g.mu.Unlock()
	if ch == nil {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func signal(ch chan string, key string) {
	select {
	case ch <- key:
	default:
	}
}
