package scroll

import (
	"context"
	"strings"

	"github.com/devicelab-dev/scroll-runner/pkg/core"
)

// fakeAgent implements core.Agent and records every call in order.
type fakeAgent struct {
	scrollFunc func(n int, req core.ScrollRequest) error
	assertFunc func(n int, predicate string) error
	queryFunc  func(n int, prompt string) (interface{}, error)

	scrolls []core.ScrollRequest
	asserts []string
	queries []string
	calls   []string
}

func (f *fakeAgent) Scroll(_ context.Context, req core.ScrollRequest) error {
	f.scrolls = append(f.scrolls, req)
	f.calls = append(f.calls, "scroll")
	if f.scrollFunc != nil {
		return f.scrollFunc(len(f.scrolls), req)
	}
	return nil
}

func (f *fakeAgent) Assert(_ context.Context, predicate string) error {
	f.asserts = append(f.asserts, predicate)
	f.calls = append(f.calls, "assert")
	if f.assertFunc != nil {
		return f.assertFunc(len(f.asserts), predicate)
	}
	return core.ErrAssertionFailed
}

func (f *fakeAgent) Query(_ context.Context, prompt string) (interface{}, error) {
	f.queries = append(f.queries, prompt)
	f.calls = append(f.calls, "query")
	if f.queryFunc != nil {
		return f.queryFunc(len(f.queries), prompt)
	}
	return []interface{}{}, nil
}

func (f *fakeAgent) callOrder() string {
	return strings.Join(f.calls, ",")
}

// holdsFrom makes the n-th and later assertions pass.
func holdsFrom(n int) func(int, string) error {
	return func(call int, _ string) error {
		if call >= n {
			return nil
		}
		return core.ErrAssertionFailed
	}
}

// seqRand replays a fixed sequence, reduced modulo n.
type seqRand struct {
	vals []int
	i    int
}

func (s *seqRand) Intn(n int) int {
	v := s.vals[s.i%len(s.vals)] % n
	s.i++
	return v
}
