package scroll

import (
	"errors"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/devicelab-dev/scroll-runner/pkg/core"
)

func TestIntBetween(t *testing.T) {
	r := NewRand(3)
	for i := 0; i < 1000; i++ {
		if v := intBetween(r, -2, 2); v < -2 || v > 2 {
			t.Fatalf("intBetween(-2, 2) = %d", v)
		}
	}
	if v := intBetween(r, 5, 5); v != 5 {
		t.Errorf("intBetween(5, 5) = %d", v)
	}
}

func TestResolveDirection_ConcretePassesThrough(t *testing.T) {
	r := &seqRand{vals: []int{1}}
	for _, d := range []core.Direction{core.DirectionUp, core.DirectionDown, core.DirectionLeft, core.DirectionRight} {
		if got := resolveDirection(r, d); got != d {
			t.Errorf("resolveDirection(%s) = %s", d, got)
		}
	}
	if r.i != 0 {
		t.Errorf("concrete directions consumed %d draws", r.i)
	}
}

func TestShuffle_Deterministic(t *testing.T) {
	items := []string{"a", "b", "c", "d"}
	// i=3 -> j=0, i=2 -> j=2, i=1 -> j=0
	Shuffle(&seqRand{vals: []int{0, 2, 0}}, len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
	if diff := cmp.Diff([]string{"b", "d", "c", "a"}, items); diff != "" {
		t.Errorf("Shuffle mismatch (-want +got):\n%s", diff)
	}
}

func TestShuffle_IsPermutation(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8}
	Shuffle(NewRand(11), len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
	sort.Ints(items)
	if diff := cmp.Diff([]int{1, 2, 3, 4, 5, 6, 7, 8}, items); diff != "" {
		t.Errorf("Shuffle lost elements (-want +got):\n%s", diff)
	}
}

func TestPickDistinct(t *testing.T) {
	pool := []string{"a", "b", "c", "d", "e"}

	got, err := PickDistinct(NewRand(5), 3, pool)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("picked %d, want 3", len(got))
	}
	seen := map[string]bool{}
	for _, v := range got {
		if seen[v] {
			t.Errorf("duplicate pick %q", v)
		}
		seen[v] = true
	}
	if diff := cmp.Diff([]string{"a", "b", "c", "d", "e"}, pool); diff != "" {
		t.Errorf("pool modified (-want +got):\n%s", diff)
	}
}

func TestPickDistinct_OutOfRange(t *testing.T) {
	for _, k := range []int{-1, 4} {
		if _, err := PickDistinct(NewRand(1), k, []int{1, 2, 3}); !errors.Is(err, core.ErrInvalidRange) {
			t.Errorf("k=%d: expected ErrInvalidRange, got %v", k, err)
		}
	}
	got, err := PickDistinct[int](nil, 0, nil)
	if err != nil || len(got) != 0 {
		t.Errorf("k=0 on empty pool: got %v, %v", got, err)
	}
}
