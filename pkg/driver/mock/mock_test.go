package mock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/devicelab-dev/scroll-runner/pkg/core"
	"github.com/devicelab-dev/scroll-runner/pkg/scroll"
)

func TestNew_Defaults(t *testing.T) {
	info := New(Config{}).GetPlatformInfo()
	if info.Platform != "mock" || info.DeviceID != "mock-device" {
		t.Errorf("unexpected platform info %+v", info)
	}
}

func TestAgent_AssertHoldsAfterScrolls(t *testing.T) {
	ctx := context.Background()
	a := New(Config{VisibleAfter: map[string]int{"footer": 2}})

	if err := a.Assert(ctx, "footer"); !core.IsAssertion(err) {
		t.Fatalf("expected assertion error before scrolling, got %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := a.Scroll(ctx, core.ScrollRequest{Direction: core.DirectionDown}); err != nil {
			t.Fatal(err)
		}
	}
	if err := a.Assert(ctx, "footer"); err != nil {
		t.Errorf("expected footer to hold after 2 scrolls, got %v", err)
	}
	if err := a.Assert(ctx, "unknown"); !core.IsAssertion(err) {
		t.Errorf("unknown predicate must never hold, got %v", err)
	}
}

func TestAgent_FailOnScroll(t *testing.T) {
	ctx := context.Background()
	a := New(Config{FailOnScroll: 2})

	if err := a.Scroll(ctx, core.ScrollRequest{}); err != nil {
		t.Fatalf("scroll 1: %v", err)
	}
	if err := a.Scroll(ctx, core.ScrollRequest{}); err == nil {
		t.Fatal("scroll 2 should fail")
	}
	if a.ScrollCount() != 1 {
		t.Errorf("ScrollCount() = %d, want 1", a.ScrollCount())
	}
}

func TestAgent_QueryPages(t *testing.T) {
	ctx := context.Background()
	a := New(Config{Pages: [][]interface{}{{"a"}, {"b"}}})

	var got []interface{}
	for i := 0; i < 3; i++ {
		page, err := a.Query(ctx, "names")
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, page.([]interface{})...)
		_ = a.Scroll(ctx, core.ScrollRequest{})
	}
	if diff := cmp.Diff([]interface{}{"a", "b", "b"}, got); diff != "" {
		t.Errorf("pages mismatch (-want +got):\n%s", diff)
	}
}

func TestAgent_StepDelayHonoursContext(t *testing.T) {
	a := New(Config{StepDelay: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := a.Scroll(ctx, core.ScrollRequest{}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(a.Calls()) != 0 {
		t.Error("cancelled call must not be recorded")
	}
}

func TestAgent_DrivesCollect(t *testing.T) {
	a := New(Config{
		Pages:        [][]interface{}{{}, {"a", "b"}, {"b", "c"}, {"c"}},
		VisibleAfter: map[string]int{"end of list": 3},
	})

	result, err := scroll.Collect(context.Background(), a, scroll.CollectOptions{
		Options: scroll.Options{StopWhen: "end of list", MaxIterations: 10},
		What:    "names",
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]interface{}{"a", "b", "c"}, result.Items); diff != "" {
		t.Errorf("Items mismatch (-want +got):\n%s", diff)
	}
	if result.Steps != 3 || a.ScrollCount() != 3 {
		t.Errorf("Steps = %d, scrolls = %d, want 3", result.Steps, a.ScrollCount())
	}

	a.Reset()
	if a.ScrollCount() != 0 || len(a.Calls()) != 0 {
		t.Error("Reset did not clear state")
	}
}
