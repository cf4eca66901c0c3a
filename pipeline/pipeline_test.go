package pipeline

import (
	"context"
	"errors"
	"testing"
)

func TestFromSliceCollect(t *testing.T) {
	p := FromSlice([]int{1, 2, 3})
	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Errorf("expected [1 2 3], got %v", got)
	}
}

func TestForEachVisitsEveryValue(t *testing.T) {
	p := FromSlice([]string{"a", "b", "c"})
	var seen []string
	err := ForEach(context.Background(), p, func(_ context.Context, s string) error {
		seen = append(seen, s)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != 3 {
		t.Errorf("expected 3 visits, got %d", len(seen))
	}
}

func TestDrainStopsOnSinkError(t *testing.T) {
	p := FromSlice([]int{1, 2, 3})
	sinkErr := errors.New("sink exploded")
	calls := 0

	err := Drain(p, func(_ context.Context, n int) error {
		calls++
		if n == 2 {
			return sinkErr
		}
		return nil
	}).Run(context.Background())

	if !errors.Is(err, sinkErr) {
		t.Fatalf("expected sink error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected exactly 2 sink calls before the error, got %d", calls)
	}
}

type closeTrackingIterator struct {
	values []int
	index  int
	closed bool
}

func (it *closeTrackingIterator) Next(_ context.Context) (int, bool, error) {
	if it.index >= len(it.values) {
		return 0, false, nil
	}
	v := it.values[it.index]
	it.index++
	return v, true, nil
}

func (it *closeTrackingIterator) Close() error {
	it.closed = true
	return nil
}

func TestDrainClosesTheSourceIterator(t *testing.T) {
	it := &closeTrackingIterator{values: []int{1, 2}}
	p := From[int](it)

	if err := ForEach(context.Background(), p, func(_ context.Context, _ int) error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !it.closed {
		t.Error("expected the source iterator to be closed after draining")
	}
}

func TestCollectPropagatesIteratorError(t *testing.T) {
	wantErr := errors.New("iterator broke")
	p := FromFunc(func(_ context.Context) Iterator[int] {
		return &failingIterator{err: wantErr}
	})

	_, err := Collect(context.Background(), p)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}
}

type failingIterator struct{ err error }

func (it *failingIterator) Next(_ context.Context) (int, bool, error) {
	return 0, false, it.err
}

func (it *failingIterator) Close() error { return nil }

func TestIterReturnsRawIterator(t *testing.T) {
	p := FromSlice([]int{7})
	it := p.Iter(context.Background())
	defer it.Close()

	v, ok, err := it.Next(context.Background())
	if err != nil || !ok || v != 7 {
		t.Fatalf("expected (7, true, nil), got (%d, %v, %v)", v, ok, err)
	}
}
