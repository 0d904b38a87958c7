package reconcile

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/starford/mdnotion/internal/apperr"
)

// sliceFetch serves items in batches of size using index cursors.
func sliceFetch(items []int, size int, calls *int) FetchFunc[int] {
	return func(_ context.Context, cursor string) (Batch[int], error) {
		*calls++
		start := 0
		if cursor != "" {
			start, _ = strconv.Atoi(cursor)
		}
		end := min(start+size, len(items))
		b := Batch[int]{Items: items[start:end]}
		if end < len(items) {
			b.HasMore, b.NextCursor = true, strconv.Itoa(end)
		}
		return b, nil
	}
}

func TestCollect_DrainsAllBatches(t *testing.T) {
	var calls int
	got, err := Collect(context.Background(), sliceFetch([]int{1, 2, 3, 4, 5}, 2, &calls))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 5 || got[0] != 1 || got[4] != 5 {
		t.Errorf("got %v", got)
	}
	if calls != 3 {
		t.Errorf("fetch calls = %d, want 3", calls)
	}
}

func TestPages_Restartable(t *testing.T) {
	var calls int
	seq := Pages(context.Background(), sliceFetch([]int{1, 2, 3}, 2, &calls))
	for i := 0; i < 2; i++ {
		n := 0
		for b, err := range seq {
			if err != nil {
				t.Fatal(err)
			}
			n += len(b.Items)
		}
		if n != 3 {
			t.Errorf("pass %d saw %d items", i, n)
		}
	}
	if calls != 4 {
		t.Errorf("fetch calls = %d, want 4", calls)
	}
}

func TestPages_BreakStopsFetching(t *testing.T) {
	var calls int
	for range Pages(context.Background(), sliceFetch([]int{1, 2, 3, 4}, 1, &calls)) {
		break
	}
	if calls != 1 {
		t.Errorf("fetch calls = %d, want 1", calls)
	}
}

func TestPages_EmptyCursor(t *testing.T) {
	fetch := func(context.Context, string) (Batch[int], error) {
		return Batch[int]{Items: []int{1}, HasMore: true}, nil
	}
	_, err := Collect(context.Background(), fetch)
	if !errors.Is(err, apperr.ErrPaginationExhausted) {
		t.Errorf("err = %v, want ErrPaginationExhausted", err)
	}
}

func TestPages_RepeatedCursor(t *testing.T) {
	calls := 0
	fetch := func(context.Context, string) (Batch[int], error) {
		calls++
		return Batch[int]{Items: []int{calls}, HasMore: true, NextCursor: "same"}, nil
	}
	_, err := Collect(context.Background(), fetch)
	if !errors.Is(err, apperr.ErrPaginationExhausted) {
		t.Errorf("err = %v, want ErrPaginationExhausted", err)
	}
	if calls != 2 {
		t.Errorf("fetch calls = %d, want 2", calls)
	}
}

func TestPages_FetchError(t *testing.T) {
	boom := errors.New("boom")
	fetch := func(context.Context, string) (Batch[int], error) { return Batch[int]{}, boom }
	if _, err := Collect(context.Background(), fetch); !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
}

func TestPages_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var calls int
	if _, err := Collect(ctx, sliceFetch([]int{1}, 1, &calls)); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
	if calls != 0 {
		t.Errorf("fetch called %d times", calls)
	}
}
