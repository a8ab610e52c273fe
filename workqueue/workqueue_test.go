/*
NAME
  workqueue_test.go

DESCRIPTION
  workqueue_test.go contains tests for the workqueue package.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package workqueue

import (
	"errors"
	"sync/atomic"
	"testing"
)

func TestBarrier(t *testing.T) {
	q := New(4)
	defer q.Close()

	var n int64
	for i := 0; i < 100; i++ {
		q.Push(func() error {
			atomic.AddInt64(&n, 1)
			return nil
		})
	}
	if err := q.Wait(); err != nil {
		t.Fatalf("unexpected error from Wait: %v", err)
	}
	if n != 100 {
		t.Errorf("ran %d tasks, want 100", n)
	}
}

func TestBatchReuse(t *testing.T) {
	q := New(2)
	defer q.Close()

	var n int64
	for batch := 0; batch < 5; batch++ {
		for i := 0; i < 10; i++ {
			q.Push(func() error {
				atomic.AddInt64(&n, 1)
				return nil
			})
		}
		if err := q.Wait(); err != nil {
			t.Fatalf("batch %d: unexpected error: %v", batch, err)
		}
		if got := atomic.LoadInt64(&n); got != int64((batch+1)*10) {
			t.Errorf("batch %d: ran %d tasks, want %d", batch, got, (batch+1)*10)
		}
	}
}

func TestNestedPush(t *testing.T) {
	q := New(3)
	defer q.Close()

	var n int64
	for i := 0; i < 8; i++ {
		q.Push(func() error {
			q.Push(func() error {
				atomic.AddInt64(&n, 1)
				return nil
			})
			atomic.AddInt64(&n, 1)
			return nil
		})
	}
	if err := q.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 16 {
		t.Errorf("ran %d tasks, want 16", n)
	}
}

func TestErrorPropagation(t *testing.T) {
	q := New(2)
	defer q.Close()

	boom := errors.New("boom")
	for i := 0; i < 4; i++ {
		i := i
		q.Push(func() error {
			if i == 2 {
				return boom
			}
			return nil
		})
	}
	if err := q.Wait(); !errors.Is(err, boom) {
		t.Errorf("Wait error = %v, want %v", err, boom)
	}
	// The error must not leak into the next batch.
	q.Push(func() error { return nil })
	if err := q.Wait(); err != nil {
		t.Errorf("second batch error = %v, want nil", err)
	}
}
