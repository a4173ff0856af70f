package kernel

import (
	"runtime"
	"sync"
	"testing"
)

func TestArrayQueuePopEmpty(t *testing.T) {
	q := NewArrayQueue[int](4)

	_, ok := q.Pop()
	if ok {
		t.Fatalf("Pop() ok = true, want false")
	}
	if !q.IsEmpty() {
		t.Fatalf("IsEmpty() = false, want true")
	}
}

func TestArrayQueuePushFull(t *testing.T) {
	const capacity = 8
	q := NewArrayQueue[int](capacity)

	for i := 0; i < capacity; i++ {
		if ok := q.Push(i); !ok {
			t.Fatalf("Push() ok = false at slot %d, want true", i)
		}
	}
	if ok := q.Push(99); ok {
		t.Fatalf("Push() ok = true when full, want false")
	}
	if got := q.Len(); got != capacity {
		t.Fatalf("Len() = %d, want %d", got, capacity)
	}

	for i := 0; i < capacity; i++ {
		v, ok := q.Pop()
		if !ok {
			t.Fatalf("Pop() ok = false at slot %d, want true", i)
		}
		if v != i {
			t.Fatalf("Pop() = %d, want %d", v, i)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Fatalf("Pop() ok = true after drain, want false")
	}
}

func TestArrayQueueWrapsAround(t *testing.T) {
	q := NewArrayQueue[uint8](3)

	for round := 0; round < 10; round++ {
		for i := 0; i < 2; i++ {
			if !q.Push(uint8(round*2 + i)) {
				t.Fatalf("round %d: Push() failed", round)
			}
		}
		for i := 0; i < 2; i++ {
			v, ok := q.Pop()
			if !ok || v != uint8(round*2+i) {
				t.Fatalf("round %d: Pop() = %d, %v, want %d, true", round, v, ok, round*2+i)
			}
		}
	}
}

func TestArrayQueueConcurrentProducers(t *testing.T) {
	oldProcs := runtime.GOMAXPROCS(4)
	defer runtime.GOMAXPROCS(oldProcs)

	const (
		producers = 4
		perProd   = 10_000
		total     = producers * perProd
	)

	q := NewArrayQueue[uint32](128)

	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(producers)
	for producerID := 0; producerID < producers; producerID++ {
		go func(producerID int) {
			defer wg.Done()
			<-start
			for i := 0; i < perProd; i++ {
				id := uint32(producerID*perProd + i)
				for !q.Push(id) {
					runtime.Gosched()
				}
			}
		}(producerID)
	}
	close(start)

	seen := make([]bool, total)
	last := make([]int, producers)
	for i := range last {
		last[i] = -1
	}
	for i := 0; i < total; {
		id, ok := q.Pop()
		if !ok {
			runtime.Gosched()
			continue
		}
		if int(id) >= total {
			t.Fatalf("Pop() id = %d, want < %d", id, total)
		}
		if seen[id] {
			t.Fatalf("Pop() duplicate id %d", id)
		}
		seen[id] = true

		// Values from a single producer keep their push order.
		p, seq := int(id)/perProd, int(id)%perProd
		if seq <= last[p] {
			t.Fatalf("producer %d: got seq %d after %d", p, seq, last[p])
		}
		last[p] = seq
		i++
	}

	wg.Wait()
}

func TestNewArrayQueueRejectsZeroCapacity(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for zero capacity")
		}
	}()
	_ = NewArrayQueue[int](0)
}
