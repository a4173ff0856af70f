package kernel

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingWaker struct{ n atomic.Int32 }

func (w *countingWaker) Wake() { w.n.Add(1) }

func TestAtomicWakerWakeWithoutRegistration(t *testing.T) {
	var a AtomicWaker
	a.Wake()
	assert.Nil(t, a.Take())
}

func TestAtomicWakerWakeConsumesRegistration(t *testing.T) {
	var a AtomicWaker
	w := &countingWaker{}

	a.Register(w)
	a.Wake()
	a.Wake()

	assert.EqualValues(t, 1, w.n.Load())
}

func TestAtomicWakerReRegisterReplaces(t *testing.T) {
	var a AtomicWaker
	first, second := &countingWaker{}, &countingWaker{}

	a.Register(first)
	a.Register(second)
	a.Wake()

	assert.EqualValues(t, 0, first.n.Load())
	assert.EqualValues(t, 1, second.n.Load())
}

func TestAtomicWakerTake(t *testing.T) {
	var a AtomicWaker
	w := &countingWaker{}

	a.Register(w)
	got := a.Take()
	require.NotNil(t, got)
	assert.Same(t, w, got)
	assert.EqualValues(t, 0, w.n.Load())
	assert.Nil(t, a.Take())
}

func TestAtomicWakerWakerFunc(t *testing.T) {
	var a AtomicWaker
	var called bool
	a.Register(WakerFunc(func() { called = true }))
	a.Wake()
	assert.True(t, called)
}

// Every registration followed by a wake must be observed, whatever the
// interleaving with concurrent producers.
func TestAtomicWakerConcurrentWakeNeverLost(t *testing.T) {
	var a AtomicWaker
	const rounds = 2000

	for i := 0; i < rounds; i++ {
		w := &countingWaker{}
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			a.Register(w)
		}()
		go func() {
			defer wg.Done()
			a.Wake()
		}()
		wg.Wait()
		// Whichever ran first, a wake after the registration completes must land.
		a.Wake()
		require.GreaterOrEqual(t, w.n.Load(), int32(1), "round %d", i)
	}
}
