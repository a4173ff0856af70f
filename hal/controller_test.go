package hal

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

func TestControllerHoldsRequestsWhileDisabled(t *testing.T) {
	c := NewController()
	defer c.Close()

	var hits atomic.Int32
	c.Register(VectorTimer, func(v Vector) {
		hits.Add(1)
		c.EndOfInterrupt(v)
	})

	c.Raise(VectorTimer)
	time.Sleep(20 * time.Millisecond)
	assert.EqualValues(t, 0, hits.Load())
	assert.False(t, c.InterruptsEnabled())

	c.EnableInterrupts()
	require.Eventually(t, func() bool { return hits.Load() == 1 }, waitFor, time.Millisecond)
	assert.EqualValues(t, 1, c.EOICount(VectorTimer))
}

func TestControllerHaltWakesOnPendingRequest(t *testing.T) {
	c := NewController()
	defer c.Close()

	c.Register(VectorKeyboard, func(v Vector) { c.EndOfInterrupt(v) })
	// Raised while the CPU had interrupts off: the halt must not sleep through it.
	c.Raise(VectorKeyboard)

	done := make(chan struct{})
	go func() {
		c.EnableAndHalt()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("EnableAndHalt missed a pending interrupt")
	}
	assert.EqualValues(t, 1, c.Delivered())
}

func TestControllerHaltWakesOnLaterRequest(t *testing.T) {
	c := NewController()
	defer c.Close()
	c.Register(VectorTimer, func(v Vector) { c.EndOfInterrupt(v) })

	done := make(chan struct{})
	go func() {
		c.EnableAndHalt()
		close(done)
	}()
	require.Eventually(t, c.InterruptsEnabled, waitFor, time.Millisecond)

	select {
	case <-done:
		t.Fatal("EnableAndHalt returned without an interrupt")
	default:
	}
	c.Raise(VectorTimer)
	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("EnableAndHalt did not wake")
	}
}

func TestControllerWaitsForEndOfInterrupt(t *testing.T) {
	c := NewController()
	defer c.Close()

	var hits atomic.Int32
	c.Register(VectorTimer, func(Vector) { hits.Add(1) })
	c.EnableInterrupts()

	c.Raise(VectorTimer)
	require.Eventually(t, func() bool { return hits.Load() == 1 }, waitFor, time.Millisecond)

	// Still in service: the second request stays latched.
	c.Raise(VectorTimer)
	time.Sleep(20 * time.Millisecond)
	assert.EqualValues(t, 1, hits.Load())

	c.EndOfInterrupt(VectorTimer)
	require.Eventually(t, func() bool { return hits.Load() == 2 }, waitFor, time.Millisecond)
}

func TestControllerAcknowledgingOtherLineDoesNotUnblock(t *testing.T) {
	c := NewController()
	defer c.Close()

	var kbd atomic.Int32
	c.Register(VectorKeyboard, func(Vector) {
		kbd.Add(1)
		// Acknowledges the wrong line.
		c.EndOfInterrupt(VectorTimer)
	})
	c.EnableInterrupts()

	c.Raise(VectorKeyboard)
	require.Eventually(t, func() bool { return kbd.Load() == 1 }, waitFor, time.Millisecond)
	c.Raise(VectorKeyboard)
	time.Sleep(20 * time.Millisecond)
	assert.EqualValues(t, 1, kbd.Load())
	assert.EqualValues(t, 0, c.EOICount(VectorKeyboard))
}

func TestControllerDeliversLowestLineFirst(t *testing.T) {
	c := NewController()
	defer c.Close()

	var mu sync.Mutex
	var order []Vector
	h := func(v Vector) {
		mu.Lock()
		order = append(order, v)
		mu.Unlock()
		c.EndOfInterrupt(v)
	}
	c.Register(VectorTimer, h)
	c.Register(VectorKeyboard, h)

	c.Raise(VectorKeyboard)
	c.Raise(VectorTimer)
	c.EnableInterrupts()
	require.Eventually(t, func() bool { return c.Delivered() == 2 }, waitFor, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Vector{VectorTimer, VectorKeyboard}, order)
}

func TestControllerDisableWaitsForRunningHandler(t *testing.T) {
	c := NewController()
	defer c.Close()

	entered := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool
	c.Register(VectorTimer, func(v Vector) {
		close(entered)
		<-release
		finished.Store(true)
		c.EndOfInterrupt(v)
	})
	c.EnableInterrupts()
	c.Raise(VectorTimer)
	<-entered

	disabled := make(chan struct{})
	go func() {
		c.DisableInterrupts()
		close(disabled)
	}()
	select {
	case <-disabled:
		t.Fatal("DisableInterrupts returned while a handler was running")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	select {
	case <-disabled:
	case <-time.After(waitFor):
		t.Fatal("DisableInterrupts never returned")
	}
	assert.True(t, finished.Load())
	assert.False(t, c.InterruptsEnabled())
}

func TestControllerIgnoresForeignVectors(t *testing.T) {
	c := NewController()
	defer c.Close()

	c.Register(Vector(3), func(Vector) { t.Fatal("exception vectors are not PIC lines") })
	c.Raise(Vector(3))
	c.EnableInterrupts()
	time.Sleep(10 * time.Millisecond)
	assert.EqualValues(t, 0, c.Delivered())
	assert.EqualValues(t, 0, c.EOICount(Vector(3)))
}

func TestPS2PortPacesOneBytePerInterrupt(t *testing.T) {
	c := NewController()
	defer c.Close()
	port := NewPS2Port(c)

	var mu sync.Mutex
	var got []uint8
	c.Register(VectorKeyboard, func(v Vector) {
		b := port.ReadData()
		mu.Lock()
		got = append(got, b)
		mu.Unlock()
		c.EndOfInterrupt(v)
	})

	port.InjectText("Hi")
	c.EnableInterrupts()
	require.Eventually(t, func() bool { return port.Pending() == 0 && c.Delivered() == 6 }, waitFor, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []uint8{0x2A, 0x23, 0xA3, 0xAA, 0x17, 0x97}, got)
	assert.EqualValues(t, 6, c.EOICount(VectorKeyboard))
}

func TestPS2PortEmptyRead(t *testing.T) {
	c := NewController()
	defer c.Close()
	port := NewPS2Port(c)

	assert.EqualValues(t, 0, port.ReadData())
	port.Inject()
	assert.Equal(t, 0, port.Pending())
}

func TestPS2PortDropsBeyondBuffer(t *testing.T) {
	c := NewController()
	defer c.Close()
	port := NewPS2Port(c)

	bs := make([]uint8, ps2BufferSize+5)
	port.Inject(bs...)
	assert.Equal(t, ps2BufferSize, port.Pending())
	assert.EqualValues(t, 5, port.Dropped())
}

func TestPITStepCountsPeriods(t *testing.T) {
	c := NewController()
	defer c.Close()
	pit := NewPITDevice(c, 100)
	assert.Equal(t, 100, pit.Hz())
	assert.Equal(t, 10*time.Millisecond, pit.Period())

	t0 := time.Unix(1000, 0)
	assert.EqualValues(t, 0, pit.Step(t0))
	assert.EqualValues(t, 3, pit.Step(t0.Add(35*time.Millisecond)))
	// The 5ms remainder carries into the next step.
	assert.EqualValues(t, 1, pit.Step(t0.Add(40*time.Millisecond)))
	assert.EqualValues(t, 0, pit.Step(t0.Add(39*time.Millisecond)))
	assert.EqualValues(t, 4, pit.Fired())
}

func TestPITRaisesTimerLine(t *testing.T) {
	c := NewController()
	defer c.Close()
	pit := NewPITDevice(c, 50)

	var hits atomic.Int32
	c.Register(VectorTimer, func(v Vector) {
		hits.Add(1)
		c.EndOfInterrupt(v)
	})
	c.EnableInterrupts()

	t0 := time.Unix(1000, 0)
	pit.Step(t0)
	pit.Step(t0.Add(20 * time.Millisecond))
	require.Eventually(t, func() bool { return hits.Load() == 1 }, waitFor, time.Millisecond)
}

func TestPITClampsRate(t *testing.T) {
	c := NewController()
	defer c.Close()
	assert.Equal(t, MinPITHz, NewPITDevice(c, 1).Hz())
	assert.Equal(t, MaxPITHz, NewPITDevice(c, 100000).Hz())
}

func TestPowerSwitchRunsOnce(t *testing.T) {
	var offs int
	p := NewPowerSwitch(func() { offs++ })

	p.Shutdown(3)
	p.Shutdown(7)
	select {
	case <-p.Done():
	default:
		t.Fatal("Done not closed")
	}
	assert.Equal(t, 1, offs)
	assert.Equal(t, 3, p.Code())
}
