package keyboard

// HandleControl selects what ctrl+letter produces.
type HandleControl uint8

const (
	// MapLettersToUnicode turns ctrl+A..ctrl+Z into U+0001..U+001A.
	MapLettersToUnicode HandleControl = iota
	// Ignore decodes the letter as if ctrl were not held.
	Ignore
)

// Modifiers is the latch state consulted by layouts.
type Modifiers struct {
	LShift, RShift    bool
	LCtrl, RCtrl      bool
	Alt, AltGr        bool
	CapsLock, NumLock bool
}

func (m Modifiers) IsShifted() bool { return m.LShift || m.RShift }
func (m Modifiers) IsCtrl() bool    { return m.LCtrl || m.RCtrl }

// IsCaps reports whether letters come out upper case.
func (m Modifiers) IsCaps() bool { return m.IsShifted() != m.CapsLock }

// Layout maps a pressed key to its meaning.
type Layout interface {
	MapKeycode(code KeyCode, mods Modifiers, hc HandleControl) DecodedKey
}

// Keyboard turns raw set 1 bytes into decoded keys, tracking modifier latches.
// It is owned by a single consumer and never touched from interrupt context.
type Keyboard struct {
	set    ScancodeSet1
	layout Layout
	hc     HandleControl
	mods   Modifiers
}

// New returns a keyboard decoding with layout. Num lock starts on.
func New(layout Layout, hc HandleControl) *Keyboard {
	return &Keyboard{
		layout: layout,
		hc:     hc,
		mods:   Modifiers{NumLock: true},
	}
}

// Modifiers returns the current latch state.
func (k *Keyboard) Modifiers() Modifiers { return k.mods }

// AddByte feeds one raw byte to the scancode decoder.
func (k *Keyboard) AddByte(b uint8) (KeyEvent, bool, error) {
	return k.set.AddByte(b)
}

// ProcessKeyEvent updates the latches and returns the decoded key for presses.
// Releases and modifier keys decode to nothing.
func (k *Keyboard) ProcessKeyEvent(ev KeyEvent) (DecodedKey, bool) {
	down := ev.State == Down
	switch ev.Code {
	case KeyLShift:
		k.mods.LShift = down
		return DecodedKey{}, false
	case KeyRShift:
		k.mods.RShift = down
		return DecodedKey{}, false
	case KeyLControl:
		k.mods.LCtrl = down
		return DecodedKey{}, false
	case KeyRControl:
		k.mods.RCtrl = down
		return DecodedKey{}, false
	case KeyLAlt:
		k.mods.Alt = down
		return DecodedKey{}, false
	case KeyRAltGr:
		k.mods.AltGr = down
		return DecodedKey{}, false
	case KeyCapsLock:
		if down {
			k.mods.CapsLock = !k.mods.CapsLock
		}
		return DecodedKey{}, false
	case KeyNumLock:
		if down {
			k.mods.NumLock = !k.mods.NumLock
		}
		return DecodedKey{}, false
	}
	if !down {
		return DecodedKey{}, false
	}
	return k.layout.MapKeycode(ev.Code, k.mods, k.hc), true
}

// Feed runs one raw byte through the whole pipeline.
func (k *Keyboard) Feed(b uint8) (DecodedKey, bool, error) {
	ev, ok, err := k.AddByte(b)
	if err != nil || !ok {
		return DecodedKey{}, false, err
	}
	key, ok := k.ProcessKeyEvent(ev)
	return key, ok, nil
}
