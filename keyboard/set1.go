package keyboard

import (
	"errors"
	"fmt"
)

const (
	extendedPrefix = 0xE0
	pausePrefix    = 0xE1
	releaseBit     = 0x80
)

// ErrUnknownKeyCode reports a byte that names no key in scancode set 1.
var ErrUnknownKeyCode = errors.New("unknown key code")

type decodeState uint8

const (
	stateStart decodeState = iota
	stateExtended
	statePause
)

// ScancodeSet1 assembles single and multi-byte set 1 scancodes into key events.
type ScancodeSet1 struct {
	state      decodeState
	pauseBytes uint8
	pauseBreak bool
}

// AddByte feeds one byte. It reports false while a multi-byte sequence is still
// incomplete or when the byte carries no key (e.g. the fake shifts the
// controller wraps around extended keys).
func (s *ScancodeSet1) AddByte(b uint8) (KeyEvent, bool, error) {
	switch s.state {
	case stateExtended:
		s.state = stateStart
		code := b &^ releaseBit
		if code == 0x2A || code == 0x36 {
			return KeyEvent{}, false, nil
		}
		key := set1Extended[code]
		if key == KeyNone {
			return KeyEvent{}, false, fmt.Errorf("%w: 0xE0 0x%02X", ErrUnknownKeyCode, b)
		}
		return KeyEvent{Code: key, State: stateOf(b)}, true, nil

	case statePause:
		// Pause/Break sends E1 1D 45 on make and E1 9D C5 on break.
		s.pauseBytes++
		if s.pauseBytes == 1 {
			s.pauseBreak = b&releaseBit != 0
			return KeyEvent{}, false, nil
		}
		s.state = stateStart
		s.pauseBytes = 0
		if s.pauseBreak {
			return KeyEvent{Code: KeyPauseBreak, State: Up}, true, nil
		}
		return KeyEvent{Code: KeyPauseBreak, State: Down}, true, nil
	}

	switch b {
	case extendedPrefix:
		s.state = stateExtended
		return KeyEvent{}, false, nil
	case pausePrefix:
		s.state = statePause
		s.pauseBytes = 0
		return KeyEvent{}, false, nil
	}

	key := set1Normal[b&^releaseBit]
	if key == KeyNone {
		return KeyEvent{}, false, fmt.Errorf("%w: 0x%02X", ErrUnknownKeyCode, b)
	}
	return KeyEvent{Code: key, State: stateOf(b)}, true, nil
}

func stateOf(b uint8) KeyState {
	if b&releaseBit != 0 {
		return Up
	}
	return Down
}

// MakeCode returns the set 1 make sequence of key, for producers that
// synthesize scancodes. The break sequence has releaseBit set on the last byte.
func MakeCode(key KeyCode) ([]uint8, bool) {
	for b, k := range set1Normal {
		if k == key && k != KeyNone {
			return []uint8{uint8(b)}, true
		}
	}
	for b, k := range set1Extended {
		if k == key && k != KeyNone {
			return []uint8{extendedPrefix, uint8(b)}, true
		}
	}
	return nil, false
}

// BreakCode returns the set 1 break sequence of key.
func BreakCode(key KeyCode) ([]uint8, bool) {
	seq, ok := MakeCode(key)
	if !ok {
		return nil, false
	}
	seq[len(seq)-1] |= releaseBit
	return seq, true
}

var set1Normal = [0x80]KeyCode{
	0x01: KeyEscape,
	0x02: Key1, 0x03: Key2, 0x04: Key3, 0x05: Key4, 0x06: Key5,
	0x07: Key6, 0x08: Key7, 0x09: Key8, 0x0A: Key9, 0x0B: Key0,
	0x0C: KeyMinus, 0x0D: KeyEquals, 0x0E: KeyBackspace, 0x0F: KeyTab,
	0x10: KeyQ, 0x11: KeyW, 0x12: KeyE, 0x13: KeyR, 0x14: KeyT,
	0x15: KeyY, 0x16: KeyU, 0x17: KeyI, 0x18: KeyO, 0x19: KeyP,
	0x1A: KeyBracketSquareLeft, 0x1B: KeyBracketSquareRight,
	0x1C: KeyEnter, 0x1D: KeyLControl,
	0x1E: KeyA, 0x1F: KeyS, 0x20: KeyD, 0x21: KeyF, 0x22: KeyG,
	0x23: KeyH, 0x24: KeyJ, 0x25: KeyK, 0x26: KeyL,
	0x27: KeySemiColon, 0x28: KeyQuote, 0x29: KeyBackTick,
	0x2A: KeyLShift, 0x2B: KeyBackSlash,
	0x2C: KeyZ, 0x2D: KeyX, 0x2E: KeyC, 0x2F: KeyV, 0x30: KeyB,
	0x31: KeyN, 0x32: KeyM, 0x33: KeyComma, 0x34: KeyFullStop, 0x35: KeySlash,
	0x36: KeyRShift, 0x37: KeyNumpadStar, 0x38: KeyLAlt, 0x39: KeySpacebar,
	0x3A: KeyCapsLock,
	0x3B: KeyF1, 0x3C: KeyF2, 0x3D: KeyF3, 0x3E: KeyF4, 0x3F: KeyF5,
	0x40: KeyF6, 0x41: KeyF7, 0x42: KeyF8, 0x43: KeyF9, 0x44: KeyF10,
	0x45: KeyNumLock, 0x46: KeyScrollLock,
	0x47: KeyNumpad7, 0x48: KeyNumpad8, 0x49: KeyNumpad9, 0x4A: KeyNumpadMinus,
	0x4B: KeyNumpad4, 0x4C: KeyNumpad5, 0x4D: KeyNumpad6, 0x4E: KeyNumpadPlus,
	0x4F: KeyNumpad1, 0x50: KeyNumpad2, 0x51: KeyNumpad3,
	0x52: KeyNumpad0, 0x53: KeyNumpadPeriod,
	0x57: KeyF11, 0x58: KeyF12,
}

var set1Extended = [0x80]KeyCode{
	0x1C: KeyNumpadEnter, 0x1D: KeyRControl,
	0x35: KeyNumpadSlash, 0x37: KeyPrintScreen, 0x38: KeyRAltGr,
	0x47: KeyHome, 0x48: KeyArrowUp, 0x49: KeyPageUp,
	0x4B: KeyArrowLeft, 0x4D: KeyArrowRight,
	0x4F: KeyEnd, 0x50: KeyArrowDown, 0x51: KeyPageDown,
	0x52: KeyInsert, 0x53: KeyDelete,
	0x5B: KeyLWin, 0x5C: KeyRWin, 0x5D: KeyApps,
}
