// Package keyboard decodes PS/2 scancode set 1 into key events and, through a
// layout, into runes.
package keyboard

import "fmt"

// KeyCode names a physical key independent of layout.
type KeyCode uint8

const (
	KeyNone KeyCode = iota

	KeyEscape
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	KeyPrintScreen
	KeyScrollLock
	KeyPauseBreak

	KeyBackTick
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	Key0
	KeyMinus
	KeyEquals
	KeyBackspace

	KeyTab
	KeyQ
	KeyW
	KeyE
	KeyR
	KeyT
	KeyY
	KeyU
	KeyI
	KeyO
	KeyP
	KeyBracketSquareLeft
	KeyBracketSquareRight
	KeyBackSlash

	KeyCapsLock
	KeyA
	KeyS
	KeyD
	KeyF
	KeyG
	KeyH
	KeyJ
	KeyK
	KeyL
	KeySemiColon
	KeyQuote
	KeyEnter

	KeyLShift
	KeyZ
	KeyX
	KeyC
	KeyV
	KeyB
	KeyN
	KeyM
	KeyComma
	KeyFullStop
	KeySlash
	KeyRShift

	KeyLControl
	KeyLWin
	KeyLAlt
	KeySpacebar
	KeyRAltGr
	KeyRWin
	KeyApps
	KeyRControl

	KeyInsert
	KeyHome
	KeyPageUp
	KeyDelete
	KeyEnd
	KeyPageDown
	KeyArrowUp
	KeyArrowLeft
	KeyArrowDown
	KeyArrowRight

	KeyNumLock
	KeyNumpadSlash
	KeyNumpadStar
	KeyNumpadMinus
	KeyNumpad7
	KeyNumpad8
	KeyNumpad9
	KeyNumpadPlus
	KeyNumpad4
	KeyNumpad5
	KeyNumpad6
	KeyNumpad1
	KeyNumpad2
	KeyNumpad3
	KeyNumpadEnter
	KeyNumpad0
	KeyNumpadPeriod

	keyCodeCount
)

var keyNames = [keyCodeCount]string{
	KeyNone: "None", KeyEscape: "Escape",
	KeyF1: "F1", KeyF2: "F2", KeyF3: "F3", KeyF4: "F4", KeyF5: "F5", KeyF6: "F6",
	KeyF7: "F7", KeyF8: "F8", KeyF9: "F9", KeyF10: "F10", KeyF11: "F11", KeyF12: "F12",
	KeyPrintScreen: "PrintScreen", KeyScrollLock: "ScrollLock", KeyPauseBreak: "PauseBreak",
	KeyBackTick: "BackTick", Key1: "Key1", Key2: "Key2", Key3: "Key3", Key4: "Key4", Key5: "Key5",
	Key6: "Key6", Key7: "Key7", Key8: "Key8", Key9: "Key9", Key0: "Key0",
	KeyMinus: "Minus", KeyEquals: "Equals", KeyBackspace: "Backspace",
	KeyTab: "Tab", KeyQ: "Q", KeyW: "W", KeyE: "E", KeyR: "R", KeyT: "T", KeyY: "Y", KeyU: "U",
	KeyI: "I", KeyO: "O", KeyP: "P", KeyBracketSquareLeft: "BracketSquareLeft",
	KeyBracketSquareRight: "BracketSquareRight", KeyBackSlash: "BackSlash",
	KeyCapsLock: "CapsLock", KeyA: "A", KeyS: "S", KeyD: "D", KeyF: "F", KeyG: "G", KeyH: "H",
	KeyJ: "J", KeyK: "K", KeyL: "L", KeySemiColon: "SemiColon", KeyQuote: "Quote", KeyEnter: "Enter",
	KeyLShift: "LShift", KeyZ: "Z", KeyX: "X", KeyC: "C", KeyV: "V", KeyB: "B", KeyN: "N", KeyM: "M",
	KeyComma: "Comma", KeyFullStop: "FullStop", KeySlash: "Slash", KeyRShift: "RShift",
	KeyLControl: "LControl", KeyLWin: "LWin", KeyLAlt: "LAlt", KeySpacebar: "Spacebar",
	KeyRAltGr: "RAltGr", KeyRWin: "RWin", KeyApps: "Apps", KeyRControl: "RControl",
	KeyInsert: "Insert", KeyHome: "Home", KeyPageUp: "PageUp", KeyDelete: "Delete", KeyEnd: "End",
	KeyPageDown: "PageDown", KeyArrowUp: "ArrowUp", KeyArrowLeft: "ArrowLeft",
	KeyArrowDown: "ArrowDown", KeyArrowRight: "ArrowRight",
	KeyNumLock: "NumLock", KeyNumpadSlash: "NumpadSlash", KeyNumpadStar: "NumpadStar",
	KeyNumpadMinus: "NumpadMinus", KeyNumpad7: "Numpad7", KeyNumpad8: "Numpad8",
	KeyNumpad9: "Numpad9", KeyNumpadPlus: "NumpadPlus", KeyNumpad4: "Numpad4",
	KeyNumpad5: "Numpad5", KeyNumpad6: "Numpad6", KeyNumpad1: "Numpad1", KeyNumpad2: "Numpad2",
	KeyNumpad3: "Numpad3", KeyNumpadEnter: "NumpadEnter", KeyNumpad0: "Numpad0",
	KeyNumpadPeriod: "NumpadPeriod",
}

func (k KeyCode) String() string {
	if k < keyCodeCount && keyNames[k] != "" {
		return keyNames[k]
	}
	return fmt.Sprintf("KeyCode(%d)", uint8(k))
}

// KeyState tells whether a key went down or came up.
type KeyState uint8

const (
	Up KeyState = iota
	Down
)

func (s KeyState) String() string {
	if s == Down {
		return "down"
	}
	return "up"
}

// KeyEvent is one make or break of a physical key.
type KeyEvent struct {
	Code  KeyCode
	State KeyState
}

// DecodedKey is what a key press means under the active layout: either a
// character or a key with no character of its own.
type DecodedKey struct {
	raw  bool
	r    rune
	code KeyCode
}

// Unicode returns a decoded character.
func Unicode(r rune) DecodedKey { return DecodedKey{r: r} }

// RawKey returns a decoded key without a character.
func RawKey(code KeyCode) DecodedKey { return DecodedKey{raw: true, code: code} }

// Rune returns the character and true, or false for a raw key.
func (k DecodedKey) Rune() (rune, bool) { return k.r, !k.raw }

// Code returns the key code of a raw key, or false for a character.
func (k DecodedKey) Code() (KeyCode, bool) { return k.code, k.raw }

func (k DecodedKey) String() string {
	if k.raw {
		return "RawKey(" + k.code.String() + ")"
	}
	return fmt.Sprintf("Unicode(%q)", k.r)
}
