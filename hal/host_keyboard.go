//go:build !tinygo && cgo

package hal

import (
	"maps"
	"slices"

	"cbos/keyboard"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Typematic delay and rate, in frames.
const (
	repeatDelay  = 30
	repeatPeriod = 3
)

var ebitenKeys = map[ebiten.Key]keyboard.KeyCode{
	ebiten.KeyEscape: keyboard.KeyEscape,
	ebiten.KeyF1:     keyboard.KeyF1, ebiten.KeyF2: keyboard.KeyF2, ebiten.KeyF3: keyboard.KeyF3,
	ebiten.KeyF4: keyboard.KeyF4, ebiten.KeyF5: keyboard.KeyF5, ebiten.KeyF6: keyboard.KeyF6,
	ebiten.KeyF7: keyboard.KeyF7, ebiten.KeyF8: keyboard.KeyF8, ebiten.KeyF9: keyboard.KeyF9,
	ebiten.KeyF10: keyboard.KeyF10, ebiten.KeyF11: keyboard.KeyF11, ebiten.KeyF12: keyboard.KeyF12,
	ebiten.KeyPrintScreen: keyboard.KeyPrintScreen,
	ebiten.KeyScrollLock:  keyboard.KeyScrollLock,

	ebiten.KeyBackquote: keyboard.KeyBackTick,
	ebiten.KeyDigit1:    keyboard.Key1, ebiten.KeyDigit2: keyboard.Key2, ebiten.KeyDigit3: keyboard.Key3,
	ebiten.KeyDigit4: keyboard.Key4, ebiten.KeyDigit5: keyboard.Key5, ebiten.KeyDigit6: keyboard.Key6,
	ebiten.KeyDigit7: keyboard.Key7, ebiten.KeyDigit8: keyboard.Key8, ebiten.KeyDigit9: keyboard.Key9,
	ebiten.KeyDigit0: keyboard.Key0,
	ebiten.KeyMinus:  keyboard.KeyMinus, ebiten.KeyEqual: keyboard.KeyEquals,
	ebiten.KeyBackspace: keyboard.KeyBackspace,

	ebiten.KeyTab: keyboard.KeyTab,
	ebiten.KeyQ:   keyboard.KeyQ, ebiten.KeyW: keyboard.KeyW, ebiten.KeyE: keyboard.KeyE,
	ebiten.KeyR: keyboard.KeyR, ebiten.KeyT: keyboard.KeyT, ebiten.KeyY: keyboard.KeyY,
	ebiten.KeyU: keyboard.KeyU, ebiten.KeyI: keyboard.KeyI, ebiten.KeyO: keyboard.KeyO,
	ebiten.KeyP:           keyboard.KeyP,
	ebiten.KeyBracketLeft: keyboard.KeyBracketSquareLeft, ebiten.KeyBracketRight: keyboard.KeyBracketSquareRight,
	ebiten.KeyBackslash: keyboard.KeyBackSlash,

	ebiten.KeyCapsLock: keyboard.KeyCapsLock,
	ebiten.KeyA:        keyboard.KeyA, ebiten.KeyS: keyboard.KeyS, ebiten.KeyD: keyboard.KeyD,
	ebiten.KeyF: keyboard.KeyF, ebiten.KeyG: keyboard.KeyG, ebiten.KeyH: keyboard.KeyH,
	ebiten.KeyJ: keyboard.KeyJ, ebiten.KeyK: keyboard.KeyK, ebiten.KeyL: keyboard.KeyL,
	ebiten.KeySemicolon: keyboard.KeySemiColon, ebiten.KeyQuote: keyboard.KeyQuote,
	ebiten.KeyEnter: keyboard.KeyEnter,

	ebiten.KeyShiftLeft: keyboard.KeyLShift,
	ebiten.KeyZ:         keyboard.KeyZ, ebiten.KeyX: keyboard.KeyX, ebiten.KeyC: keyboard.KeyC,
	ebiten.KeyV: keyboard.KeyV, ebiten.KeyB: keyboard.KeyB, ebiten.KeyN: keyboard.KeyN,
	ebiten.KeyM:     keyboard.KeyM,
	ebiten.KeyComma: keyboard.KeyComma, ebiten.KeyPeriod: keyboard.KeyFullStop,
	ebiten.KeySlash: keyboard.KeySlash, ebiten.KeyShiftRight: keyboard.KeyRShift,

	ebiten.KeyControlLeft: keyboard.KeyLControl, ebiten.KeyMetaLeft: keyboard.KeyLWin,
	ebiten.KeyAltLeft: keyboard.KeyLAlt, ebiten.KeySpace: keyboard.KeySpacebar,
	ebiten.KeyAltRight: keyboard.KeyRAltGr, ebiten.KeyMetaRight: keyboard.KeyRWin,
	ebiten.KeyContextMenu: keyboard.KeyApps, ebiten.KeyControlRight: keyboard.KeyRControl,

	ebiten.KeyInsert: keyboard.KeyInsert, ebiten.KeyHome: keyboard.KeyHome,
	ebiten.KeyPageUp: keyboard.KeyPageUp, ebiten.KeyDelete: keyboard.KeyDelete,
	ebiten.KeyEnd: keyboard.KeyEnd, ebiten.KeyPageDown: keyboard.KeyPageDown,
	ebiten.KeyArrowUp: keyboard.KeyArrowUp, ebiten.KeyArrowLeft: keyboard.KeyArrowLeft,
	ebiten.KeyArrowDown: keyboard.KeyArrowDown, ebiten.KeyArrowRight: keyboard.KeyArrowRight,

	ebiten.KeyNumLock: keyboard.KeyNumLock, ebiten.KeyNumpadDivide: keyboard.KeyNumpadSlash,
	ebiten.KeyNumpadMultiply: keyboard.KeyNumpadStar, ebiten.KeyNumpadSubtract: keyboard.KeyNumpadMinus,
	ebiten.KeyNumpad7: keyboard.KeyNumpad7, ebiten.KeyNumpad8: keyboard.KeyNumpad8,
	ebiten.KeyNumpad9: keyboard.KeyNumpad9, ebiten.KeyNumpadAdd: keyboard.KeyNumpadPlus,
	ebiten.KeyNumpad4: keyboard.KeyNumpad4, ebiten.KeyNumpad5: keyboard.KeyNumpad5,
	ebiten.KeyNumpad6: keyboard.KeyNumpad6, ebiten.KeyNumpad1: keyboard.KeyNumpad1,
	ebiten.KeyNumpad2: keyboard.KeyNumpad2, ebiten.KeyNumpad3: keyboard.KeyNumpad3,
	ebiten.KeyNumpadEnter: keyboard.KeyNumpadEnter, ebiten.KeyNumpad0: keyboard.KeyNumpad0,
	ebiten.KeyNumpadDecimal: keyboard.KeyNumpadPeriod,
}

// ebitenOrder lists modifiers first so a modifier pressed in the same frame
// as a key is latched before it.
var ebitenOrder = func() []ebiten.Key {
	keys := slices.Collect(maps.Keys(ebitenKeys))
	rank := func(k ebiten.Key) int {
		switch ebitenKeys[k] {
		case keyboard.KeyLShift, keyboard.KeyRShift, keyboard.KeyLControl,
			keyboard.KeyRControl, keyboard.KeyLAlt, keyboard.KeyRAltGr:
			return 0
		}
		return 1
	}
	slices.SortFunc(keys, func(a, b ebiten.Key) int {
		if ra, rb := rank(a), rank(b); ra != rb {
			return ra - rb
		}
		return int(a) - int(b)
	})
	return keys
}()

// hostKeyboard turns window key transitions into set 1 scancodes.
type hostKeyboard struct {
	port *PS2Port
	seq  []uint8
}

func newHostKeyboard(port *PS2Port) *hostKeyboard {
	return &hostKeyboard{port: port}
}

func (k *hostKeyboard) poll() {
	k.seq = k.seq[:0]
	for _, key := range ebitenOrder {
		code := ebitenKeys[key]
		switch {
		case inpututil.IsKeyJustPressed(key):
			k.emit(keyboard.MakeCode(code))
		case inpututil.IsKeyJustReleased(key):
			k.emit(keyboard.BreakCode(code))
		default:
			// Typematic repeat sends the make code again.
			if d := inpututil.KeyPressDuration(key); d > repeatDelay && (d-repeatDelay)%repeatPeriod == 0 {
				k.emit(keyboard.MakeCode(code))
			}
		}
	}
	k.port.Inject(k.seq...)
}

func (k *hostKeyboard) emit(seq []uint8, ok bool) {
	if ok {
		k.seq = append(k.seq, seq...)
	}
}
