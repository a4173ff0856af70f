package keyboard

// US104 is the standard US 104-key layout.
type US104 struct{}

type pair struct{ plain, shifted rune }

var us104Letters = map[KeyCode]rune{
	KeyA: 'a', KeyB: 'b', KeyC: 'c', KeyD: 'd', KeyE: 'e', KeyF: 'f', KeyG: 'g',
	KeyH: 'h', KeyI: 'i', KeyJ: 'j', KeyK: 'k', KeyL: 'l', KeyM: 'm', KeyN: 'n',
	KeyO: 'o', KeyP: 'p', KeyQ: 'q', KeyR: 'r', KeyS: 's', KeyT: 't', KeyU: 'u',
	KeyV: 'v', KeyW: 'w', KeyX: 'x', KeyY: 'y', KeyZ: 'z',
}

var us104Symbols = map[KeyCode]pair{
	KeyBackTick: {'`', '~'},
	Key1:        {'1', '!'},
	Key2:        {'2', '@'},
	Key3:        {'3', '#'},
	Key4:        {'4', '$'},
	Key5:        {'5', '%'},
	Key6:        {'6', '^'},
	Key7:        {'7', '&'},
	Key8:        {'8', '*'},
	Key9:        {'9', '('},
	Key0:        {'0', ')'},
	KeyMinus:    {'-', '_'},
	KeyEquals:   {'=', '+'},

	KeyBracketSquareLeft:  {'[', '{'},
	KeyBracketSquareRight: {']', '}'},
	KeyBackSlash:          {'\\', '|'},
	KeySemiColon:          {';', ':'},
	KeyQuote:              {'\'', '"'},
	KeyComma:              {',', '<'},
	KeyFullStop:           {'.', '>'},
	KeySlash:              {'/', '?'},
}

var us104Fixed = map[KeyCode]rune{
	KeySpacebar:    ' ',
	KeyTab:         '\t',
	KeyEnter:       '\n',
	KeyNumpadEnter: '\n',
	KeyBackspace:   0x08,
	KeyEscape:      0x1b,
	KeyDelete:      0x7f,
	KeyNumpadSlash: '/',
	KeyNumpadStar:  '*',
	KeyNumpadMinus: '-',
	KeyNumpadPlus:  '+',
}

// Keypad keys: the digit with num lock on, the navigation key otherwise.
var us104Keypad = map[KeyCode]struct {
	digit rune
	nav   KeyCode
}{
	KeyNumpad0:      {'0', KeyInsert},
	KeyNumpad1:      {'1', KeyEnd},
	KeyNumpad2:      {'2', KeyArrowDown},
	KeyNumpad3:      {'3', KeyPageDown},
	KeyNumpad4:      {'4', KeyArrowLeft},
	KeyNumpad5:      {'5', KeyNone},
	KeyNumpad6:      {'6', KeyArrowRight},
	KeyNumpad7:      {'7', KeyHome},
	KeyNumpad8:      {'8', KeyArrowUp},
	KeyNumpad9:      {'9', KeyPageUp},
	KeyNumpadPeriod: {'.', KeyDelete},
}

func (US104) MapKeycode(code KeyCode, mods Modifiers, hc HandleControl) DecodedKey {
	if r, ok := us104Letters[code]; ok {
		if hc == MapLettersToUnicode && mods.IsCtrl() {
			return Unicode(r - 'a' + 1)
		}
		if mods.IsCaps() {
			return Unicode(r - 'a' + 'A')
		}
		return Unicode(r)
	}
	if p, ok := us104Symbols[code]; ok {
		if mods.IsShifted() {
			return Unicode(p.shifted)
		}
		return Unicode(p.plain)
	}
	if r, ok := us104Fixed[code]; ok {
		return Unicode(r)
	}
	if k, ok := us104Keypad[code]; ok {
		if mods.NumLock {
			return Unicode(k.digit)
		}
		if k.nav == KeyNone {
			return RawKey(code)
		}
		return RawKey(k.nav)
	}
	return RawKey(code)
}
