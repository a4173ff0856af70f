package hal

import "cbos/keyboard"

type asciiKey struct {
	code  keyboard.KeyCode
	shift bool
	ctrl  bool
}

var asciiKeys = func() [128]asciiKey {
	var t [128]asciiKey
	letters := [26]keyboard.KeyCode{
		keyboard.KeyA, keyboard.KeyB, keyboard.KeyC, keyboard.KeyD, keyboard.KeyE,
		keyboard.KeyF, keyboard.KeyG, keyboard.KeyH, keyboard.KeyI, keyboard.KeyJ,
		keyboard.KeyK, keyboard.KeyL, keyboard.KeyM, keyboard.KeyN, keyboard.KeyO,
		keyboard.KeyP, keyboard.KeyQ, keyboard.KeyR, keyboard.KeyS, keyboard.KeyT,
		keyboard.KeyU, keyboard.KeyV, keyboard.KeyW, keyboard.KeyX, keyboard.KeyY,
		keyboard.KeyZ,
	}
	for i, k := range letters {
		t['a'+i] = asciiKey{code: k}
		t['A'+i] = asciiKey{code: k, shift: true}
		t[1+i] = asciiKey{code: k, ctrl: true}
	}

	pairs := []struct {
		plain, shifted byte
		code           keyboard.KeyCode
	}{
		{'`', '~', keyboard.KeyBackTick},
		{'1', '!', keyboard.Key1}, {'2', '@', keyboard.Key2}, {'3', '#', keyboard.Key3},
		{'4', '$', keyboard.Key4}, {'5', '%', keyboard.Key5}, {'6', '^', keyboard.Key6},
		{'7', '&', keyboard.Key7}, {'8', '*', keyboard.Key8}, {'9', '(', keyboard.Key9},
		{'0', ')', keyboard.Key0},
		{'-', '_', keyboard.KeyMinus}, {'=', '+', keyboard.KeyEquals},
		{'[', '{', keyboard.KeyBracketSquareLeft}, {']', '}', keyboard.KeyBracketSquareRight},
		{'\\', '|', keyboard.KeyBackSlash},
		{';', ':', keyboard.KeySemiColon}, {'\'', '"', keyboard.KeyQuote},
		{',', '<', keyboard.KeyComma}, {'.', '>', keyboard.KeyFullStop},
		{'/', '?', keyboard.KeySlash},
	}
	for _, p := range pairs {
		t[p.plain] = asciiKey{code: p.code}
		t[p.shifted] = asciiKey{code: p.code, shift: true}
	}

	// Terminals send CR for Enter and DEL for Backspace.
	t[' '] = asciiKey{code: keyboard.KeySpacebar}
	t['\t'] = asciiKey{code: keyboard.KeyTab}
	t['\r'] = asciiKey{code: keyboard.KeyEnter}
	t['\n'] = asciiKey{code: keyboard.KeyEnter}
	t[0x08] = asciiKey{code: keyboard.KeyBackspace}
	t[0x7f] = asciiKey{code: keyboard.KeyBackspace}
	t[0x1b] = asciiKey{code: keyboard.KeyEscape}
	return t
}()

// ScancodesForByte translates one byte typed on a terminal or UART into the
// set 1 make and break sequence a PS/2 keyboard would send for it. Bytes with
// no key on a US keyboard translate to nil.
func ScancodesForByte(b byte) []uint8 {
	if b >= 0x80 {
		return nil
	}
	k := asciiKeys[b]
	if k.code == keyboard.KeyNone {
		return nil
	}

	var out []uint8
	press := func(code keyboard.KeyCode) {
		seq, _ := keyboard.MakeCode(code)
		out = append(out, seq...)
	}
	release := func(code keyboard.KeyCode) {
		seq, _ := keyboard.BreakCode(code)
		out = append(out, seq...)
	}

	if k.ctrl {
		press(keyboard.KeyLControl)
	}
	if k.shift {
		press(keyboard.KeyLShift)
	}
	press(k.code)
	release(k.code)
	if k.shift {
		release(keyboard.KeyLShift)
	}
	if k.ctrl {
		release(keyboard.KeyLControl)
	}
	return out
}
