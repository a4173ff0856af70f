package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedAll(t *testing.T, kb *Keyboard, bytes ...uint8) []DecodedKey {
	t.Helper()
	var out []DecodedKey
	for _, b := range bytes {
		key, ok, err := kb.Feed(b)
		require.NoError(t, err, "byte 0x%02X", b)
		if ok {
			out = append(out, key)
		}
	}
	return out
}

func TestShiftedLetterThenPlainLetterThenEnter(t *testing.T) {
	kb := New(US104{}, Ignore)
	got := feedAll(t, kb, 0x2A, 0x23, 0xA3, 0xAA, 0x17, 0x97, 0x1C, 0x9C)
	assert.Equal(t, []DecodedKey{Unicode('H'), Unicode('i'), Unicode('\n')}, got)
}

func TestCapsLockTogglesOnPress(t *testing.T) {
	kb := New(US104{}, Ignore)
	got := feedAll(t, kb,
		0x3A, 0xBA, // caps on
		0x1E, 0x9E, // A
		0x2A, 0x1E, 0x9E, 0xAA, // shift cancels caps
		0x3A, 0xBA, // caps off
		0x1E, 0x9E,
	)
	assert.Equal(t, []DecodedKey{Unicode('A'), Unicode('a'), Unicode('a')}, got)
	assert.False(t, kb.Modifiers().CapsLock)
}

func TestShiftedSymbols(t *testing.T) {
	kb := New(US104{}, Ignore)
	got := feedAll(t, kb, 0x02, 0x36, 0x02, 0x35, 0xB6, 0x35)
	assert.Equal(t, []DecodedKey{Unicode('1'), Unicode('!'), Unicode('?'), Unicode('/')}, got)
}

func TestControlLetters(t *testing.T) {
	kb := New(US104{}, MapLettersToUnicode)
	got := feedAll(t, kb, 0x1D, 0x2E, 0xAE, 0x9D, 0x2E)
	assert.Equal(t, []DecodedKey{Unicode(0x03), Unicode('c')}, got)

	kb = New(US104{}, Ignore)
	got = feedAll(t, kb, 0x1D, 0x2E)
	assert.Equal(t, []DecodedKey{Unicode('c')}, got)
}

func TestExtendedKeysDecodeRaw(t *testing.T) {
	kb := New(US104{}, Ignore)
	got := feedAll(t, kb, 0xE0, 0x48, 0xE0, 0xC8, 0xE0, 0x53)
	assert.Equal(t, []DecodedKey{RawKey(KeyArrowUp), Unicode(0x7f)}, got)
}

func TestExtendedRightControl(t *testing.T) {
	kb := New(US104{}, Ignore)
	feedAll(t, kb, 0xE0, 0x1D)
	assert.True(t, kb.Modifiers().RCtrl)
	feedAll(t, kb, 0xE0, 0x9D)
	assert.False(t, kb.Modifiers().RCtrl)
}

func TestFakeShiftAroundExtendedIsIgnored(t *testing.T) {
	kb := New(US104{}, Ignore)
	got := feedAll(t, kb, 0xE0, 0x2A, 0xE0, 0x37, 0xE0, 0xB7, 0xE0, 0xAA)
	assert.Equal(t, []DecodedKey{RawKey(KeyPrintScreen)}, got)
	assert.False(t, kb.Modifiers().IsShifted())
}

func TestPauseSequence(t *testing.T) {
	var s ScancodeSet1
	var events []KeyEvent
	for _, b := range []uint8{0xE1, 0x1D, 0x45, 0xE1, 0x9D, 0xC5} {
		ev, ok, err := s.AddByte(b)
		require.NoError(t, err)
		if ok {
			events = append(events, ev)
		}
	}
	assert.Equal(t, []KeyEvent{{KeyPauseBreak, Down}, {KeyPauseBreak, Up}}, events)
}

func TestKeypadFollowsNumLock(t *testing.T) {
	kb := New(US104{}, Ignore)
	assert.Equal(t, []DecodedKey{Unicode('8')}, feedAll(t, kb, 0x48))
	feedAll(t, kb, 0x45, 0xC5)
	assert.Equal(t, []DecodedKey{RawKey(KeyArrowUp)}, feedAll(t, kb, 0x48))
	assert.Equal(t, []DecodedKey{RawKey(KeyNumpad5)}, feedAll(t, kb, 0x4C))
}

func TestUnknownByteIsRecoverable(t *testing.T) {
	kb := New(US104{}, Ignore)
	_, ok, err := kb.Feed(0x7A)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrUnknownKeyCode)

	// The decoder keeps working afterwards.
	assert.Equal(t, []DecodedKey{Unicode('h')}, feedAll(t, kb, 0x23))

	_, _, err = kb.Feed(0xE0)
	require.NoError(t, err)
	_, _, err = kb.Feed(0x10)
	assert.ErrorIs(t, err, ErrUnknownKeyCode)
}

func TestMakeAndBreakCodesRoundTrip(t *testing.T) {
	for _, key := range []KeyCode{KeyH, KeyEnter, KeyLShift, KeyArrowLeft, KeyDelete, KeyF12} {
		mk, ok := MakeCode(key)
		require.True(t, ok, key.String())
		br, ok := BreakCode(key)
		require.True(t, ok, key.String())

		var s ScancodeSet1
		var events []KeyEvent
		for _, b := range append(mk, br...) {
			ev, ok, err := s.AddByte(b)
			require.NoError(t, err)
			if ok {
				events = append(events, ev)
			}
		}
		assert.Equal(t, []KeyEvent{{key, Down}, {key, Up}}, events, key.String())
	}

	_, ok := MakeCode(KeyPauseBreak)
	assert.False(t, ok)
}

func TestDecodedKeyAccessors(t *testing.T) {
	r, ok := Unicode('x').Rune()
	assert.True(t, ok)
	assert.Equal(t, 'x', r)
	_, ok = Unicode('x').Code()
	assert.False(t, ok)

	code, ok := RawKey(KeyF1).Code()
	assert.True(t, ok)
	assert.Equal(t, KeyF1, code)
	assert.Equal(t, "RawKey(F1)", RawKey(KeyF1).String())
}
