//go:build windows

package desktop

import (
	"fmt"
	"time"
	"unicode/utf16"
	"unsafe"

	"github.com/eliteGoblin/focusd/wecom_guard/internal/domain"
)

const (
	inputKeyboard = 1

	keyEventFKeyUp   = 0x0002
	keyEventFUnicode = 0x0004

	mouseEventFLeftDown = 0x0002
	mouseEventFLeftUp   = 0x0004

	vkMenu = 0x12
	vkS    = 0x53
)

type keybdInput struct {
	Vk        uint16
	Scan      uint16
	Flags     uint32
	Time      uint32
	ExtraInfo uintptr
}

// keyboardInputEvent mirrors INPUT with the keyboard arm of the union;
// the padding covers the larger MOUSEINPUT arm (40 bytes amd64, 28 on 386).
type keyboardInputEvent struct {
	Type uint32
	Ki   keybdInput
	_    [8]byte
}

// Inputter implements domain.Inputter with user32 input injection.
type Inputter struct {
	clickDelay time.Duration
	keyDelay   time.Duration
}

// NewInputter creates the Windows inputter.
func NewInputter() domain.Inputter {
	return &Inputter{clickDelay: 30 * time.Millisecond, keyDelay: 10 * time.Millisecond}
}

func (in *Inputter) MoveAndClick(x, y int) error {
	r, _, err := procSetCursorPos.Call(uintptr(int32(x)), uintptr(int32(y)))
	if r == 0 {
		return fmt.Errorf("SetCursorPos(%d, %d): %v", x, y, err)
	}
	time.Sleep(in.clickDelay)
	procMouseEvent.Call(mouseEventFLeftDown, 0, 0, 0, 0)
	procMouseEvent.Call(mouseEventFLeftUp, 0, 0, 0, 0)
	return nil
}

// TypeText injects text as unicode key events, independent of keyboard layout.
func (in *Inputter) TypeText(text string) error {
	for _, unit := range utf16.Encode([]rune(text)) {
		events := []keyboardInputEvent{
			{Type: inputKeyboard, Ki: keybdInput{Scan: unit, Flags: keyEventFUnicode}},
			{Type: inputKeyboard, Ki: keybdInput{Scan: unit, Flags: keyEventFUnicode | keyEventFKeyUp}},
		}
		n, _, err := procSendInput.Call(
			uintptr(len(events)),
			uintptr(unsafe.Pointer(&events[0])),
			unsafe.Sizeof(events[0]),
		)
		if int(n) != len(events) {
			return fmt.Errorf("SendInput: %v", err)
		}
		time.Sleep(in.keyDelay)
	}
	return nil
}

func (in *Inputter) PressAltS() error {
	procKeybdEvent.Call(vkMenu, 0, 0, 0)
	time.Sleep(in.keyDelay)
	procKeybdEvent.Call(vkS, 0, 0, 0)
	time.Sleep(in.clickDelay)
	procKeybdEvent.Call(vkS, 0, keyEventFKeyUp, 0)
	time.Sleep(in.keyDelay)
	procKeybdEvent.Call(vkMenu, 0, keyEventFKeyUp, 0)
	return nil
}

var _ domain.Inputter = (*Inputter)(nil)
