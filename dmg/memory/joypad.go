package memory

// Button identifies one of the eight joypad inputs. Action and direction
// buttons share bit positions across two independent four-bit rows, the
// way the real P1 matrix multiplexes them.
type Button uint8

const (
	ButtonA      Button = 1 << 0
	ButtonB      Button = 1 << 1
	ButtonSelect Button = 1 << 2
	ButtonStart  Button = 1 << 3
	ButtonRight  Button = 1 << 0
	ButtonLeft   Button = 1 << 1
	ButtonUp     Button = 1 << 2
	ButtonDown   Button = 1 << 3
)

// Joypad implements the P1 register (0xFF00): two selectable four-bit rows
// (action buttons, direction buttons), read back inverted (0 = pressed),
// with a Joypad interrupt fired when a button is newly pressed on a selected
// row, or when a P1 write newly selects (drives low) a row that already has
// a button held.
type Joypad struct {
	selectBits       uint8 // raw bits 4-5 as last written; 0 means that row is selected
	buttonState      uint8
	directionState   uint8
	requestInterrupt func()
}

func NewJoypad(requestInterrupt func()) *Joypad {
	return &Joypad{selectBits: 0x30, requestInterrupt: requestInterrupt}
}

func (j *Joypad) ReadP1() byte {
	pressed := uint8(0)
	if j.selectBits&0x20 == 0 {
		pressed |= j.buttonState
	}
	if j.selectBits&0x10 == 0 {
		pressed |= j.directionState
	}
	return 0xC0 | j.selectBits | (^pressed & 0x0F)
}

func (j *Joypad) WriteP1(v byte) {
	newlySelected := j.selectBits &^ (v & 0x30) // select lines that went 1->0
	j.selectBits = v & 0x30
	exposed := (newlySelected&0x20 != 0 && j.buttonState != 0) ||
		(newlySelected&0x10 != 0 && j.directionState != 0)
	if exposed && j.requestInterrupt != nil {
		j.requestInterrupt()
	}
}

func (j *Joypad) PressButton(btn Button)   { j.press(&j.buttonState, btn, j.selectBits&0x20 == 0) }
func (j *Joypad) ReleaseButton(btn Button) { j.buttonState &^= uint8(btn) }
func (j *Joypad) PressDirection(btn Button) {
	j.press(&j.directionState, btn, j.selectBits&0x10 == 0)
}
func (j *Joypad) ReleaseDirection(btn Button) { j.directionState &^= uint8(btn) }

func (j *Joypad) press(state *uint8, btn Button, rowSelected bool) {
	wasPressed := *state&uint8(btn) != 0
	*state |= uint8(btn)
	if rowSelected && !wasPressed && j.requestInterrupt != nil {
		j.requestInterrupt()
	}
}

// RegisterRaw/SetRegisterRaw and StateRaw/SetStateRaw expose the select bits
// and both button rows for save-state framing.
func (j *Joypad) RegisterRaw() uint8    { return j.selectBits }
func (j *Joypad) SetRegisterRaw(v uint8) { j.selectBits = v & 0x30 }
func (j *Joypad) StateRaw() (buttons, directions uint8) {
	return j.buttonState, j.directionState
}
func (j *Joypad) SetStateRaw(buttons, directions uint8) {
	j.buttonState, j.directionState = buttons, directions
}
