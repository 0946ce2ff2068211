package memory

import "testing"

func TestTimerDIVIncrements(t *testing.T) {
	tm := NewTimer(nil)
	tm.Reset()
	for i := 0; i < 64; i++ { // 64 machine cycles = 256 T-states
		tm.Tick()
	}
	if got := tm.ReadDIV(); got != 1 {
		t.Errorf("DIV after 256 T-states = %d; want 1", got)
	}
}

func TestTimerTIMAOverflowReloadsAndInterrupts(t *testing.T) {
	fired := false
	tm := NewTimer(func() { fired = true })
	tm.Reset()
	tm.WriteTMA(0x12)
	tm.WriteTIMA(0xFF)
	tm.WriteTAC(0x07) // enabled, tap bit 7: exactly one falling edge after 64 ticks

	for i := 0; i < 64; i++ {
		tm.Tick()
	}

	if tm.ReadTIMA() != 0x12 {
		t.Errorf("TIMA after overflow = 0x%02X; want 0x12", tm.ReadTIMA())
	}
	if !fired {
		t.Error("expected Timer interrupt on TIMA overflow")
	}
}

func TestTimerWriteDIVResetsCounter(t *testing.T) {
	tm := NewTimer(nil)
	tm.Reset()
	for i := 0; i < 1000; i++ {
		tm.Tick()
	}
	tm.WriteDIV(0xFF)
	if tm.ReadDIV() != 0 {
		t.Errorf("DIV after write = %d; want 0", tm.ReadDIV())
	}
}

func TestTimerDisabledNeverTicksTIMA(t *testing.T) {
	fired := false
	tm := NewTimer(func() { fired = true })
	tm.Reset()
	tm.WriteTAC(0x00) // disabled
	for i := 0; i < 100000; i++ {
		tm.Tick()
	}
	if tm.ReadTIMA() != 0 {
		t.Errorf("TIMA = %d; want 0 while timer disabled", tm.ReadTIMA())
	}
	if fired {
		t.Error("did not expect Timer interrupt while disabled")
	}
}

func TestTimerTACReadMasksUnusedBits(t *testing.T) {
	tm := NewTimer(nil)
	tm.WriteTAC(0x02)
	if got := tm.ReadTAC(); got != 0xFA {
		t.Errorf("ReadTAC() = 0x%02X; want 0xFA", got)
	}
}
