package memory

import "testing"

func TestSerialImmediateTransferCompletesSynchronously(t *testing.T) {
	fired := false
	s := NewSerial(func() { fired = true }, true, nil)
	s.WriteSB('X')
	s.WriteSC(0x81)

	if s.ReadSB() != 0xFF {
		t.Errorf("SB after immediate transfer = 0x%02X; want 0xFF", s.ReadSB())
	}
	if s.ReadSC()&0x80 != 0 {
		t.Error("SC transfer-in-progress bit should be clear after immediate completion")
	}
	if !fired {
		t.Error("expected Serial interrupt after immediate transfer")
	}
}

func TestSerialTimedTransferCompletesAfterCycles(t *testing.T) {
	fired := false
	s := NewSerial(func() { fired = true }, false, nil)
	s.WriteSB('Y')
	s.WriteSC(0x81)

	if s.ReadSC()&0x80 == 0 {
		t.Fatal("expected transfer-in-progress bit set immediately after starting a timed transfer")
	}
	for i := 0; i < fixedTransferCycles-1; i++ {
		s.Tick()
	}
	if fired {
		t.Error("transfer completed too early")
	}
	s.Tick()
	if !fired {
		t.Error("expected Serial interrupt once cyclesRemaining reaches zero")
	}
	if s.ReadSB() != 0xFF {
		t.Errorf("SB after timed transfer = 0x%02X; want 0xFF", s.ReadSB())
	}
}

func TestSerialSCReadMasksUnusedBits(t *testing.T) {
	s := NewSerial(nil, true, nil)
	s.WriteSC(0x01)
	if got := s.ReadSC(); got != 0x7D {
		t.Errorf("ReadSC() = 0x%02X; want 0x7D", got)
	}
}

func TestSerialPeekDoesNotDrain(t *testing.T) {
	s := NewSerial(nil, true, nil)
	s.WriteSB('A')

	v, ok := s.Peek()
	if !ok || v != 'A' {
		t.Fatalf("Peek() = (0x%02X, %v); want ('A', true)", v, ok)
	}
	v, ok = s.Peek()
	if !ok || v != 'A' {
		t.Errorf("second Peek() = (0x%02X, %v); want ('A', true) again", v, ok)
	}
}

func TestSerialPopDrainsInOrder(t *testing.T) {
	s := NewSerial(nil, true, nil)
	s.WriteSB('A')
	s.WriteSB('B')
	s.WriteSB('C')

	for _, want := range []byte{'A', 'B', 'C'} {
		v, ok := s.Pop()
		if !ok || v != want {
			t.Fatalf("Pop() = (0x%02X, %v); want (%q, true)", v, ok, want)
		}
	}

	if _, ok := s.Pop(); ok {
		t.Error("Pop() on an empty FIFO should return ok=false")
	}
}

func TestSerialFIFODropsOldestWhenFull(t *testing.T) {
	s := NewSerial(nil, true, nil)
	for i := 0; i < serialFIFOCapacity+2; i++ {
		s.WriteSB(byte(i))
	}

	// The first two writes (0, 1) should have been evicted.
	v, ok := s.Pop()
	if !ok || v != 2 {
		t.Fatalf("first Pop() after overflow = (%d, %v); want (2, true)", v, ok)
	}
}
