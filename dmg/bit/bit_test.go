package bit

import "testing"

func TestCombine(t *testing.T) {
	tests := []struct {
		high, low uint8
		expected  uint16
	}{
		{0xAB, 0xCD, 0xABCD},
		{0x00, 0x00, 0x0000},
		{0xFF, 0xFF, 0xFFFF},
		{0x12, 0x34, 0x1234},
	}

	for _, tt := range tests {
		result := Combine(tt.high, tt.low)
		if result != tt.expected {
			t.Errorf("Combine(%X, %X) = %X; want %X", tt.high, tt.low, result, tt.expected)
		}
	}
}

func TestLow(t *testing.T) {
	tests := []struct {
		value    uint16
		expected uint8
	}{
		{0xABCD, 0xCD},
		{0x0000, 0x00},
		{0xFFFF, 0xFF},
		{0x1234, 0x34},
	}

	for _, tt := range tests {
		result := Low(tt.value)
		if result != tt.expected {
			t.Errorf("Low(%X) = %X; want %X", tt.value, result, tt.expected)
		}
	}
}

func TestHigh(t *testing.T) {
	tests := []struct {
		value    uint16
		expected uint8
	}{
		{0xABCD, 0xAB},
		{0x0000, 0x00},
		{0xFFFF, 0xFF},
		{0x1234, 0x12},
	}

	for _, tt := range tests {
		result := High(tt.value)
		if result != tt.expected {
			t.Errorf("High(%X) = %X; want %X", tt.value, result, tt.expected)
		}
	}
}

func TestIsSet(t *testing.T) {
	tests := []struct {
		byte     uint8
		index    uint8
		expected bool
	}{
		{0b10101010, 0, false},
		{0b10101010, 1, true},
		{0b10101010, 2, false},
		{0b10101010, 7, true},
	}

	for _, tt := range tests {
		result := IsSet(tt.index, tt.byte)
		if result != tt.expected {
			t.Errorf("IsSet(%d, %08b) = %v; want %v", tt.index, tt.byte, result, tt.expected)
		}
	}
}

func TestIsSet16(t *testing.T) {
	tests := []struct {
		value    uint16
		index    uint8
		expected bool
	}{
		{0xFF00, 8, true},
		{0xFF00, 7, false},
		{0x0001, 0, true},
		{0x8000, 15, true},
	}

	for _, tt := range tests {
		result := IsSet16(tt.index, tt.value)
		if result != tt.expected {
			t.Errorf("IsSet16(%d, %016b) = %v; want %v", tt.index, tt.value, result, tt.expected)
		}
	}
}

func TestSet(t *testing.T) {
	tests := []struct {
		byte     uint8
		index    uint8
		expected uint8
	}{
		{0b10101010, 0, 0b10101011},
		{0b10101010, 2, 0b10101110},
		{0b10101010, 7, 0b10101010},
	}

	for _, tt := range tests {
		result := Set(tt.index, tt.byte)
		if result != tt.expected {
			t.Errorf("Set(%d, %08b) = %08b; want %08b", tt.index, tt.byte, result, tt.expected)
		}
	}
}

func TestReset(t *testing.T) {
	tests := []struct {
		byte     uint8
		index    uint8
		expected uint8
	}{
		{0b10101011, 0, 0b10101010},
		{0b10101011, 1, 0b10101001},
		{0b10101011, 7, 0b00101011},
	}

	for _, tt := range tests {
		result := Reset(tt.index, tt.byte)
		if result != tt.expected {
			t.Errorf("Reset(%d, %08b) = %08b; want %08b", tt.index, tt.byte, result, tt.expected)
		}
	}
}

func TestSetTo(t *testing.T) {
	tests := []struct {
		byte     uint8
		index    uint8
		on       bool
		expected uint8
	}{
		{0b00000000, 3, true, 0b00001000},
		{0b00001000, 3, false, 0b00000000},
		{0b11111111, 0, true, 0b11111111},
		{0b11111111, 0, false, 0b11111110},
	}

	for _, tt := range tests {
		result := SetTo(tt.index, tt.byte, tt.on)
		if result != tt.expected {
			t.Errorf("SetTo(%d, %08b, %v) = %08b; want %08b", tt.index, tt.byte, tt.on, result, tt.expected)
		}
	}
}

func TestExtractBits(t *testing.T) {
	tests := []struct {
		value          uint8
		lowBit, width  uint8
		expected       uint8
	}{
		{0b11010110, 1, 3, 0b011},
		{0b11010110, 4, 4, 0b1101},
		{0b11010110, 0, 1, 0},
		{0xFF, 0, 8, 0xFF},
	}

	for _, tt := range tests {
		result := ExtractBits(tt.value, tt.lowBit, tt.width)
		if result != tt.expected {
			t.Errorf("ExtractBits(%08b, %d, %d) = %08b; want %08b", tt.value, tt.lowBit, tt.width, result, tt.expected)
		}
	}
}
