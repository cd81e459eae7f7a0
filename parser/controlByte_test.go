package parser

import (
	"errors"
	"testing"

	"github.com/blabu/nanoporeLinkService/dto"
)

func TestEncodeControlVector(t *testing.T) {
	cases := []struct {
		bits dto.ControlVector
		want byte
	}{
		{dto.ControlVector{1, 0, 1, 0, 1, 0, 1, 0}, 0xAA},
		{dto.ControlVector{0, 0, 0, 0, 0, 0, 0, 0}, 0x00},
		{dto.ControlVector{1, 1, 1, 1, 1, 1, 1, 1}, 0xFF},
		{dto.ControlVector{1, 0, 0, 0, 0, 0, 0, 0}, 0x80},
		{dto.ControlVector{0, 0, 0, 0, 0, 0, 0, 1}, 0x01},
	}
	for _, c := range cases {
		got, err := EncodeControlVector(c.bits)
		if err != nil {
			t.Fatalf("%v: %v", c.bits, err)
		}
		if got != c.want {
			t.Fatalf("%v: got %#x, want %#x", c.bits, got, c.want)
		}
	}
}

func TestEncodeControlVectorInvalid(t *testing.T) {
	cases := []dto.ControlVector{
		nil,
		{},
		{1, 0, 1},
		{1, 0, 1, 0, 1, 0, 1},
		{1, 0, 1, 0, 1, 0, 1, 0, 1},
		{1, 0, 1, 0, 2, 0, 1, 0},
		{-1, 0, 0, 0, 0, 0, 0, 0},
	}
	for _, bits := range cases {
		if _, err := EncodeControlVector(bits); !errors.Is(err, ErrInvalidControlVector) {
			t.Fatalf("%v: expected ErrInvalidControlVector, got %v", bits, err)
		}
	}
}

func TestUnpackPackRoundTrip(t *testing.T) {
	for _, order := range []BitOrder{MSBFirst, LSBFirst} {
		for v := 0; v < 256; v++ {
			bits := UnpackControlByteOrder(byte(v), order)
			b, err := EncodeControlVectorOrder(bits, order)
			if err != nil {
				t.Fatalf("%s %d: %v", order, v, err)
			}
			if b != byte(v) {
				t.Fatalf("%s: %d round trips to %d", order, v, b)
			}
			again := UnpackControlByteOrder(b, order)
			for i := range bits {
				if bits[i] != again[i] {
					t.Fatalf("%s: vector %v changed to %v", order, bits, again)
				}
			}
		}
	}
}

func TestLSBFirstReversesVector(t *testing.T) {
	b, err := EncodeControlVectorOrder(dto.ControlVector{1, 1, 0, 0, 0, 0, 0, 0}, LSBFirst)
	if err != nil {
		t.Fatal(err)
	}
	if b != 0x03 {
		t.Fatalf("got %#x, want 0x03", b)
	}
}

func TestParseBitOrder(t *testing.T) {
	for in, want := range map[string]BitOrder{"": MSBFirst, "msb-first": MSBFirst, "LSB-First": LSBFirst, "lsb": LSBFirst} {
		got, err := ParseBitOrder(in)
		if err != nil || got != want {
			t.Fatalf("%q: got %v %v", in, got, err)
		}
	}
	if _, err := ParseBitOrder("middle-out"); err == nil {
		t.Fatal("expected error")
	}
}

func TestFormatControlByte(t *testing.T) {
	if s := FormatControlByte(0x0A); s != "0b00001010" {
		t.Fatalf("got %s", s)
	}
}
