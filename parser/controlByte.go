package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/blabu/nanoporeLinkService/dto"
)

// ErrInvalidControlVector - vector has not 8 elements or some element is not 0 or 1
var ErrInvalidControlVector = errors.New("invalid control vector")

// BitOrder - how the control vector is mapped onto the control byte
type BitOrder int

const (
	// MSBFirst - element 0 is the most significant bit
	MSBFirst BitOrder = iota
	// LSBFirst - element 0 is the least significant bit (vector reversed before packing)
	LSBFirst
)

// ParseBitOrder - "msb-first" (or empty) and "lsb-first"
func ParseBitOrder(s string) (BitOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "msb-first", "msb":
		return MSBFirst, nil
	case "lsb-first", "lsb":
		return LSBFirst, nil
	}
	return MSBFirst, fmt.Errorf("unknown control bit order %q", s)
}

func (o BitOrder) String() string {
	if o == LSBFirst {
		return "lsb-first"
	}
	return "msb-first"
}

//ValidateControlVector - checks length and values of the vector
func ValidateControlVector(bits dto.ControlVector) error {
	if len(bits) != dto.ControlBits {
		return fmt.Errorf("%w: need %d bits, got %d", ErrInvalidControlVector, dto.ControlBits, len(bits))
	}
	for i, b := range bits {
		if b != 0 && b != 1 {
			return fmt.Errorf("%w: bit %d is %d", ErrInvalidControlVector, i, b)
		}
	}
	return nil
}

//EncodeControlVector - packs the vector into one byte, element 0 is the most significant bit
func EncodeControlVector(bits dto.ControlVector) (byte, error) {
	return EncodeControlVectorOrder(bits, MSBFirst)
}

//EncodeControlVectorOrder - packs the vector into one byte using the given bit order
func EncodeControlVectorOrder(bits dto.ControlVector, order BitOrder) (byte, error) {
	if err := ValidateControlVector(bits); err != nil {
		return 0, err
	}
	var res byte
	for i, b := range bits {
		if b == 0 {
			continue
		}
		if order == LSBFirst {
			res |= 1 << uint(i)
		} else {
			res |= 1 << uint(dto.ControlBits-1-i)
		}
	}
	return res, nil
}

//UnpackControlByte - inverse of EncodeControlVector
func UnpackControlByte(b byte) dto.ControlVector {
	return UnpackControlByteOrder(b, MSBFirst)
}

//UnpackControlByteOrder - inverse of EncodeControlVectorOrder
func UnpackControlByteOrder(b byte, order BitOrder) dto.ControlVector {
	res := make(dto.ControlVector, dto.ControlBits)
	for i := range res {
		shift := uint(dto.ControlBits - 1 - i)
		if order == LSBFirst {
			shift = uint(i)
		}
		res[i] = int(b>>shift) & 1
	}
	return res
}

// FormatControlByte - "0b10101010" as shown in the status line
func FormatControlByte(b byte) string {
	return fmt.Sprintf("0b%08b", b)
}
