/*
Package parser - binary codec of the instrument link.

 *Protocol.
 *Instrument -> server: fixed frame of 160 bytes, 80 signed 16 bit integers in big endian
 *	bytes   0..31  - channel A values (16 samples)
 *	bytes  32..63  - channel B values
 *	bytes  64..95  - channel C values
 *	bytes  96..127 - channel D values
 *	bytes 128..159 - timestamps shared by all four channels
 *Server -> instrument: one control byte, 8 output lines packed most significant bit first
*/
package parser

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/blabu/nanoporeLinkService/dto"
)

// ErrShortFrame - buffer length is not equal to one frame
var ErrShortFrame = errors.New("short frame")

//DecodeSampleFrame - interprets exactly dto.FrameSize bytes as one frame
func DecodeSampleFrame(buf []byte) (dto.SampleFrame, error) {
	var f dto.SampleFrame
	if len(buf) != dto.FrameSize {
		return f, fmt.Errorf("%w: got %d bytes, need %d", ErrShortFrame, len(buf), dto.FrameSize)
	}
	for i := range f {
		f[i] = int16(binary.BigEndian.Uint16(buf[2*i:]))
	}
	return f, nil
}

//EncodeSampleFrame - inverse of DecodeSampleFrame, used by the instrument side
func EncodeSampleFrame(f dto.SampleFrame) []byte {
	buf := make([]byte, dto.FrameSize)
	for i, v := range f {
		binary.BigEndian.PutUint16(buf[2*i:], uint16(v))
	}
	return buf
}
