package dto

import "time"

// SessionRecord - summary of one finished instrument session
type SessionRecord struct {
	ID           uint64        `json:"ID"`
	Peer         string        `json:"Peer"`
	Started      time.Time     `json:"Started"`
	Finished     time.Time     `json:"Finished"`
	Duration     time.Duration `json:"Duration"`
	Frames       uint64        `json:"Frames"`
	DecodeErrors uint64        `json:"DecodeErrors"`
	ControlBytes uint64        `json:"ControlBytes"`
	BytesIn      uint64        `json:"BytesIn"`
	BytesOut     uint64        `json:"BytesOut"`
	Reason       string        `json:"Reason"`
}
