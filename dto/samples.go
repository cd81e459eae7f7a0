package dto

// Frame geometry of the instrument link
const (
	ChannelsCount     = 4
	SamplesPerChannel = 16
	FrameSamples      = (ChannelsCount + 1) * SamplesPerChannel // four value blocks and one shared time block
	FrameSize         = FrameSamples * 2
	ControlBits       = 8
)

// ChannelNames - order of the value blocks inside one frame
var ChannelNames = [ChannelsCount]string{"A", "B", "C", "D"}

// ControlVector - state of the 8 output lines, element 0 first. Every element is 0 or 1
type ControlVector []int

// SampleFrame - one decoded frame from the instrument
type SampleFrame [FrameSamples]int16

// Channel - value block of channel i (0..3)
func (f *SampleFrame) Channel(i int) []int16 {
	res := make([]int16, SamplesPerChannel)
	copy(res, f[i*SamplesPerChannel:(i+1)*SamplesPerChannel])
	return res
}

// Time - timestamp block shared by all channels
func (f *SampleFrame) Time() []int16 {
	res := make([]int16, SamplesPerChannel)
	copy(res, f[ChannelsCount*SamplesPerChannel:])
	return res
}

// Batch - converts the frame into per channel (time, value) pairs
func (f *SampleFrame) Batch(seq uint64) SampleBatch {
	b := SampleBatch{
		Seq:      seq,
		Channels: make([]ChannelSamples, ChannelsCount),
	}
	for i, name := range ChannelNames {
		b.Channels[i] = ChannelSamples{
			Name:  name,
			Time:  f.Time(),
			Value: f.Channel(i),
		}
	}
	return b
}

// ChannelSamples - parallel time/value sequences of one channel
type ChannelSamples struct {
	Name  string  `json:"name"`
	Time  []int16 `json:"time"`
	Value []int16 `json:"value"`
}

// SampleBatch - data of one frame keyed by channel.
// A batch without channels marks the end of a session (the panel clears its plot)
type SampleBatch struct {
	Seq      uint64           `json:"seq"`
	Channels []ChannelSamples `json:"channels"`
}

// IsEmpty - true for the terminal marker
func (b SampleBatch) IsEmpty() bool {
	return len(b.Channels) == 0
}

// Get - samples of the channel by name
func (b SampleBatch) Get(name string) (ChannelSamples, bool) {
	for _, c := range b.Channels {
		if c.Name == name {
			return c, true
		}
	}
	return ChannelSamples{}, false
}
