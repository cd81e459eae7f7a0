package stat

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/atomic"

	log "github.com/blabu/nanoporeLinkService/logWrapper"
)

// S_VERSION - service version
const S_VERSION = "v1.0.0"

// Statistics - base metrics of the instrument link
type Statistics struct {
	ServerVersion           string
	TimeUP                  time.Time
	AllConnection           atomic.Uint32
	NowConnected            atomic.Int32
	MaxCuncurentConnection  atomic.Int32
	FramesReceived          atomic.Uint64
	DecodeErrors            atomic.Uint64
	ControlBytesSent        atomic.Uint64
	WriteErrors             atomic.Uint64
	MaxTimeForOneConnection atomic.Duration
	rwM                     sync.RWMutex
	ipAddresses             map[string]AllIP
}

// AllIP - connection counter of one peer address
type AllIP struct {
	IP               string    `json:"IP"`
	Count            uint32    `json:"Count"`
	TimeLastActivity time.Time `json:"LastTime"`
}

// Snapshot - plain copy of Statistics for export
type Snapshot struct {
	ServerVersion           string           `json:"version"`
	TimeUP                  time.Time        `json:"timeUP"`
	AllConnection           uint32           `json:"allConnection"`
	NowConnected            int32            `json:"nowConnected"`
	MaxCuncurentConnection  int32            `json:"maxConcurentConnection"`
	FramesReceived          uint64           `json:"framesReceived"`
	DecodeErrors            uint64           `json:"decodeErrors"`
	ControlBytesSent        uint64           `json:"controlBytesSent"`
	WriteErrors             uint64           `json:"writeErrors"`
	MaxTimeForOneConnection time.Duration    `json:"oneConnectionMax"`
	IPAddresses             map[string]AllIP `json:"allIP"`
}

// CreateStatistics - creates object with statistics
func CreateStatistics() *Statistics {
	return &Statistics{
		ServerVersion: S_VERSION,
		TimeUP:        time.Now(),
		ipAddresses:   make(map[string]AllIP, 1),
	}
}

// NewConnection - registers a new connection
func (s *Statistics) NewConnection() {
	s.AllConnection.Inc()
	now := s.NowConnected.Inc()
	for {
		max := s.MaxCuncurentConnection.Load()
		if now <= max || s.MaxCuncurentConnection.CAS(max, now) {
			return
		}
	}
}

//CloseConnection - registers the end of a connection and its duration
func (s *Statistics) CloseConnection(dt time.Duration) {
	s.NowConnected.Dec()
	for {
		max := s.MaxTimeForOneConnection.Load()
		if dt <= max || s.MaxTimeForOneConnection.CAS(max, dt) {
			return
		}
	}
}

// AddIPAddres - increments the connection counter of the peer and returns the new value
func (s *Statistics) AddIPAddres(addr string) uint32 {
	s.rwM.Lock()
	defer s.rwM.Unlock()
	res := s.ipAddresses[addr]
	res.Count++
	res.IP = addr
	res.TimeLastActivity = time.Now()
	s.ipAddresses[addr] = res
	return res.Count
}

// Snapshot - consistent copy of the counters
func (s *Statistics) Snapshot() Snapshot {
	s.rwM.RLock()
	ips := make(map[string]AllIP, len(s.ipAddresses))
	for k, v := range s.ipAddresses {
		ips[k] = v
	}
	s.rwM.RUnlock()
	return Snapshot{
		ServerVersion:           s.ServerVersion,
		TimeUP:                  s.TimeUP,
		AllConnection:           s.AllConnection.Load(),
		NowConnected:            s.NowConnected.Load(),
		MaxCuncurentConnection:  s.MaxCuncurentConnection.Load(),
		FramesReceived:          s.FramesReceived.Load(),
		DecodeErrors:            s.DecodeErrors.Load(),
		ControlBytesSent:        s.ControlBytesSent.Load(),
		WriteErrors:             s.WriteErrors.Load(),
		MaxTimeForOneConnection: s.MaxTimeForOneConnection.Load(),
		IPAddresses:             ips,
	}
}

func (s *Statistics) GetJsonStat() []byte {
	res, err := json.Marshal(s.Snapshot())
	if err != nil {
		log.Warning(err.Error())
		return []byte{}
	}
	return res
}
