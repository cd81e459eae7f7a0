package data

import "github.com/blabu/nanoporeLinkService/dto"

//ISessionJournal - storage of finished instrument sessions.
// Only the session summary is stored, samples and control bits are never persisted
type ISessionJournal interface {
	// Save - stores the record and returns its identifier
	Save(rec dto.SessionRecord) (uint64, error)
	Get(ID uint64) (dto.SessionRecord, error)
	// Last - up to n newest records, newest first
	Last(n int) ([]dto.SessionRecord, error)
	ForEach(callBack func(rec dto.SessionRecord) error) error
	Close() error
}
