/*
Package sessiondata - session journal on top of bbolt
*/
package sessiondata

import (
	"errors"
	"fmt"
	"time"

	"github.com/blabu/nanoporeLinkService/data"
	"github.com/blabu/nanoporeLinkService/dto"
	log "github.com/blabu/nanoporeLinkService/logWrapper"

	bolt "go.etcd.io/bbolt"
)

// ErrNotFound - no record with such ID
var ErrNotFound = errors.New("session record not found")

type boltSessionJournal struct {
	db *bolt.DB
}

// InitSessionDB - opens (or creates) the journal file
func InitSessionDB(path string) (data.ISessionJournal, error) {
	if len(path) == 0 {
		path = "./sessions.db"
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("can not open session journal %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, er := tx.CreateBucketIfNotExists([]byte(Sessions))
		return er
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	log.Infof("Session journal %s opened", path)
	return &boltSessionJournal{db: db}, nil
}

func (d *boltSessionJournal) Save(rec dto.SessionRecord) (uint64, error) {
	err := update([]byte(Sessions), d.db, func(b *bolt.Bucket) error {
		id, err := b.NextSequence()
		if err != nil {
			return err
		}
		rec.ID = id
		value, err := serialize(&rec)
		if err != nil {
			return err
		}
		return b.Put(uint64ToBytes(id), value)
	})
	if err != nil {
		return 0, err
	}
	log.Tracef("Session %d from %s saved", rec.ID, rec.Peer)
	return rec.ID, nil
}

func (d *boltSessionJournal) Get(ID uint64) (dto.SessionRecord, error) {
	var rec dto.SessionRecord
	err := view([]byte(Sessions), d.db, func(b *bolt.Bucket) error {
		value := b.Get(uint64ToBytes(ID))
		if value == nil {
			return ErrNotFound
		}
		var er error
		rec, er = deserialize(value)
		return er
	})
	return rec, err
}

func (d *boltSessionJournal) Last(n int) ([]dto.SessionRecord, error) {
	res := make([]dto.SessionRecord, 0, n)
	if n <= 0 {
		return res, nil
	}
	err := view([]byte(Sessions), d.db, func(b *bolt.Bucket) error {
		c := b.Cursor()
		for k, v := c.Last(); k != nil && len(res) < n; k, v = c.Prev() {
			rec, err := deserialize(v)
			if err != nil {
				log.Warningf("Broken session record %d: %v", bytesToUint64(k), err)
				continue
			}
			res = append(res, rec)
		}
		return nil
	})
	return res, err
}

func (d *boltSessionJournal) ForEach(callBack func(rec dto.SessionRecord) error) error {
	return view([]byte(Sessions), d.db, func(b *bolt.Bucket) error {
		return b.ForEach(func(k, v []byte) error {
			rec, err := deserialize(v)
			if err != nil {
				log.Warningf("Broken session record %d: %v", bytesToUint64(k), err)
				return nil
			}
			return callBack(rec)
		})
	})
}

func (d *boltSessionJournal) Close() error {
	return d.db.Close()
}
