package sessiondata

import (
	"encoding/binary"
	"encoding/json"
	"errors"

	"github.com/blabu/nanoporeLinkService/dto"
	bolt "go.etcd.io/bbolt"
)

var errNoBucket = errors.New("Bucket does not exist")

func update(buckName []byte, db *bolt.DB, handler func(*bolt.Bucket) error) error {
	return db.Update(
		func(tx *bolt.Tx) error {
			buck, err := tx.CreateBucketIfNotExists(buckName)
			if err != nil {
				return err
			}
			return handler(buck)
		})
}

func view(buckName []byte, db *bolt.DB, handler func(*bolt.Bucket) error) error {
	return db.View(
		func(tx *bolt.Tx) error {
			buck := tx.Bucket(buckName)
			if buck == nil {
				return errNoBucket
			}
			return handler(buck)
		})
}

// keys are big endian so the cursor walks records in creation order
func uint64ToBytes(val uint64) []byte {
	res := make([]byte, 8)
	binary.BigEndian.PutUint64(res, val)
	return res
}

func bytesToUint64(bytes []byte) uint64 {
	if len(bytes) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(bytes)
}

func serialize(rec *dto.SessionRecord) ([]byte, error) {
	return json.Marshal(rec)
}

func deserialize(dat []byte) (dto.SessionRecord, error) {
	var rec dto.SessionRecord
	err := json.Unmarshal(dat, &rec)
	return rec, err
}
