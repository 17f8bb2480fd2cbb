package disklog

import (
	"bytes"
	"encoding/binary"
	"time"

	"github.com/go-pluto/entropy/merkle"
	"github.com/go-pluto/entropy/vclock"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

// Variables

// blocksBucket is the single bucket all data
// blocks of one replica shard live in.
var blocksBucket = []byte("blocks")

// Structs

// Log is the durable record of all data blocks a replica
// currently holds, so that the in-memory index and with
// it the hash tree can be rebuilt after a restart. It is
// written on the local write path and read once on
// startup, the hash-tree core itself never touches disk.
type Log struct {
	db *bolt.DB
}

// Functions

// OpenLog opens or creates the block log file at
// supplied path and makes sure the bucket exists.
func OpenLog(path string) (*Log, error) {

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: (1 * time.Second)})
	if err != nil {
		return nil, errors.Wrapf(err, "opening block log at '%s' failed", path)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(blocksBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating blocks bucket failed")
	}

	return &Log{db: db}, nil
}

// Put persists supplied data block, replacing a prior
// version stored under the same key.
func (l *Log) Put(block *merkle.DataBlock) error {

	return l.db.Update(func(tx *bolt.Tx) error {

		err := tx.Bucket(blocksBucket).Put(block.Key, encodeBlock(block))
		if err != nil {
			return errors.Wrapf(err, "persisting block under key '%s' failed", block.Key)
		}

		return nil
	})
}

// Remove deletes the block stored under supplied key.
// Removing an absent key is a no-op.
func (l *Log) Remove(key []byte) error {

	return l.db.Update(func(tx *bolt.Tx) error {

		err := tx.Bucket(blocksBucket).Delete(key)
		if err != nil {
			return errors.Wrapf(err, "removing block under key '%s' failed", key)
		}

		return nil
	})
}

// Walk calls supplied function once per persisted block,
// in ascending key order. It is used on startup to refill
// a replica's index.
func (l *Log) Walk(fn func(*merkle.DataBlock) error) error {

	return l.db.View(func(tx *bolt.Tx) error {

		return tx.Bucket(blocksBucket).ForEach(func(key []byte, value []byte) error {

			block, err := decodeBlock(key, value)
			if err != nil {
				return err
			}

			return fn(block)
		})
	})
}

// Close releases the underlying database file.
func (l *Log) Close() error {
	return l.db.Close()
}

// encodeBlock serializes value and vector clock of one
// block: the value length as uvarint, the value bytes,
// then the canonical vector clock form.
func encodeBlock(block *merkle.DataBlock) []byte {

	buf := new(bytes.Buffer)

	length := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(length, uint64(len(block.Value)))

	buf.Write(length[:n])
	buf.Write(block.Value)
	buf.Write(block.VClock.CanonicalBytes())

	return buf.Bytes()
}

// decodeBlock reads a block back from its stored form.
func decodeBlock(key []byte, stored []byte) (*merkle.DataBlock, error) {

	buf := bytes.NewBuffer(stored)

	length, err := binary.ReadUvarint(buf)
	if err != nil {
		return nil, errors.Wrapf(err, "reading value length under key '%s' failed", key)
	}

	if uint64(buf.Len()) < length {
		return nil, errors.Errorf("truncated value under key '%s'", key)
	}

	value := make([]byte, length)
	if _, err := buf.Read(value); err != nil {
		return nil, errors.Wrapf(err, "reading value under key '%s' failed", key)
	}

	vc, err := vclock.Parse(buf.String())
	if err != nil {
		return nil, errors.Wrapf(err, "reading vector clock under key '%s' failed", key)
	}

	return merkle.InitDataBlock(key, value, vc)
}
