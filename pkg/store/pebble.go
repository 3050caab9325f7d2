package store

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/cockroachdb/pebble"

	"chatsync/pkg/logger"
)

var db *pebble.DB

// idMu serializes ID allocation so identifiers are strictly increasing and
// never reused. markerMu serializes read-marker writes so advancement is an
// atomic set-if-greater.
var (
	idMu     sync.Mutex
	markerMu sync.Mutex
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Key layout:
//
//	user:<id20>                    user record
//	conv:<id20>:meta               conversation metadata
//	conv:<id20>:msg:<mid20>        message (ascending key order == id order)
//	conv:<id20>:marker:<uid20>     read marker
//	seq:msg / seq:conv / seq:user  decimal ID counters
func userKey(id int64) []byte {
	return []byte(fmt.Sprintf("user:%020d", id))
}

func convMetaKey(id int64) []byte {
	return []byte(fmt.Sprintf("conv:%020d:meta", id))
}

func msgKey(convID, msgID int64) []byte {
	return []byte(fmt.Sprintf("conv:%020d:msg:%020d", convID, msgID))
}

func msgPrefix(convID int64) []byte {
	return []byte(fmt.Sprintf("conv:%020d:msg:", convID))
}

func markerKey(convID, userID int64) []byte {
	return []byte(fmt.Sprintf("conv:%020d:marker:%020d", convID, userID))
}

// Open opens (or creates) a Pebble database at the given path and keeps a
// global handle for simple usage in this package.
func Open(path string) error {
	var err error
	logger.Info("opening_pebble_db", "path", path)
	db, err = pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return err
	}
	logger.Info("pebble_opened", "path", path)
	return nil
}

// Close closes the opened pebble DB if present.
func Close() error {
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return err
	}
	db = nil
	logger.Info("pebble_closed")
	return nil
}

// Ready reports whether the store is opened and ready.
func Ready() bool {
	return db != nil
}

var errNotOpen = errors.New("pebble not opened; call store.Open first")

// get reads a raw value; ErrNotFound when the key is absent.
func get(key []byte) ([]byte, error) {
	if db == nil {
		return nil, errNotOpen
	}
	v, closer, err := db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	out := append([]byte(nil), v...)
	if closer != nil {
		_ = closer.Close()
	}
	return out, nil
}

// nextID reads, increments and persists the named counter. Callers must hold
// idMu. The counter write is folded into batch when provided so a message and
// its ID allocation commit together.
func nextID(name string, batch *pebble.Batch) (int64, error) {
	key := []byte("seq:" + name)
	cur := int64(0)
	if v, err := get(key); err == nil {
		n, perr := strconv.ParseInt(string(v), 10, 64)
		if perr != nil {
			return 0, fmt.Errorf("corrupt counter %s: %w", name, perr)
		}
		cur = n
	} else if !errors.Is(err, ErrNotFound) {
		return 0, err
	}
	cur++
	val := []byte(strconv.FormatInt(cur, 10))
	if batch != nil {
		if err := batch.Set(key, val, nil); err != nil {
			return 0, err
		}
	} else {
		if err := db.Set(key, val, pebble.Sync); err != nil {
			return 0, err
		}
	}
	return cur, nil
}

// ListKeys returns all keys (as strings) that start with the given prefix.
// If prefix is empty it returns all keys in the DB. Used by inspection
// tooling.
func ListKeys(prefix string) ([]string, error) {
	if db == nil {
		return nil, errNotOpen
	}
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out []string
	pfx := []byte(prefix)
	for iter.SeekGE(pfx); iter.Valid(); iter.Next() {
		if len(pfx) > 0 && !bytes.HasPrefix(iter.Key(), pfx) {
			break
		}
		out = append(out, string(append([]byte(nil), iter.Key()...)))
	}
	return out, iter.Error()
}

// GetKey returns the raw value for the given key. Used by inspection tooling.
func GetKey(key string) (string, error) {
	v, err := get([]byte(key))
	if err != nil {
		return "", err
	}
	return string(v), nil
}

