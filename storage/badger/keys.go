package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/stoa/core"
)

// Key prefixes for different data types
const (
	entryRecordPrefix = "entrec"
	entrySourcePrefix = "entsrc"
	viewRecordPrefix  = "viewrec"
)

// makeEntryKey generates a key for an entry by its derived ID.
func makeEntryKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", entryRecordPrefix, id))
}

// makeEntrySourceKey generates a composite key for the source index.
// Format: prefix:source:id
func makeEntrySourceKey(source core.Source, id core.ID) []byte {
	prefix := entrySourcePrefix + ":" + string(source) + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	// BigEndian so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialEntrySourceKey generates a partial key for source scans.
func makePartialEntrySourceKey(source core.Source) []byte {
	return []byte(entrySourcePrefix + ":" + string(source) + ":")
}

// makeViewKey generates a composite key for a view record.
// Format: prefix:entryID:timestamp, BigEndian so views of one entry sort
// chronologically under their prefix.
func makeViewKey(entryID core.ID, timestamp time.Time) []byte {
	prefix := viewRecordPrefix + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+16)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(entryID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	return buf
}

// makePartialViewKey generates a partial key covering all views of an entry.
func makePartialViewKey(entryID core.ID) []byte {
	prefix := viewRecordPrefix + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(entryID))
	return buf
}
