package core

import (
	"errors"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written MUS serializers for the stored record types. Field order is
// part of the on-disk format and must not change.

// ErrNegativeLength indicates a corrupted length prefix.
var ErrNegativeLength = errors.New("negative length")

// IDMUS serializes ID values.
var IDMUS = idMUS{}

type idMUS struct{}

func (idMUS) Marshal(v ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (idMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	u, n, err := varint.Uint64.Unmarshal(bs)
	return ID(u), n, err
}

func (idMUS) Size(v ID) (size int) {
	return varint.Uint64.Size(uint64(v))
}

func (idMUS) Skip(bs []byte) (n int, err error) {
	return varint.Uint64.Skip(bs)
}

// EntryMUS serializes Entry values.
var EntryMUS = entryMUS{}

type entryMUS struct{}

func (entryMUS) Marshal(v Entry, bs []byte) (n int) {
	n = ord.String.Marshal(string(v.Key.Source), bs)
	n += varint.Int.Marshal(v.Key.Book, bs[n:])
	n += ord.String.Marshal(v.Key.Entry, bs[n:])
	n += ord.String.Marshal(v.Text, bs[n:])
	n += ord.Bool.Marshal(v.Marked, bs[n:])
	n += ord.Bool.Marshal(v.Reflectable, bs[n:])
	n += marshalVector(v.Vector, bs[n:])
	n += varint.Int64.Marshal(v.InsertedAt.UnixMicro(), bs[n:])
	n += varint.Int64.Marshal(v.UpdatedAt.UnixMicro(), bs[n:])
	return n
}

func (entryMUS) Unmarshal(bs []byte) (v Entry, n int, err error) {
	var (
		n1       int
		source   string
		inserted int64
		updated  int64
	)
	source, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Key.Source = Source(source)
	v.Key.Book, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Key.Entry, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Marked, n1, err = ord.Bool.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Reflectable, n1, err = ord.Bool.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Vector, n1, err = unmarshalVector(bs[n:])
	n += n1
	if err != nil {
		return
	}
	inserted, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.InsertedAt = time.UnixMicro(inserted).UTC()
	updated, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.UpdatedAt = time.UnixMicro(updated).UTC()
	return
}

func (entryMUS) Size(v Entry) (size int) {
	size = ord.String.Size(string(v.Key.Source))
	size += varint.Int.Size(v.Key.Book)
	size += ord.String.Size(v.Key.Entry)
	size += ord.String.Size(v.Text)
	size += ord.Bool.Size(v.Marked)
	size += ord.Bool.Size(v.Reflectable)
	size += sizeVector(v.Vector)
	size += varint.Int64.Size(v.InsertedAt.UnixMicro())
	size += varint.Int64.Size(v.UpdatedAt.UnixMicro())
	return size
}

// ViewMUS serializes View values.
var ViewMUS = viewMUS{}

type viewMUS struct{}

func (viewMUS) Marshal(v View, bs []byte) (n int) {
	n = IDMUS.Marshal(v.EntryID, bs)
	n += varint.Int.Marshal(int(v.Mode), bs[n:])
	n += varint.Int.Marshal(v.Rating, bs[n:])
	n += varint.Int64.Marshal(v.Timestamp.UnixMicro(), bs[n:])
	return n
}

func (viewMUS) Unmarshal(bs []byte) (v View, n int, err error) {
	var (
		n1   int
		mode int
		ts   int64
	)
	v.EntryID, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	mode, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Mode = ViewMode(mode)
	v.Rating, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	ts, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Timestamp = time.UnixMicro(ts).UTC()
	return
}

func (viewMUS) Size(v View) (size int) {
	size = IDMUS.Size(v.EntryID)
	size += varint.Int.Size(int(v.Mode))
	size += varint.Int.Size(v.Rating)
	size += varint.Int64.Size(v.Timestamp.UnixMicro())
	return size
}

// marshalVector writes a length-prefixed float32 slice.
func marshalVector(v []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return n
}

func unmarshalVector(bs []byte) (v []float32, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length < 0 {
		return nil, n, ErrNegativeLength
	}
	if length == 0 {
		return nil, n, nil
	}
	v = make([]float32, length)
	var n1 int
	for i := range v {
		v[i], n1, err = raw.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
	}
	return v, n, nil
}

func sizeVector(v []float32) (size int) {
	size = varint.Int.Size(len(v))
	for _, f := range v {
		size += raw.Float32.Size(f)
	}
	return size
}
