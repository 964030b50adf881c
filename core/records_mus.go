package core

import (
	"math"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the persisted records. Field order is the wire
// format; append new fields at the end only.

var (
	IDMUS       = idMUS{}
	PassageMUS  = passageMUS{}
	ManifestMUS = manifestMUS{}
)

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

type passageMUS struct{}

func (passageMUS) Marshal(v Passage, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.Text, bs[n:])
	n += ord.String.Marshal(v.Interpretation, bs[n:])
	n += IDMUS.Marshal(v.ContentHash, bs[n:])
	n += vectorMUS.Marshal(v.Vector, bs[n:])
	n += timeMUS.Marshal(v.InsertedAt, bs[n:])
	n += timeMUS.Marshal(v.UpdatedAt, bs[n:])
	return
}

func (passageMUS) Unmarshal(bs []byte) (v Passage, n int, err error) {
	r := reader{bs: bs}
	v.Id = r.id()
	v.Text = r.str()
	v.Interpretation = r.str()
	v.ContentHash = r.id()
	v.Vector = r.vector()
	v.InsertedAt = r.time()
	v.UpdatedAt = r.time()
	return v, r.n, r.err
}

func (passageMUS) Size(v Passage) (size int) {
	size = IDMUS.Size(v.Id)
	size += ord.String.Size(v.Text)
	size += ord.String.Size(v.Interpretation)
	size += IDMUS.Size(v.ContentHash)
	size += vectorMUS.Size(v.Vector)
	size += timeMUS.Size(v.InsertedAt)
	return size + timeMUS.Size(v.UpdatedAt)
}

type manifestMUS struct{}

func (manifestMUS) Marshal(v Manifest, bs []byte) (n int) {
	n = ord.String.Marshal(v.Collection, bs)
	n += IDMUS.Marshal(v.Fingerprint, bs[n:])
	n += varint.Int64.Marshal(int64(v.Rows), bs[n:])
	n += ord.String.Marshal(v.EmbeddingModel, bs[n:])
	n += timeMUS.Marshal(v.UpdatedAt, bs[n:])
	return
}

func (manifestMUS) Unmarshal(bs []byte) (v Manifest, n int, err error) {
	r := reader{bs: bs}
	v.Collection = r.str()
	v.Fingerprint = r.id()
	v.Rows = int(r.int64())
	v.EmbeddingModel = r.str()
	v.UpdatedAt = r.time()
	return v, r.n, r.err
}

func (manifestMUS) Size(v Manifest) (size int) {
	size = ord.String.Size(v.Collection)
	size += IDMUS.Size(v.Fingerprint)
	size += varint.Int64.Size(int64(v.Rows))
	size += ord.String.Size(v.EmbeddingModel)
	return size + timeMUS.Size(v.UpdatedAt)
}

// Vectors are a length prefix followed by IEEE-754 bit patterns.
var vectorMUS = vectorSer{}

type vectorSer struct{}

func (vectorSer) Marshal(v []float32, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(len(v)), bs)
	for _, f := range v {
		n += varint.Uint32.Marshal(math.Float32bits(f), bs[n:])
	}
	return
}

func (vectorSer) Size(v []float32) (size int) {
	size = varint.Uint64.Size(uint64(len(v)))
	for _, f := range v {
		size += varint.Uint32.Size(math.Float32bits(f))
	}
	return
}

// Times are stored as UTC microseconds since the epoch.
var timeMUS = timeSer{}

type timeSer struct{}

func (timeSer) Marshal(v time.Time, bs []byte) (n int) {
	return varint.Int64.Marshal(v.UnixMicro(), bs)
}

func (timeSer) Size(v time.Time) (size int) {
	return varint.Int64.Size(v.UnixMicro())
}

// reader sequences field unmarshalling and keeps the first error.
type reader struct {
	bs  []byte
	n   int
	err error
}

func (r *reader) id() ID {
	if r.err != nil {
		return 0
	}
	v, n, err := IDMUS.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	return v
}

func (r *reader) str() string {
	if r.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	return v
}

func (r *reader) int64() int64 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Int64.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	return v
}

func (r *reader) time() time.Time {
	micros := r.int64()
	if r.err != nil {
		return time.Time{}
	}
	return time.UnixMicro(micros).UTC()
}

func (r *reader) vector() []float32 {
	if r.err != nil {
		return nil
	}
	length, n, err := varint.Uint64.Unmarshal(r.bs[r.n:])
	r.n += n
	if err != nil {
		r.err = err
		return nil
	}
	if length == 0 {
		return nil
	}
	// Every element takes at least one byte
	if length > uint64(len(r.bs)-r.n) {
		r.err = ErrTruncatedVector
		return nil
	}
	v := make([]float32, length)
	for i := range v {
		bits, n, err := varint.Uint32.Unmarshal(r.bs[r.n:])
		r.n += n
		if err != nil {
			r.err = err
			return nil
		}
		v[i] = math.Float32frombits(bits)
	}
	return v
}
