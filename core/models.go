package core

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/go-crypt/x/blake2b"
)

type ID uint64

func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// NoSelection marks a sub-query for which no backend's candidate is acceptable.
const NoSelection = -1

// Passage is one indexed narrative with its interpretation.
type Passage struct {
	Id             ID        // Content-derived from Text
	Text           string    // The indexed narrative
	Interpretation string    // Interpretation attached to the narrative
	ContentHash    ID        // Hash of Text and Interpretation, used to skip unchanged rows
	Vector         []float32 // Embedding of Text (populated during ingestion)
	InsertedAt     time.Time
	UpdatedAt      time.Time
}

// PassageID returns the storage ID for a passage text.
func PassageID(text string) ID {
	return IDFromContent(text)
}

// PassageHash returns the content hash for a passage and its interpretation.
func PassageHash(text, interpretation string) ID {
	return IDFromContent(text + "\x00" + interpretation)
}

type PassageMatch struct {
	Passage  *Passage
	Distance float64
}

// Candidate is the best retrieval result a single backend produced for a
// single sub-query.
type Candidate struct {
	BackendIndex   int
	SubQueryIndex  int
	Passage        string
	Interpretation string
	Distance       float64
}

// NotFound returns the sentinel candidate for a backend that matched nothing.
func NotFound(backendIndex, subQueryIndex int) Candidate {
	return Candidate{
		BackendIndex:  backendIndex,
		SubQueryIndex: subQueryIndex,
		Distance:      math.Inf(1),
	}
}

// Found reports whether the candidate is a real match rather than the sentinel.
func (c Candidate) Found() bool {
	return !math.IsInf(c.Distance, 1)
}

// Valid reports whether the candidate carries both a passage and an
// interpretation. Only valid candidates are shown to the arbiter or used
// in the final output.
func (c Candidate) Valid() bool {
	return c.Found() && c.Passage != "" && c.Interpretation != ""
}

// Selections maps a 1-based sub-query ordinal to a 0-based backend index,
// or NoSelection.
type Selections map[int]int

// Result is a completed interpretation keyed by the narrative that produced it.
type Result struct {
	Narrative      string
	Interpretation string
}

// Manifest records which dataset a collection was last loaded from.
type Manifest struct {
	Collection     string
	Fingerprint    ID // Hash over every row of the source dataset
	Rows           int
	EmbeddingModel string
	UpdatedAt      time.Time
}
