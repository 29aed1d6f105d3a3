package memory

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/HendryAvila/sdd-recall/internal/markdown"
)

// Vector codec. Embeddings are stored as little-endian float32 BLOBs;
// the byte layout is fixed so rows written on one platform read back
// identically on another.

// vectorToBlob encodes a float32 vector for storage.
func vectorToBlob(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// blobToVector decodes a stored embedding. The blob length must be a
// multiple of 4.
func blobToVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("memory: embedding blob length %d not a multiple of 4", len(blob))
	}
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vec, nil
}

// cosineSimilarity returns the cosine of the angle between two vectors,
// or 0 when either vector has zero magnitude or the lengths differ.
// Zero-magnitude inputs include the placeholder rows' zero vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// JSON codecs for list-valued columns. Decoders are tolerant: empty or
// legacy-empty values decode to nil rather than erroring, keeping the
// read path degradation-friendly.

func marshalStrings(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalStrings(raw string) []string {
	if raw == "" || raw == "[]" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil
	}
	return list
}

func marshalChecklistItems(items []markdown.ChecklistItem) (string, error) {
	if items == nil {
		items = []markdown.ChecklistItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalChecklistItems(raw string) []markdown.ChecklistItem {
	if raw == "" || raw == "[]" {
		return nil
	}
	var items []markdown.ChecklistItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil
	}
	return items
}

func marshalChecklistSections(sections []markdown.ChecklistSection) (string, error) {
	if sections == nil {
		sections = []markdown.ChecklistSection{}
	}
	b, err := json.Marshal(sections)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalChecklistSections(raw string) []markdown.ChecklistSection {
	if raw == "" || raw == "[]" {
		return nil
	}
	var sections []markdown.ChecklistSection
	if err := json.Unmarshal([]byte(raw), &sections); err != nil {
		return nil
	}
	return sections
}
