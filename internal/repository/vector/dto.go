package vector

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/brightclass/answerhub/internal/domain"
)

// buildHashFields converts an EmbeddingRecord into a flat map[string]string for HSET.
func buildHashFields(rec *domain.EmbeddingRecord) map[string]string {
	m := map[string]string{
		"__content":    rec.Text,
		"__vector":     vectorToBytes(rec.Vector),
		"tenant":       rec.TenantID,
		"content_id":   rec.ContentID,
		"content_type": rec.ContentType,
		"category":     rec.Category,
		"subject":      rec.Subject,
		"chunk_index":  strconv.Itoa(rec.ChunkIndex),
		"created_at":   rec.CreatedAt.UTC().Format(time.RFC3339),
	}
	if len(rec.Metadata) > 0 {
		if data, err := json.Marshal(rec.Metadata); err == nil {
			m["metadata"] = string(data)
		}
	}
	return m
}

// parseHashFields converts a flat hash map back into an EmbeddingRecord.
func parseHashFields(fields map[string]string) domain.EmbeddingRecord {
	rec := domain.EmbeddingRecord{
		TenantID:    fields["tenant"],
		ContentID:   fields["content_id"],
		ContentType: fields["content_type"],
		Category:    fields["category"],
		Subject:     fields["subject"],
		Text:        fields["__content"],
		Vector:      bytesToVector(fields["__vector"]),
	}
	if v, err := strconv.Atoi(fields["chunk_index"]); err == nil {
		rec.ChunkIndex = v
	}
	if ts, err := time.Parse(time.RFC3339, fields["created_at"]); err == nil {
		rec.CreatedAt = ts
	}
	if raw := fields["metadata"]; raw != "" {
		var md map[string]string
		if err := json.Unmarshal([]byte(raw), &md); err == nil {
			rec.Metadata = md
		}
	}
	return rec
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// bytesToVector deserializes a binary string back to []float32.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b) == 0 || len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
