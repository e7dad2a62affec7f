package store

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// cacheKey hashes model and text together so switching embedding models never
// returns vectors computed by another model.
func cacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(model + ":" + text))
	return hex.EncodeToString(sum[:])
}

// GetCachedEmbedding returns a previously computed embedding, or nil on miss.
// A hit refreshes the row's last-accessed time for LRU pruning.
func (s *Store) GetCachedEmbedding(model, text string) ([]float32, error) {
	key := cacheKey(model, text)
	var blob []byte
	err := s.db.QueryRow("SELECT vector FROM embedding_cache WHERE hash = ?", key).Scan(&blob)
	if err != nil {
		return nil, nil // miss; sql.ErrNoRows is the common case
	}
	_, _ = s.db.Exec("UPDATE embedding_cache SET last_accessed = datetime('now') WHERE hash = ?", key)
	return decodeVector(blob), nil
}

// PutCachedEmbedding stores an embedding under its (model, text) key.
func (s *Store) PutCachedEmbedding(model, text string, vector []float32) error {
	_, err := s.db.Exec(`
		INSERT INTO embedding_cache (hash, vector, model) VALUES (?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET vector = excluded.vector, last_accessed = datetime('now')`,
		cacheKey(model, text), encodeVector(vector), model)
	return err
}

// PruneEmbeddingCache keeps at most maxEntries rows, evicting the least
// recently accessed first.
func (s *Store) PruneEmbeddingCache(maxEntries int) error {
	_, err := s.db.Exec(`
		DELETE FROM embedding_cache WHERE hash IN (
			SELECT hash FROM embedding_cache
			ORDER BY last_accessed DESC
			LIMIT -1 OFFSET ?
		)`, maxEntries)
	return err
}

func encodeVector(v []float32) []byte {
	out := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

func decodeVector(blob []byte) []float32 {
	out := make([]float32, len(blob)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return out
}
