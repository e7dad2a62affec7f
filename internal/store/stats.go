package store

// DetailedStats aggregates per-project index metrics.
type DetailedStats struct {
	TotalChunks   int
	TotalFiles    int
	ByLanguage    map[string]int
	ByType        map[string]int
	AvgComplexity float64
	MaxComplexity int
}

// GetDetailedStats computes aggregate metrics for one project partition.
// An empty or unknown project yields zeroed stats, not an error.
func (s *Store) GetDetailedStats(project string) (*DetailedStats, error) {
	stats := &DetailedStats{
		ByLanguage: make(map[string]int),
		ByType:     make(map[string]int),
	}

	err := s.db.QueryRow(`
		SELECT COUNT(*), COUNT(DISTINCT filename),
		       COALESCE(AVG(complexity), 0), COALESCE(MAX(complexity), 0)
		FROM chunks WHERE project = ?`, project).
		Scan(&stats.TotalChunks, &stats.TotalFiles, &stats.AvgComplexity, &stats.MaxComplexity)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		"SELECT language, COUNT(*) FROM chunks WHERE project = ? GROUP BY language", project)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var language string
		var n int
		if err := rows.Scan(&language, &n); err != nil {
			return nil, err
		}
		stats.ByLanguage[language] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	typeRows, err := s.db.Query(
		"SELECT type, COUNT(*) FROM chunks WHERE project = ? GROUP BY type", project)
	if err != nil {
		return nil, err
	}
	defer typeRows.Close()
	for typeRows.Next() {
		var typ string
		var n int
		if err := typeRows.Scan(&typ, &n); err != nil {
			return nil, err
		}
		stats.ByType[typ] = n
	}
	return stats, typeRows.Err()
}
