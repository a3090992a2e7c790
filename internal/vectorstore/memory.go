package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/josinaldojr/book-rag/internal/rag"
)

// MemoryStore keeps points in process and ranks them by cosine similarity.
type MemoryStore struct {
	mu     sync.RWMutex
	dim    int
	points []rag.Point
	index  map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{index: make(map[string]int)}
}

func (s *MemoryStore) EnsureCollection(_ context.Context, vectorSize int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dim == 0 {
		s.dim = vectorSize
	}
	return nil
}

// Upsert replaces points whose id already exists.
func (s *MemoryStore) Upsert(_ context.Context, points []rag.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range points {
		if s.dim > 0 && len(p.Vector) != s.dim {
			return fmt.Errorf("point %s: vector size %d, collection expects %d", p.ID, len(p.Vector), s.dim)
		}
		if i, ok := s.index[p.ID]; ok {
			s.points[i] = p
			continue
		}
		s.index[p.ID] = len(s.points)
		s.points = append(s.points, p)
	}
	return nil
}

func (s *MemoryStore) Search(_ context.Context, vector []float32, limit int) ([]rag.Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make([]rag.Hit, 0, len(s.points))
	for _, p := range s.points {
		hits = append(hits, rag.Hit{Text: p.Text, Score: cosine(vector, p.Vector)})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	if limit > 0 && limit < len(hits) {
		hits = hits[:limit]
	}
	return hits, nil
}

// Len is the number of stored points.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

var _ rag.VectorStore = (*MemoryStore)(nil)
