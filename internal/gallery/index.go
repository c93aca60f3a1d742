// Package gallery provides an in-memory nearest-neighbor index over image
// embeddings, used by the CLI to find visually similar images in a folder.
package gallery

import (
	"errors"
	"sync"

	"github.com/coder/hnsw"
)

// maxNeighbors is the HNSW M parameter, the maximum edges per node.
const maxNeighbors = 16

// Entry associates an indexed embedding with the image it came from.
type Entry struct {
	ID   int64
	Path string
}

// Match is a search hit with its cosine distance to the query.
type Match struct {
	Entry    Entry
	Distance float64
}

// Index is an in-memory HNSW index over image embeddings.
type Index struct {
	mu      sync.RWMutex
	graph   *hnsw.Graph[int64]
	entries map[int64]Entry
	nextID  int64
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{entries: make(map[int64]Entry)}
}

// Add indexes an embedding for the given image path and returns its ID.
// Empty embeddings are rejected.
func (idx *Index) Add(path string, embedding []float32) (int64, error) {
	if len(embedding) == 0 {
		return 0, errors.New("empty embedding")
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.graph == nil {
		g := hnsw.NewGraph[int64]()
		g.M = maxNeighbors
		g.Ml = 1.0 / float64(maxNeighbors)
		g.Distance = hnsw.CosineDistance
		idx.graph = g
	}

	id := idx.nextID
	idx.nextID++

	idx.graph.Add(hnsw.MakeNode(id, embedding))
	idx.entries[id] = Entry{ID: id, Path: path}
	return id, nil
}

// Search returns up to k entries nearest to the query embedding, closest
// first.
func (idx *Index) Search(query []float32, k int) ([]Match, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.graph == nil {
		return nil, errors.New("index is empty")
	}

	neighbors := idx.graph.Search(query, k)

	matches := make([]Match, 0, len(neighbors))
	for _, n := range neighbors {
		entry, ok := idx.entries[n.Key]
		if !ok {
			continue
		}
		matches = append(matches, Match{
			Entry:    entry,
			Distance: float64(hnsw.CosineDistance(query, n.Value)),
		})
	}
	return matches, nil
}

// Count returns the number of indexed entries.
func (idx *Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}
