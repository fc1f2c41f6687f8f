// Package store keeps previously computed order analyses, bounded by an
// LRU policy. A Store is passed explicitly to the code that uses it.
package store

import (
	"encoding/binary"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/ppopth/lfsr-analysis/order"
	"github.com/ppopth/lfsr-analysis/poly"
)

// Store is a bounded map from polynomials to analysis results. It is safe
// for concurrent use and implements order.Cache.
type Store struct {
	mu sync.Mutex
	// results with the same hash share a bucket
	c *simplelru.LRU[uint64, []*order.Result]
}

// New returns a store holding up to size hash buckets
func New(size int) (*Store, error) {
	c, err := simplelru.NewLRU[uint64, []*order.Result](size, nil)
	if err != nil {
		return nil, err
	}
	return &Store{c: c}, nil
}

// key hashes the field order and the coefficients of the monic form of p
func key(p *poly.Poly) uint64 {
	d := xxhash.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], p.Field().Size())
	_, _ = d.Write(buf[:])
	for _, c := range p.Uint64s() {
		binary.LittleEndian.PutUint64(buf[:], c)
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}

func monic(p *poly.Poly) (*poly.Poly, bool) {
	if p.Degree() < 1 {
		return nil, false
	}
	m, err := p.Monic()
	return m, err == nil
}

// Get returns a copy of the stored analysis of p, up to a constant factor
func (s *Store) Get(p *poly.Poly) (*order.Result, bool) {
	m, ok := monic(p)
	if !ok {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket, ok := s.c.Get(key(m))
	if !ok {
		return nil, false
	}
	for _, r := range bucket {
		if r.Polynomial.Equal(m) {
			return r.Clone(), true
		}
	}
	return nil, false
}

// Add stores a copy of r, replacing an earlier result for the same
// polynomial
func (s *Store) Add(r *order.Result) {
	r = r.Clone()
	k := key(r.Polynomial)
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket, _ := s.c.Peek(k)
	next := make([]*order.Result, 0, len(bucket)+1)
	for _, old := range bucket {
		if !old.Polynomial.Equal(r.Polynomial) {
			next = append(next, old)
		}
	}
	s.c.Add(k, append(next, r))
}

// Len returns the number of stored results
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, bucket := range s.c.Values() {
		n += len(bucket)
	}
	return n
}

// Purge removes every result
func (s *Store) Purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c.Purge()
}

// Results returns copies of every stored result, least recently used first
func (s *Store) Results() []*order.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*order.Result
	for _, bucket := range s.c.Values() {
		for _, r := range bucket {
			out = append(out, r.Clone())
		}
	}
	return out
}

