// Package prompts owns the validated prompt corpus for a benchmark run and
// its two selection modes: deterministic by index for count-based runs and
// uniform random for duration-based runs.
package prompts

import (
	"errors"
	"math/rand"
	"sync"
	"time"
)

// ErrNoPrompts is returned when a source would be constructed empty.
var ErrNoPrompts = errors.New("no prompts provided for benchmarking")

// Source holds a non-empty ordered sequence of prompt strings. Both selection
// methods are safe for concurrent use.
type Source struct {
	prompts []string

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewSource(prompts []string) (*Source, error) {
	if len(prompts) == 0 {
		return nil, ErrNoPrompts
	}
	owned := make([]string, len(prompts))
	copy(owned, prompts)
	return &Source{
		prompts: owned,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// PickAt returns the prompt at index modulo the sequence length.
func (s *Source) PickAt(i int) string {
	if i < 0 {
		i = -i
	}
	return s.prompts[i%len(s.prompts)]
}

// PickRandom returns a uniformly chosen prompt.
func (s *Source) PickRandom() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompts[s.rnd.Intn(len(s.prompts))]
}

// Len returns the number of prompts in the corpus.
func (s *Source) Len() int {
	return len(s.prompts)
}
