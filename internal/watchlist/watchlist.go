package watchlist

import (
	"errors"
	"strings"
	"sync"
)

// MaxCompanies is the watchlist capacity
const MaxCompanies = 5

var (
	ErrEmptyName = errors.New("company name is empty")
	ErrDuplicate = errors.New("company already in watchlist")
	ErrFull      = errors.New("watchlist is full")
	ErrNotFound  = errors.New("company not in watchlist")
)

// Watchlist is an ordered, de-duplicated set of company names
type Watchlist struct {
	mu        sync.RWMutex
	companies []string
}

// New creates watchlist seeded with initial companies. Blank, duplicate and
// overflowing entries are skipped.
func New(initial ...string) *Watchlist {
	w := &Watchlist{companies: make([]string, 0, MaxCompanies)}
	for _, name := range initial {
		_ = w.Add(name)
	}
	return w
}

// Add appends company to the end of the list
func (w *Watchlist) Add(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.indexOf(name) >= 0 {
		return ErrDuplicate
	}
	if len(w.companies) >= MaxCompanies {
		return ErrFull
	}

	w.companies = append(w.companies, name)
	return nil
}

// Remove deletes company, keeping the order of the rest
func (w *Watchlist) Remove(name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	idx := w.indexOf(strings.TrimSpace(name))
	if idx < 0 {
		return ErrNotFound
	}

	w.companies = append(w.companies[:idx], w.companies[idx+1:]...)
	return nil
}

// Companies returns a copy of the list in insertion order
func (w *Watchlist) Companies() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]string, len(w.companies))
	copy(out, w.companies)
	return out
}

// Len returns number of watched companies
func (w *Watchlist) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.companies)
}

func (w *Watchlist) indexOf(name string) int {
	for i, c := range w.companies {
		if strings.EqualFold(c, name) {
			return i
		}
	}
	return -1
}
