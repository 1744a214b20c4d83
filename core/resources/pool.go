package resources

import (
	"fmt"
	"sync"
	"time"

	"github.com/kilianp07/wildfire/core/model"
)

// Kind is the allocation state of one resource kind. Available units are
// always derived as TotalUnits-UsedUnits.
type Kind struct {
	Name               string
	DeploymentDuration time.Duration
	UnitCost           float64
	TotalUnits         int
	UsedUnits          int
}

// Available returns the number of uncommitted units.
func (k Kind) Available() int { return k.TotalUnits - k.UsedUnits }

// Status is the read-only view of one kind used in reports.
type Status struct {
	Total     int `json:"total"`
	Used      int `json:"used"`
	Available int `json:"available"`
}

// Pool owns the resource kinds of a run. All mutations go through Commit and
// Release, which are serialized so that 0 <= UsedUnits <= TotalUnits holds
// under concurrent callers.
type Pool struct {
	mu    sync.Mutex
	order []string
	kinds map[string]*Kind
}

// NewPool builds a pool from specs in order. Duplicate names keep the first
// position and the last values. Negative unit counts are clamped to zero.
func NewPool(specs []Spec) (*Pool, error) {
	p := &Pool{kinds: make(map[string]*Kind, len(specs))}
	for _, s := range specs {
		if s.Name == "" {
			return nil, fmt.Errorf("resources: %w: empty resource name", model.ErrInvalidInput)
		}
		total := s.TotalUnits
		if total < 0 {
			total = 0
		}
		k := &Kind{
			Name:               s.Name,
			DeploymentDuration: s.DeploymentDuration(),
			UnitCost:           s.Cost,
			TotalUnits:         total,
		}
		if _, ok := p.kinds[s.Name]; !ok {
			p.order = append(p.order, s.Name)
		}
		p.kinds[s.Name] = k
	}
	return p, nil
}

// Initialize merges custom specs over the built-in catalog and builds a pool.
func Initialize(custom map[string]Spec) (*Pool, error) {
	return NewPool(Merge(DefaultCatalog(), custom))
}

// Names returns the kind names in insertion order.
func (p *Pool) Names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.order...)
}

// Kinds returns copies of all kinds in insertion order.
func (p *Pool) Kinds() []Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Kind, 0, len(p.order))
	for _, n := range p.order {
		out = append(out, *p.kinds[n])
	}
	return out
}

// Kind returns a copy of the named kind.
func (p *Pool) Kind(name string) (Kind, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	k, ok := p.kinds[name]
	if !ok {
		return Kind{}, false
	}
	return *k, true
}

// SelectCandidate returns the available kind with the lowest unit cost. Ties
// go to the kind inserted first. ok is false when nothing has capacity.
func (p *Pool) SelectCandidate() (name string, ok bool) {
	return Cheapest(p.Kinds())
}

// Cheapest picks the minimum-cost kind with capacity from kinds, keeping the
// first one on ties.
func Cheapest(kinds []Kind) (string, bool) {
	best := -1
	for i, k := range kinds {
		if k.Available() <= 0 {
			continue
		}
		if best < 0 || k.UnitCost < kinds[best].UnitCost {
			best = i
		}
	}
	if best < 0 {
		return "", false
	}
	return kinds[best].Name, true
}

// Commit takes one unit of name. It returns false without mutating anything
// when the kind is unknown or exhausted.
func (p *Pool) Commit(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	k, ok := p.kinds[name]
	if !ok || k.Available() <= 0 {
		return false
	}
	k.UsedUnits++
	return true
}

// Release returns one unit of name. It returns false when nothing of that
// kind is in use.
func (p *Pool) Release(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	k, ok := p.kinds[name]
	if !ok || k.UsedUnits <= 0 {
		return false
	}
	k.UsedUnits--
	return true
}

// Status returns a snapshot keyed by kind name.
func (p *Pool) Status() map[string]Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]Status, len(p.kinds))
	for name, k := range p.kinds {
		out[name] = Status{Total: k.TotalUnits, Used: k.UsedUnits, Available: k.Available()}
	}
	return out
}
