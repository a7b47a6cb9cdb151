// Package transfer routes hot leads to human sales reps and executes
// the handoff without ever pushing a rep past their concurrency cap.
package transfer

import (
	"sort"
	"sync"

	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/model"
)

const specializationBonus = 0.3

// RepPool is the shared registry of sales reps. All mutation of a
// rep's live-call count happens under the pool lock.
type RepPool struct {
	mu   sync.Mutex
	reps map[string]*model.SalesRep
}

// NewRepPool builds a pool from the given reps.
func NewRepPool(reps []model.SalesRep) *RepPool {
	p := &RepPool{reps: make(map[string]*model.SalesRep, len(reps))}
	for i := range reps {
		rep := reps[i]
		p.reps[rep.ID] = &rep
	}
	return p
}

// AddRep registers (or replaces) a rep.
func (p *RepPool) AddRep(rep model.SalesRep) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reps[rep.ID] = &rep
}

// SetAvailability flips a rep's availability flag.
func (p *RepPool) SetAvailability(repID string, available bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if rep, ok := p.reps[repID]; ok {
		rep.Available = available
	}
}

// Rep returns a snapshot of one rep.
func (p *RepPool) Rep(repID string) (model.SalesRep, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	rep, ok := p.reps[repID]
	if !ok {
		return model.SalesRep{}, false
	}
	return cloneRep(rep), true
}

// Reps returns snapshots of every rep, ordered by id.
func (p *RepPool) Reps() []model.SalesRep {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.SalesRep, 0, len(p.reps))
	for _, rep := range p.reps {
		out = append(out, cloneRep(rep))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FindBestRep picks the available rep with the highest availability
// score for the lead's industry. It returns false when no rep is
// eligible; the caller should schedule a callback instead.
func (p *RepPool) FindBestRep(industry string) (model.SalesRep, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var best *model.SalesRep
	bestScore := 0.0
	for _, rep := range p.reps {
		if !rep.Available || rep.AtCapacity() {
			continue
		}
		score := availabilityScore(rep, industry)
		if best == nil || score > bestScore {
			best = rep
			bestScore = score
		}
	}
	if best == nil {
		return model.SalesRep{}, false
	}
	return cloneRep(best), true
}

// availabilityScore is derived, never stored:
// 0.6*(1 - load) + 0.4*(close rate), plus a bonus when the rep
// specializes in the lead's industry.
func availabilityScore(rep *model.SalesRep, industry string) float64 {
	load := float64(rep.CurrentCalls) / float64(rep.MaxConcurrent)
	transfers := rep.TotalTransfers
	if transfers < 1 {
		transfers = 1
	}
	closeRate := float64(rep.SuccessfulCloses) / float64(transfers)

	score := 0.6*(1-load) + 0.4*closeRate
	if rep.Specializes(industry) {
		score += specializationBonus
	}
	return score
}

// claim reserves one call slot on a rep, re-checking capacity under
// the lock so racing transfers cannot overshoot the cap.
func (p *RepPool) claim(repID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	rep, ok := p.reps[repID]
	if !ok || !rep.Available || rep.AtCapacity() {
		return false
	}
	rep.CurrentCalls++
	rep.TotalTransfers++
	return true
}

// release frees a call slot, optionally recording a close.
func (p *RepPool) release(repID string, closed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	rep, ok := p.reps[repID]
	if !ok {
		return
	}
	if rep.CurrentCalls > 0 {
		rep.CurrentCalls--
	}
	if closed {
		rep.SuccessfulCloses++
	}
}

func cloneRep(rep *model.SalesRep) model.SalesRep {
	c := *rep
	c.Specializations = append([]string(nil), rep.Specializations...)
	return c
}
