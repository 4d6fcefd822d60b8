// Package session holds the per-browser application state: the selected
// ship and the transient intelligence scans.
package session

import (
	"sort"
	"sync"
	"time"

	"github.com/papaburgs/spacegui/internal/types"
)

// State belongs to one browser session. All methods are safe for concurrent use.
type State struct {
	ID string

	mu        sync.RWMutex
	selected  *types.Ship
	scans     map[string]types.ScanResult
	activeTab string
	surveys   []types.Survey
	lastSeen  time.Time
}

func newState(id string, now time.Time) *State {
	return &State{
		ID:       id,
		scans:    make(map[string]types.ScanResult),
		lastSeen: now,
	}
}

// SelectShip makes ship the current selection for every view in the session.
func (s *State) SelectShip(ship types.Ship) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = &ship
}

// SelectedShip is the current selection. Fleet view and sidebar both read it here.
func (s *State) SelectedShip() (types.Ship, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == nil {
		return types.Ship{}, false
	}
	return *s.selected, true
}

// UpdateShip replaces the selection with a fresher copy from the server, if
// it is the same ship.
func (s *State) UpdateShip(ship types.Ship) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected != nil && s.selected.Symbol == ship.Symbol {
		s.selected = &ship
	}
}

func (s *State) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = nil
}

// PutScan stores a scan under its type and makes that type the active tab.
func (s *State) PutScan(r types.ScanResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ScannedAt.IsZero() {
		r.ScannedAt = time.Now().UTC()
	}
	s.scans[r.Type] = r
	s.activeTab = r.Type
}

// Scans returns a copy of the stored scans.
func (s *State) Scans() map[string]types.ScanResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]types.ScanResult, len(s.scans))
	for k, v := range s.scans {
		out[k] = v
	}
	return out
}

// ScanTypes lists stored scan types in order.
func (s *State) ScanTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.scans))
	for k := range s.scans {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *State) ActiveTab() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeTab
}

func (s *State) SetActiveTab(tab string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeTab = tab
}

// ClearScans forgets scans and surveys, run when the viewer leaves the intelligence page.
func (s *State) ClearScans() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.scans) > 0 {
		s.scans = make(map[string]types.ScanResult)
	}
	s.activeTab = ""
	s.surveys = nil
}

func (s *State) AddSurveys(surveys []types.Survey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.surveys = append(s.surveys, surveys...)
}

// Surveys returns the surveys that have not expired at now and drops the rest.
func (s *State) Surveys(now time.Time) []types.Survey {
	s.mu.Lock()
	defer s.mu.Unlock()
	live := s.surveys[:0]
	for _, sv := range s.surveys {
		if !sv.Expired(now) {
			live = append(live, sv)
		}
	}
	s.surveys = live
	out := make([]types.Survey, len(live))
	copy(out, live)
	return out
}

// Snapshot is the exportable view of the state.
type Snapshot struct {
	ID        string                      `json:"id"`
	Selected  *types.Ship                 `json:"selected,omitempty"`
	Scans     map[string]types.ScanResult `json:"scans"`
	ActiveTab string                      `json:"activeTab,omitempty"`
	Surveys   []types.Survey              `json:"surveys,omitempty"`
}

func (s *State) Snapshot() Snapshot {
	snap := Snapshot{ID: s.ID, Scans: s.Scans(), ActiveTab: s.ActiveTab(), Surveys: s.Surveys(time.Now())}
	if ship, ok := s.SelectedShip(); ok {
		snap.Selected = &ship
	}
	return snap
}

func (s *State) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *State) idleSince(now time.Time) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return now.Sub(s.lastSeen)
}
