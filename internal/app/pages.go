package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/papaburgs/spacegui/internal/db"
	"github.com/papaburgs/spacegui/internal/result"
	"github.com/papaburgs/spacegui/internal/session"
	"github.com/papaburgs/spacegui/internal/spacetraders"
	"github.com/papaburgs/spacegui/internal/starmap"
	"github.com/papaburgs/spacegui/internal/types"
)

// Page is one entry of the navigation bar.
type Page struct {
	Name  string
	Title string
}

var pages = []Page{
	{"dashboard", "Dashboard"},
	{"fleet", "Fleet"},
	{"crew", "Crew"},
	{"intelligence", "Intelligence"},
	{"factions", "Factions"},
	{"systems", "Systems"},
	{"resources", "Resources"},
	{"automation", "Automation"},
	{"modify", "Modify"},
}

func knownPage(name string) bool {
	for _, p := range pages {
		if p.Name == name {
			return true
		}
	}
	return false
}

// map canvas size in pixels
const (
	mapWidth   = 800
	mapHeight  = 600
	mapPadding = 40
	pickRadius = 12
)

type layoutView struct {
	Page   string
	Pages  []Page
	Charts bool
}

// PageHandler serves the shell of a page. The content arrives from
// /partials/{page} so the loading placeholder shows until every read is done.
func (a *App) PageHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "page")
	if name == "" {
		name = "dashboard"
	}
	if !knownPage(name) {
		http.NotFound(w, r)
		return
	}
	leavePage(session.FromContext(r.Context()), name)
	a.render(w, "layout.html", layoutView{Page: name, Pages: pages, Charts: a.db != nil})
}

// leavePage drops scan results once the viewer is anywhere but Intelligence.
func leavePage(st *session.State, page string) {
	if st != nil && page != "intelligence" {
		st.ClearScans()
	}
}

func (a *App) PartialHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "page")
	if !knownPage(name) {
		http.NotFound(w, r)
		return
	}
	st := session.FromContext(r.Context())
	leavePage(st, name)
	a.render(w, name+".html", a.load(r.Context(), r, st, name))
}

// load builds the view for a page partial.
func (a *App) load(ctx context.Context, r *http.Request, st *session.State, name string) any {
	switch name {
	case "dashboard":
		return a.loadDashboard(ctx)
	case "fleet":
		return a.loadFleet(ctx, st)
	case "crew":
		return a.loadCrew(ctx, r, st)
	case "intelligence":
		return a.loadIntelligence(ctx, r, st)
	case "factions":
		return pageView[[]types.Faction]{Result: result.From(a.factions(ctx))}
	case "systems":
		return a.loadSystems(ctx, r, st)
	case "resources":
		return a.loadResources(ctx, r, st)
	case "automation":
		return pageView[types.AutomationStatus]{Result: result.From(a.automation(ctx))}
	case "modify":
		return a.loadModify(ctx, r, st)
	}
	return nil
}

// pageView is what every page partial renders. Ship is set for pages that
// work on one ship; NoShip asks the viewer to pick one first.
type pageView[T any] struct {
	Result result.Result[T]
	Ship   string
	NoShip bool
}

// targetShip is the ship a ship-scoped page works on: the ship an action
// route names, then ?ship=, then the selection.
func targetShip(r *http.Request, st *session.State) string {
	if s := chi.URLParam(r, "symbol"); s != "" {
		return s
	}
	if s := r.URL.Query().Get("ship"); s != "" {
		return s
	}
	if st != nil {
		if ship, ok := st.SelectedShip(); ok {
			return ship.Symbol
		}
	}
	return ""
}

type dashboardData struct {
	Agent   types.Agent
	Ships   []types.Ship
	InOrbit int
	Docked  int
	Transit int
	Recent  []db.ActionEntry
}

func (a *App) loadDashboard(ctx context.Context) pageView[dashboardData] {
	var d dashboardData
	err := result.Gather(ctx,
		result.Into(&d.Agent, a.agent),
		result.Into(&d.Ships, a.ships),
	)
	if err != nil {
		return pageView[dashboardData]{Result: result.Failed[dashboardData](err)}
	}
	for _, s := range d.Ships {
		switch s.Nav.Status {
		case types.NavInOrbit:
			d.InOrbit++
		case types.NavDocked:
			d.Docked++
		case types.NavInTransit:
			d.Transit++
		}
	}
	if a.db != nil {
		recent, err := db.RecentActions(ctx, a.db, "", 10)
		if err != nil {
			slog.Warn("could not read action log", "error", err)
		}
		d.Recent = recent
	}
	return pageView[dashboardData]{Result: result.Of(d)}
}

type fleetData struct {
	Ships    []types.Ship
	Selected string
}

func (a *App) loadFleet(ctx context.Context, st *session.State) pageView[fleetData] {
	ships, err := a.ships(ctx)
	if err != nil {
		return pageView[fleetData]{Result: result.Failed[fleetData](err)}
	}
	d := fleetData{Ships: ships}
	if st != nil {
		if s, ok := st.SelectedShip(); ok {
			d.Selected = s.Symbol
		}
	}
	return pageView[fleetData]{Result: result.Of(d)}
}

func (a *App) loadCrew(ctx context.Context, r *http.Request, st *session.State) pageView[[]types.CrewMember] {
	symbol := targetShip(r, st)
	if symbol == "" {
		return pageView[[]types.CrewMember]{NoShip: true}
	}
	return pageView[[]types.CrewMember]{Ship: symbol, Result: result.From(a.crew(ctx, symbol))}
}

type intelData struct {
	Security  types.SecurityStatus
	Features  []types.SecurityFeature
	ScanTypes []string
	Scans     map[string]types.ScanResult
	ActiveTab string
	Surveys   []types.Survey
}

func (a *App) loadIntelligence(ctx context.Context, r *http.Request, st *session.State) pageView[intelData] {
	symbol := targetShip(r, st)
	if symbol == "" {
		return pageView[intelData]{NoShip: true}
	}
	if tab := r.URL.Query().Get("tab"); tab != "" && st != nil {
		st.SetActiveTab(tab)
	}
	sec, err := a.security(ctx, symbol)
	if err != nil {
		return pageView[intelData]{Ship: symbol, Result: result.Failed[intelData](err)}
	}
	d := intelData{
		Security:  sec,
		Features:  types.SecurityFeatures,
		ScanTypes: spacetraders.ScanTypes,
	}
	if st != nil {
		d.Scans = st.Scans()
		d.ActiveTab = st.ActiveTab()
		d.Surveys = st.Surveys(time.Now())
	}
	return pageView[intelData]{Ship: symbol, Result: result.Of(d)}
}

type systemsData struct {
	Systems   []types.System
	System    string
	Here      string
	View      starmap.Viewport
	Markers   []starmap.Marker
	Waypoints []types.Waypoint
}

func (a *App) loadSystems(ctx context.Context, r *http.Request, st *session.State) pageView[systemsData] {
	d := systemsData{System: r.URL.Query().Get("system")}
	var selected types.Ship
	hasShip := false
	if st != nil {
		selected, hasShip = st.SelectedShip()
	}
	if d.System == "" && hasShip {
		d.System = selected.Nav.SystemSymbol
	}

	loaders := []func(context.Context) error{result.Into(&d.Systems, a.systems)}
	if d.System != "" {
		loaders = append(loaders, result.Into(&d.Waypoints, func(ctx context.Context) ([]types.Waypoint, error) {
			return a.waypoints(ctx, d.System)
		}))
	}
	if err := result.Gather(ctx, loaders...); err != nil {
		return pageView[systemsData]{Result: result.Failed[systemsData](err)}
	}
	// nothing picked and no ship: show the first system
	if d.System == "" && len(d.Systems) > 0 {
		d.System = d.Systems[0].Symbol
		wps, err := a.waypoints(ctx, d.System)
		if err != nil {
			return pageView[systemsData]{Result: result.Failed[systemsData](err)}
		}
		d.Waypoints = wps
	}

	if hasShip && selected.Nav.SystemSymbol == d.System {
		d.Here = selected.Nav.WaypointSymbol
	}
	d.View = viewportFor(r, d.Waypoints)
	d.Markers = starmap.Layout(d.View, d.Waypoints, d.Here)
	v := pageView[systemsData]{Result: result.Of(d)}
	if hasShip {
		v.Ship = selected.Symbol
	}
	return v
}

// viewportFor reads cx, cy and z from the request, or fits the waypoints
// when they are absent.
func viewportFor(r *http.Request, wps []types.Waypoint) starmap.Viewport {
	v := starmap.NewViewport(mapWidth, mapHeight)
	if got, ok := starmap.FromQuery(v, r.URL.Query()); ok {
		return got
	}
	return v.Fit(starmap.Points(wps), mapPadding)
}

func (a *App) loadResources(ctx context.Context, r *http.Request, st *session.State) pageView[types.ResourceStatus] {
	symbol := targetShip(r, st)
	if symbol == "" {
		return pageView[types.ResourceStatus]{NoShip: true}
	}
	return pageView[types.ResourceStatus]{Ship: symbol, Result: result.From(a.resources(ctx, symbol))}
}

type modifyData struct {
	Info      types.ModificationInfo
	Equipment []types.Equipment
}

func (a *App) loadModify(ctx context.Context, r *http.Request, st *session.State) pageView[modifyData] {
	symbol := targetShip(r, st)
	if symbol == "" {
		return pageView[modifyData]{NoShip: true}
	}
	var d modifyData
	err := result.Gather(ctx,
		result.Into(&d.Info, func(ctx context.Context) (types.ModificationInfo, error) {
			return a.modificationInfo(ctx, symbol)
		}),
		result.Into(&d.Equipment, a.equipment),
	)
	if err != nil {
		return pageView[modifyData]{Ship: symbol, Result: result.Failed[modifyData](err)}
	}
	return pageView[modifyData]{Ship: symbol, Result: result.Of(d)}
}

type sidebarView struct {
	Ship     types.Ship
	Selected bool
	Notice   string
	// Result is the outcome of the last re-read, when there was one.
	Result result.Result[types.Ship]
}

// SidebarHandler shows the selected ship and the actions its status allows.
// ?refresh=1 re-reads the held ship first, used when another viewer changed it.
func (a *App) SidebarHandler(w http.ResponseWriter, r *http.Request) {
	st := session.FromContext(r.Context())
	if r.URL.Query().Get("refresh") != "" && st != nil {
		if held, ok := st.SelectedShip(); ok {
			ship, err := a.ship(r.Context(), held.Symbol)
			if err != nil {
				a.render(w, "sidebar.html", sidebarView{Ship: held, Selected: true, Result: result.Failed[types.Ship](err)})
				return
			}
			st.UpdateShip(ship)
		}
	}
	a.renderSidebar(w, st, "")
}

func (a *App) renderSidebar(w http.ResponseWriter, st *session.State, notice string) {
	v := sidebarView{Notice: notice}
	if st != nil {
		v.Ship, v.Selected = st.SelectedShip()
	}
	if v.Selected {
		v.Result = result.Of(v.Ship)
	}
	a.render(w, "sidebar.html", v)
}

// SelectHandler makes a ship the viewer's selection. The fleet list is
// re-rendered with the highlight and shipSelected tells the sidebar to reload.
func (a *App) SelectHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := session.FromContext(ctx)
	symbol := chi.URLParam(r, "symbol")

	ships, err := a.ships(ctx)
	if err != nil {
		a.actionFailed(w, "select", err)
		return
	}
	for _, s := range ships {
		if s.Symbol == symbol {
			st.SelectShip(s)
			trigger(w, "shipSelected")
			a.render(w, "fleet.html", a.loadFleet(ctx, st))
			return
		}
	}
	a.actionFailed(w, "select", fmt.Errorf("ship %s is not in the fleet", symbol))
}

type pickView struct {
	Waypoint types.Waypoint
	Found    bool
	Ship     string
}

// PickWaypointHandler answers a click on the map at sx, sy.
func (a *App) PickWaypointHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	system := q.Get("system")
	sx, errX := strconv.ParseFloat(q.Get("sx"), 64)
	sy, errY := strconv.ParseFloat(q.Get("sy"), 64)
	if system == "" || errX != nil || errY != nil {
		http.Error(w, "system, sx and sy are required", http.StatusBadRequest)
		return
	}
	wps, err := a.waypoints(ctx, system)
	if err != nil {
		a.render(w, "status.html", result.Failed[int](err))
		return
	}
	v := viewportFor(r, wps)
	wp, found := starmap.Nearest(v, wps, sx, sy, pickRadius)
	pv := pickView{Waypoint: wp, Found: found}
	if st := session.FromContext(ctx); st != nil {
		if s, ok := st.SelectedShip(); ok {
			pv.Ship = s.Symbol
		}
	}
	a.render(w, "pick.html", pv)
}

type quoteView struct {
	Kind   string
	Ship   string
	Result result.Result[types.Quote]
}

// QuoteHandler shows what a repair or scrap would pay or cost before the
// viewer commits to it.
func (a *App) QuoteHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	symbol := chi.URLParam(r, "symbol")
	kind := chi.URLParam(r, "kind")
	v := quoteView{Kind: kind, Ship: symbol}
	switch kind {
	case "repair":
		v.Result = result.From(a.client.RepairQuote(ctx, symbol))
	case "scrap":
		v.Result = result.From(a.client.ScrapQuote(ctx, symbol))
	default:
		http.NotFound(w, r)
		return
	}
	a.render(w, "quote.html", v)
}

type export struct {
	Exported time.Time        `json:"exported"`
	Session  session.Snapshot `json:"session"`
	Actions  []db.ActionEntry `json:"actions,omitempty"`
}

// ExportHandler downloads the viewer's state and the recent action log.
func (a *App) ExportHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	e := export{Exported: time.Now().UTC()}
	if st := session.FromContext(ctx); st != nil {
		e.Session = st.Snapshot()
	}
	if a.db != nil {
		actions, err := db.RecentActions(ctx, a.db, "", 100)
		if err != nil {
			slog.Warn("could not read action log for export", "error", err)
		}
		e.Actions = actions
	}
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		http.Error(w, "failed to marshal export data", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="spacegui-session.json"`)
	_, _ = w.Write(data)
}
