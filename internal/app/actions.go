package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/papaburgs/spacegui/internal/db"
	"github.com/papaburgs/spacegui/internal/querycache"
	"github.com/papaburgs/spacegui/internal/result"
	"github.com/papaburgs/spacegui/internal/session"
	"github.com/papaburgs/spacegui/internal/spacetraders"
	"github.com/papaburgs/spacegui/internal/types"
)

// ShipActionHandler runs dock, orbit, refuel, repair, scrap, emergency-stop
// and the movement actions, then redraws the sidebar.
func (a *App) ShipActionHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	symbol := chi.URLParam(r, "symbol")
	action := chi.URLParam(r, "action")

	var res types.ActionResult
	var err error
	switch action {
	case "navigate":
		res, err = a.client.Navigate(ctx, symbol, r.FormValue("waypoint"))
	case "jump":
		res, err = a.client.Jump(ctx, symbol, r.FormValue("system"))
	case "warp":
		res, err = a.client.Warp(ctx, symbol, r.FormValue("waypoint"))
	case "route":
		res, err = a.client.Route(ctx, symbol, r.FormValue("destination"))
	default:
		if !spacetraders.Action(action).Valid() {
			http.NotFound(w, r)
			return
		}
		res, err = a.client.Do(ctx, symbol, spacetraders.Action(action))
	}
	a.finishShipAction(w, r, symbol, action, res, err)
}

// finishShipAction applies an action's outcome and redraws the sidebar, or
// shows the alert when the action failed.
func (a *App) finishShipAction(w http.ResponseWriter, r *http.Request, symbol, action string, res types.ActionResult, err error) {
	ctx := r.Context()
	st := session.FromContext(ctx)
	a.recordAction(ctx, symbol, action, err)
	if err != nil {
		a.actionFailed(w, action, err)
		return
	}

	ship, err := a.applyResult(ctx, st, symbol, res)
	if err != nil {
		// the action went through, only the re-read failed
		slog.Warn("could not re-read ship after action", "ship", symbol, "action", action, "error", err)
		v := sidebarView{Result: result.Failed[types.Ship](err)}
		v.Ship, v.Selected = st.SelectedShip()
		a.render(w, "sidebar.html", v)
		return
	}
	if res.Surveys != nil {
		st.AddSurveys(res.Surveys)
	}
	a.hub.ShipChanged(symbol, string(ship.Nav.Status), action)
	trigger(w, "shipUpdated")
	a.renderSidebar(w, st, notice(action, res))
}

// applyResult brings the held ship up to date from an action response. A
// full ship replaces it; a nav replaces only the nav; anything else means
// the ship is read again. The server's objects are used as sent.
func (a *App) applyResult(ctx context.Context, st *session.State, symbol string, res types.ActionResult) (types.Ship, error) {
	a.invalidateShip(symbol)

	var ship types.Ship
	switch {
	case res.Ship != nil:
		ship = *res.Ship
	case res.Nav != nil:
		held, ok := st.SelectedShip()
		if !ok || held.Symbol != symbol {
			var err error
			if held, err = a.ship(ctx, symbol); err != nil {
				return types.Ship{}, err
			}
		}
		ship = held
		ship.Nav = *res.Nav
		if res.Fuel != nil {
			ship.Fuel = *res.Fuel
		}
		if res.Cooldown != nil {
			ship.Cooldown = res.Cooldown
		}
	default:
		var err error
		if ship, err = a.ship(ctx, symbol); err != nil {
			return types.Ship{}, err
		}
	}
	st.UpdateShip(ship)
	return ship, nil
}

// notice is the one line summary shown above the sidebar after an action.
func notice(action string, res types.ActionResult) string {
	parts := []string{titleCase(action) + " done"}
	if res.Message != "" {
		parts = append(parts, res.Message)
	}
	if t := res.Transaction; t != nil && t.TotalPrice != 0 {
		parts = append(parts, fmt.Sprintf("%d credits", t.TotalPrice))
	}
	if len(res.Route) > 0 {
		parts = append(parts, "route "+strings.Join(res.Route, " > "))
	}
	return strings.Join(parts, ", ")
}

// recordAction counts the action and writes it to the action log when a
// database is configured.
func (a *App) recordAction(ctx context.Context, symbol, action string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	if a.metrics != nil {
		a.metrics.Actions.WithLabelValues(action, outcome).Inc()
	}
	if a.db == nil {
		return
	}
	e := db.ActionEntry{Ship: symbol, Action: action, OK: err == nil}
	if err != nil {
		e.Detail = spacetraders.DetailOf(err)
	}
	// log even when the browser has gone
	if lerr := db.LogAction(context.WithoutCancel(ctx), a.db, e); lerr != nil {
		slog.Error("could not write action log", "error", lerr)
	}
}

// ScanHandler stores the scan under its type and switches the tab to it.
func (a *App) ScanHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := session.FromContext(ctx)
	symbol := chi.URLParam(r, "symbol")
	scanType := chi.URLParam(r, "type")

	res, err := a.client.Scan(ctx, symbol, scanType)
	a.recordAction(ctx, symbol, "scan", err)
	if err != nil {
		a.actionFailed(w, "scan", err)
		return
	}
	st.PutScan(res)
	a.applyCooldown(st, symbol, res.Cooldown)
	trigger(w, "shipUpdated")
	a.render(w, "intelligence.html", a.loadIntelligence(ctx, r, st))
}

func (a *App) SurveyHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := session.FromContext(ctx)
	symbol := chi.URLParam(r, "symbol")

	res, err := a.client.Survey(ctx, symbol)
	a.recordAction(ctx, symbol, "survey", err)
	if err != nil {
		a.actionFailed(w, "survey", err)
		return
	}
	st.AddSurveys(res.Surveys)
	a.applyCooldown(st, symbol, res.Cooldown)
	trigger(w, "shipUpdated")
	a.render(w, "intelligence.html", a.loadIntelligence(ctx, r, st))
}

// applyCooldown copies a cooldown onto the selected ship when it is the one
// that acted.
func (a *App) applyCooldown(st *session.State, symbol string, cd *types.Cooldown) {
	if cd == nil {
		return
	}
	ship, ok := st.SelectedShip()
	if !ok || ship.Symbol != symbol {
		return
	}
	ship.Cooldown = cd
	st.UpdateShip(ship)
}

// SecurityHandler flips a feature and then reads the status back; the toggle
// response is never shown.
func (a *App) SecurityHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := session.FromContext(ctx)
	symbol := chi.URLParam(r, "symbol")
	feature := types.SecurityFeature(chi.URLParam(r, "feature"))
	enabled, _ := strconv.ParseBool(r.FormValue("enabled"))

	err := a.client.ToggleSecurity(ctx, symbol, feature, enabled)
	a.recordAction(ctx, symbol, "security-"+string(feature), err)
	if err != nil {
		a.actionFailed(w, string(feature), err)
		return
	}
	a.cache.Invalidate(querycache.Key(keySecurity, symbol))
	a.render(w, "intelligence.html", a.loadIntelligence(ctx, r, st))
}

// CrewHandler covers hire, fire, train and assign. The roster is always read
// again afterwards.
func (a *App) CrewHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := session.FromContext(ctx)
	symbol := chi.URLParam(r, "symbol")
	id := chi.URLParam(r, "id")
	op := chi.URLParam(r, "op")
	if id == "" {
		op = "hire"
	}

	var err error
	switch op {
	case "hire":
		_, err = a.client.HireCrew(ctx, symbol, r.FormValue("role"))
	case "fire":
		err = a.client.FireCrew(ctx, symbol, id)
	case "train":
		_, err = a.client.TrainCrew(ctx, symbol, id, r.FormValue("skill"))
	case "assign":
		_, err = a.client.AssignCrew(ctx, symbol, id, r.FormValue("station"))
	default:
		http.NotFound(w, r)
		return
	}
	a.recordAction(ctx, symbol, "crew-"+op, err)
	if err != nil {
		a.actionFailed(w, op, err)
		return
	}
	a.cache.Invalidate(querycache.Key(keyCrew, symbol))
	a.invalidateShip(symbol)
	a.render(w, "crew.html", a.loadCrew(ctx, r, st))
}

// ResourceHandler posts a resource subsystem action. Every form field is
// passed along as a parameter.
func (a *App) ResourceHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := session.FromContext(ctx)
	symbol := chi.URLParam(r, "symbol")
	action := chi.URLParam(r, "action")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	params := map[string]any{}
	for k := range r.PostForm {
		v := r.PostForm.Get(k)
		if n, err := strconv.Atoi(v); err == nil {
			params[k] = n
		} else {
			params[k] = v
		}
	}

	res, err := a.client.ResourceAction(ctx, symbol, action, params)
	a.recordAction(ctx, symbol, "resources-"+action, err)
	if err != nil {
		a.actionFailed(w, action, err)
		return
	}
	a.cache.Invalidate(querycache.Key(keyResources, symbol))
	if _, err := a.applyResult(ctx, st, symbol, res); err != nil {
		slog.Warn("could not re-read ship after resource action", "ship", symbol, "error", err)
	}
	trigger(w, "shipUpdated")
	a.render(w, "resources.html", a.loadResources(ctx, r, st))
}

// RefitHandler handles install, remove and customize from the modify page.
func (a *App) RefitHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := session.FromContext(ctx)
	symbol := chi.URLParam(r, "symbol")
	op := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]

	var res types.ActionResult
	var err error
	switch op {
	case "install":
		res, err = a.client.Install(ctx, symbol, r.FormValue("symbol"))
	case "remove":
		res, err = a.client.Remove(ctx, symbol, r.FormValue("symbol"))
	case "customize":
		res, err = a.client.Customize(ctx, symbol, spacetraders.Customization{
			Name:  r.FormValue("name"),
			Paint: r.FormValue("paint"),
		})
	default:
		http.NotFound(w, r)
		return
	}
	a.recordAction(ctx, symbol, op, err)
	if err != nil {
		a.actionFailed(w, op, err)
		return
	}
	a.cache.Invalidate(querycache.Key(keyModInfo, symbol))
	if _, err := a.applyResult(ctx, st, symbol, res); err != nil {
		slog.Warn("could not re-read ship after refit", "ship", symbol, "error", err)
	}
	a.hub.ShipChanged(symbol, "", op)
	trigger(w, "shipUpdated")
	a.render(w, "modify.html", a.loadModify(ctx, r, st))
}

// AutomationHandler turns a feature on or off. Form fields other than
// enabled become its settings.
func (a *App) AutomationHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	feature := chi.URLParam(r, "feature")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	cfg := spacetraders.AutomationConfig{Settings: map[string]string{}}
	cfg.Enabled, _ = strconv.ParseBool(r.PostForm.Get("enabled"))
	for k := range r.PostForm {
		if k != "enabled" {
			cfg.Settings[k] = r.PostForm.Get(k)
		}
	}

	_, err := a.client.ConfigureAutomation(ctx, feature, cfg)
	a.recordAction(ctx, "", "automation-"+feature, err)
	if err != nil {
		a.actionFailed(w, feature, err)
		return
	}
	a.cache.Invalidate(keyAutomation)
	a.render(w, "automation.html", pageView[types.AutomationStatus]{Result: result.From(a.automation(ctx))})
}

type routeView struct {
	Result result.Result[types.RouteOptimization]
}

// RouteOptimizationHandler asks for a route over the listed destinations,
// one per line or comma separated.
func (a *App) RouteOptimizationHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req := spacetraders.RouteRequest{ShipSymbol: r.FormValue("ship")}
	for _, d := range strings.FieldsFunc(r.FormValue("destinations"), func(c rune) bool {
		return c == ',' || c == '\n' || c == '\r'
	}) {
		if d = strings.TrimSpace(d); d != "" {
			req.Destinations = append(req.Destinations, d)
		}
	}

	opt, err := a.client.OptimizeRoute(ctx, req)
	a.recordAction(ctx, req.ShipSymbol, "route-optimization", err)
	if err != nil {
		a.actionFailed(w, "route optimization", err)
		return
	}
	a.render(w, "route.html", routeView{Result: result.Of(opt)})
}
