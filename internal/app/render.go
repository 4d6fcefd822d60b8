package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/papaburgs/spacegui/internal/spacetraders"
	"github.com/papaburgs/spacegui/internal/starmap"
	"github.com/papaburgs/spacegui/internal/types"
)

var funcs = template.FuncMap{
	"credits": func(n int64) string { return humanize.Comma(n) },
	"ago": func(t time.Time) string {
		if t.IsZero() {
			return "never"
		}
		return humanize.Time(t)
	},
	"pct": func(cur, max int) int {
		if max <= 0 {
			return 0
		}
		return cur * 100 / max
	},
	"title": titleCase,
	"pretty": func(raw json.RawMessage) string {
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return string(raw)
		}
		return buf.String()
	},
	"viewQuery": func(v starmap.Viewport, system string) template.URL {
		q := v.Query()
		q.Set("system", system)
		return template.URL(q.Encode())
	},
	"pan": func(v starmap.Viewport, dx, dy float64) starmap.Viewport { return v.Pan(dx, dy) },
	"zoom": func(v starmap.Viewport, f float64) starmap.Viewport {
		return v.ZoomAt(f, v.Width/2, v.Height/2)
	},
	"canAct": canAct,
	"esc":    url.PathEscape,
	"enabled": func(s types.SecurityStatus, f types.SecurityFeature) bool {
		return s.Enabled(f)
	},
}

// canAct mirrors which buttons make sense for a nav status. The server
// still has the final word.
func canAct(status types.NavStatus, action string) bool {
	switch action {
	case "dock", "survey", "scan", "navigate", "jump", "warp", "route":
		return status == types.NavInOrbit
	case "orbit", "refuel", "repair", "scrap":
		return status == types.NavDocked
	case "emergency-stop":
		return status == types.NavInTransit
	}
	return false
}

// render executes a named template into a buffer first so a template error
// never leaves half a partial in the page.
func (a *App) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := a.t.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("error rendering template", "template", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.Copy(w, &buf)
}

type alertView struct {
	Message string
}

// actionFailed puts the alert in front of the user. htmx does not swap error
// responses, so the status stays 200 and the target is switched to #alert.
func (a *App) actionFailed(w http.ResponseWriter, action string, err error) {
	msg, ok := spacetraders.ServerDetail(err)
	if !ok {
		msg = fmt.Sprintf("%s failed", titleCase(action))
	}
	slog.Warn("action failed", "action", action, "error", err)
	w.Header().Set("HX-Retarget", "#alert")
	w.Header().Set("HX-Reswap", "innerHTML")
	a.render(w, "alert.html", alertView{Message: msg})
}

// titleCase turns "emergency-stop" into "Emergency stop".
func titleCase(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "-", " ")
	return strings.ToUpper(s[:1]) + s[1:]
}

func trigger(w http.ResponseWriter, events ...string) {
	w.Header().Set("HX-Trigger", strings.Join(events, ", "))
}
