package httpbench

import (
	"embed"
	"io/fs"
	"mime"
	"net/http"
	"path"

	"reqbench/pkg/config"
	"reqbench/pkg/report"
)

// Cookie names remembering the widget panel state
const (
	CookiePanelLast = "benchmark_panel_last"
	CookiePanelMain = "benchmark_panel_main"

	panelDetails  = "details-panel"
	cookieMaxAge  = 86400
	themeCacheAge = "public, max-age=3600"
)

//go:embed assets/theme
var assets embed.FS

// PanelStateFromRequest reads the panel state cookies of r
func PanelStateFromRequest(r *http.Request) report.PanelState {
	var state report.PanelState
	if c, err := r.Cookie(CookiePanelMain); err == nil {
		state.MainOpen = c.Value == "1"
	}
	if c, err := r.Cookie(CookiePanelLast); err == nil {
		state.DetailsOpen = c.Value == panelDetails
	}
	return state
}

// Routes registers the widget routes under cfg.RoutePrefix. Nothing is
// registered while profiling is disabled.
func Routes(mux *http.ServeMux, cfg config.BenchmarkConfig) {
	if !cfg.IsEnabled() {
		return
	}
	mux.HandleFunc("POST "+cfg.RoutePrefix+"/panel-stat/", handlePanelStat)
	mux.HandleFunc("GET "+cfg.RoutePrefix+"/theme/{type}/{file}", handleTheme)
}

// handlePanelStat stores the panel state posted by the widget
func handlePanelStat(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	panel := r.PostFormValue("panel")
	main := r.PostFormValue("main")
	if (panel != "" && panel != panelDetails) || (main != "0" && main != "1") {
		http.Error(w, "bad panel state", http.StatusBadRequest)
		return
	}

	for name, value := range map[string]string{CookiePanelLast: panel, CookiePanelMain: main} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    value,
			Path:     "/",
			MaxAge:   cookieMaxAge,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleTheme serves the widget's css and js
func handleTheme(w http.ResponseWriter, r *http.Request) {
	kind, file := r.PathValue("type"), r.PathValue("file")
	if kind != "css" && kind != "js" {
		http.NotFound(w, r)
		return
	}

	data, err := fs.ReadFile(assets, path.Join("assets/theme", kind, file))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	ct := mime.TypeByExtension(path.Ext(file))
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Cache-Control", themeCacheAge)
	_, _ = w.Write(data)
}
