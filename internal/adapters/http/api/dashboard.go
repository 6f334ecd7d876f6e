// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"bytes"
	"io/fs"
	"net/http"
	"time"
)

// dashboardHandler handles dashboard requests
type dashboardHandler struct{}

// newdashboardHandler creates a new dashboard handler
func newdashboardHandler() *dashboardHandler {
	return &dashboardHandler{}
}

// HandleDashboard handles GET / and GET /dashboard requests
// Returns an HTML page with JavaScript that polls /metrics and renders
// training progress, feedback forms and the model tester
func (h *dashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/dashboard" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	if _, err := dashboardFS.Open("dashboard.html"); err != nil {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Dashboard not found. API is running on this port.\n"))
		return
	}
	// Serve embedded dashboard page. http.ServeFileFS needs Go 1.22; this
	// toolchain is 1.21, so serve the same bytes via ServeContent instead.
	data, err := fs.ReadFile(dashboardFS, "dashboard.html")
	if err != nil {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Dashboard not found. API is running on this port.\n"))
		return
	}
	http.ServeContent(w, r, "dashboard.html", time.Time{}, bytes.NewReader(data))
}
