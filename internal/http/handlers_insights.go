package http

import (
	"net/http"

	applog "nutrihelper/internal/log"
	"nutrihelper/internal/session"
)

// handleChartMonth returns one DailyTotals row per day of the current
// month, zero days included.
func (s *Server) handleChartMonth(w http.ResponseWriter, r *http.Request, sess session.Session) {
	ov, err := s.charts.Month(r.Context(), sess)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, newMonthJSON(ov))
}

func (s *Server) handleProgressToday(w http.ResponseWriter, r *http.Request, sess session.Session) {
	stats, err := ParseStatsParams(r.URL.Query())
	if err != nil {
		writeError(w, r, applog.OpParse, err)
		return
	}
	p, err := s.progress.Today(r.Context(), sess, stats)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, newProgressJSON(p))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, sess session.Session) {
	stats, err := ParseStatsParams(r.URL.Query())
	if err != nil {
		writeError(w, r, applog.OpParse, err)
		return
	}
	d, err := s.dashboard.Load(r.Context(), sess, stats)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboardJSON{
		Month:    newMonthJSON(d.Month),
		Progress: newProgressJSON(d.Progress),
	})
}
