package http

import (
	"bytes"
	"errors"
	"net/http"

	"nutrihelper/internal/core"
	applog "nutrihelper/internal/log"
	"nutrihelper/internal/services"
	"nutrihelper/internal/session"
)

type indexPage struct {
	Email    string
	Stats    core.UserStats
	Progress *services.Progress
	Error    string
}

// chartBar is one day in the SVG chart; bars are 10 units apart.
type chartBar struct {
	core.DailyTotals
	X, Y, Height float64
}

type chartPage struct {
	Email string
	Month core.MonthOverview
	Bars  []chartBar
	Peak  float64
	Width int
	Error string
}

// handleIndex renders the login form for visitors and today's progress for
// signed-in users. Backend failures still render the page with a notice.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page := indexPage{Stats: core.DefaultUserStats()}

	sess, err := s.currentSession(r)
	if err == nil {
		page.Email = sess.Email
		stats, perr := ParseStatsParams(r.URL.Query())
		if perr != nil {
			page.Error = perr.Error()
		} else {
			page.Stats = stats
			p, err := s.progress.Today(r.Context(), sess, stats)
			if err != nil {
				_, page.Error = errorStatus(err)
				s.logPageError(r, "index", err)
			} else {
				page.Progress = &p
			}
		}
	} else if !errors.Is(err, session.ErrNotFound) {
		s.logPageError(r, "index", err)
	}

	s.render(w, r, "index.html", page)
}

func (s *Server) handleChartPage(w http.ResponseWriter, r *http.Request) {
	sess, err := s.currentSession(r)
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	page := chartPage{Email: sess.Email}
	ov, err := s.charts.Month(r.Context(), sess)
	if err != nil {
		_, page.Error = errorStatus(err)
		s.logPageError(r, "chart", err)
		s.render(w, r, "chart.html", page)
		return
	}

	page.Month = ov
	for _, d := range ov.Days {
		page.Peak = max(page.Peak, d.Calories)
	}
	page.Width = len(ov.Days) * 10
	page.Bars = make([]chartBar, 0, len(ov.Days))
	for i, d := range ov.Days {
		h := barHeight(d.Calories, page.Peak)
		page.Bars = append(page.Bars, chartBar{DailyTotals: d, X: float64(i*10 + 1), Y: 100 - h, Height: h})
	}
	s.render(w, r, "chart.html", page)
}

// render executes name into a buffer so a template failure yields a clean
// 500 instead of a half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		applog.FromContext(r.Context()).WithComponent(applog.ComponentTemplate).ErrorContext(r.Context(), "Template render failed",
			"template", name,
			applog.FieldError, err)
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

func (s *Server) logPageError(r *http.Request, page string, err error) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Page data unavailable",
		"page", page,
		applog.FieldError, err)
}
