package http

import (
	"net/http"

	applog "nutrihelper/internal/log"
	"nutrihelper/internal/session"
)

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request, sess session.Session) {
	entries, err := s.entries.List(r.Context(), sess)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, newEntriesJSON(entries))
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request, sess session.Session) {
	var body entryJSON
	if err := decodeJSON(w, r, &body); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	entry, err := body.entry()
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}

	msg, err := s.entries.Add(r.Context(), sess, entry)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	s.entriesLogged.Inc()
	writeJSON(w, http.StatusCreated, messageJSON{Message: msg})
}

type filterBody struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (s *Server) handleFilterEntries(w http.ResponseWriter, r *http.Request, sess session.Session) {
	var body filterBody
	if err := decodeJSON(w, r, &body); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	from, err := parseDay("from", body.From)
	if err != nil {
		writeError(w, r, applog.OpFilter, err)
		return
	}
	to, err := parseDay("to", body.To)
	if err != nil {
		writeError(w, r, applog.OpFilter, err)
		return
	}

	entries, err := s.entries.Filter(r.Context(), sess, from, to)
	if err != nil {
		writeError(w, r, applog.OpFilter, err)
		return
	}
	writeJSON(w, http.StatusOK, newEntriesJSON(entries))
}
