package http

import (
	"net/http"

	"nutrihelper/internal/core"
	applog "nutrihelper/internal/log"
	"nutrihelper/internal/session"
)

// handleFoodSearch queries the public food database; no session needed.
func (s *Server) handleFoodSearch(w http.ResponseWriter, r *http.Request) {
	found, err := s.lookup.Search(r.Context(), sanitizeInput(r.URL.Query().Get("q")))
	if err != nil {
		writeError(w, r, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, newCandidatesJSON(found))
}

// handleAddFood logs a search hit as a 100 g snack.
func (s *Server) handleAddFood(w http.ResponseWriter, r *http.Request, sess session.Session) {
	var body candidateJSON
	if err := decodeJSON(w, r, &body); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	msg, err := s.entries.AddCandidate(r.Context(), sess, body.candidate())
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	s.entriesLogged.Inc()
	writeJSON(w, http.StatusCreated, messageJSON{Message: msg})
}

type lookupBody struct {
	Query string `json:"query"`
}

func (s *Server) handleFoodLookup(w http.ResponseWriter, r *http.Request, sess session.Session) {
	var body lookupBody
	if err := decodeJSON(w, r, &body); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	info, err := s.lookup.Lookup(r.Context(), sess, sanitizeInput(body.Query))
	if err != nil {
		writeError(w, r, "lookup", err)
		return
	}
	writeJSON(w, http.StatusOK, foodInfoJSON(info))
}

func (s *Server) handleRecommendRecipes(w http.ResponseWriter, r *http.Request, sess session.Session) {
	var body targetsJSON
	if err := decodeJSON(w, r, &body); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	recipes, err := s.recipes.Recommend(r.Context(), sess, core.MacroTargets(body))
	if err != nil {
		writeError(w, r, "recommend", err)
		return
	}
	writeJSON(w, http.StatusOK, newRecipesJSON(recipes))
}

func (s *Server) handleAddRecipe(w http.ResponseWriter, r *http.Request, sess session.Session) {
	var body recipeJSON
	if err := decodeJSON(w, r, &body); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	msg, err := s.recipes.Add(r.Context(), sess, body.recipe())
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	s.entriesLogged.Inc()
	writeJSON(w, http.StatusCreated, messageJSON{Message: msg})
}

func (s *Server) handleAddedRecipes(w http.ResponseWriter, r *http.Request, sess session.Session) {
	titles, err := s.recipes.Added(r.Context(), sess)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	if titles == nil {
		titles = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"titles": titles})
}
