package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"nutrihelper/internal/api"
	"nutrihelper/internal/cache"
	"nutrihelper/internal/core"
	"nutrihelper/internal/services"
	"nutrihelper/internal/session"
)

// fakeBackend plays both the nutrition backend and its auth endpoints.
type fakeBackend struct {
	mu      sync.Mutex
	entries []core.FoodEntry
	recipes []core.Recipe
	err     error
}

func (f *fakeBackend) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeBackend) AddFoodEntry(_ context.Context, cred api.Credential, e core.FoodEntry) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	if cred == "" {
		return "", api.ErrMissingCredential
	}
	f.entries = append(f.entries, e)
	return "Food entry added successfully", nil
}

func (f *fakeBackend) ListFoodEntries(context.Context, api.Credential) ([]core.FoodEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]core.FoodEntry(nil), f.entries...), nil
}

func (f *fakeBackend) FilterFoodEntries(ctx context.Context, cred api.Credential, _, _ time.Time) ([]core.FoodEntry, error) {
	return f.ListFoodEntries(ctx, cred)
}

func (f *fakeBackend) LookupFood(_ context.Context, _ api.Credential, q string) (core.FoodInfo, error) {
	return core.FoodInfo{ProductName: q, Calories: 52, Carbohydrates: 14}, nil
}

func (f *fakeBackend) RecommendRecipes(context.Context, api.Credential, core.MacroTargets) ([]core.Recipe, error) {
	return f.recipes, nil
}

func (f *fakeBackend) Signup(_ context.Context, req api.SignupRequest) (string, error) {
	if req.Email == "taken@example.com" {
		return "", &api.Error{StatusCode: http.StatusConflict, Message: "email already registered"}
	}
	return "User created successfully", nil
}

func (f *fakeBackend) Login(_ context.Context, email, password string) (api.Credential, error) {
	if password != "secret" {
		return "", &api.Error{StatusCode: http.StatusUnauthorized, Message: "invalid credentials"}
	}
	return api.Credential("tok-" + email), nil
}

func (f *fakeBackend) Logout(context.Context, api.Credential) error { return nil }

func (f *fakeBackend) ForgotPassword(context.Context, api.PasswordReset) (string, error) {
	return "Password updated", nil
}

type testEnv struct {
	srv     *Server
	backend *fakeBackend
	store   *session.MemoryStore
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	backend := &fakeBackend{
		recipes: []core.Recipe{{Title: "Lentil soup", Nutrition: core.RecipeNutrition{Calories: 320.4, Protein: 18, Fat: 6, Carbohydrates: 48}}},
	}
	store := session.NewMemoryStore()

	charts := services.NewChartService(backend, cache.NewLRUCache[core.MonthOverview](10, time.Minute), nil)
	entries := services.NewEntryService(backend, nil, charts, nil)
	progress := services.NewProgressService(backend, time.UTC)

	opts.Addr = ":0"
	opts.Auth = services.NewAuthService(backend, store, time.Hour, nil)
	opts.Entries = entries
	opts.Charts = charts
	opts.Progress = progress
	opts.Recipes = services.NewRecipeService(backend, entries, store, nil)
	opts.Lookup = services.NewLookupService(backend, nil)
	opts.Dashboard = services.NewDashboardService(charts, progress)
	opts.ReadyChecks = append(opts.ReadyChecks, ReadyCheck{Name: "sessions", Check: store.Ping})

	srv := NewServer(opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testEnv{srv: srv, backend: backend, store: store}
}

func (e *testEnv) do(method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) login(t *testing.T) *http.Cookie {
	t.Helper()
	rr := e.do(http.MethodPost, "/api/login", `{"email":"ada@example.com","password":"secret"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("login status=%d body=%s", rr.Code, rr.Body.String())
	}
	for _, c := range rr.Result().Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	t.Fatal("login did not set the session cookie")
	return nil
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t, Options{})

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := env.do(http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d body=%s", path, rr.Code, rr.Body.String())
		}
	}

	failing := newTestEnv(t, Options{ReadyChecks: []ReadyCheck{{
		Name:  "backend",
		Check: func(context.Context) error { return errors.New("connection refused") },
	}}})
	rr := failing.do(http.MethodGet, "/readyz", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "connection refused") {
		t.Errorf("readiness body should name the failing check: %s", rr.Body.String())
	}
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t, Options{CookieSecure: true})

	rr := env.do(http.MethodPost, "/api/login", `{"email":"ada@example.com","password":"wrong"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: expected 401, got %d", rr.Code)
	}

	rr = env.do(http.MethodPost, "/api/login", `{"email":"ada@example.com","password":"secret"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("login status=%d", rr.Code)
	}
	var cookie *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == sessionCookie {
			cookie = c
		}
	}
	if cookie == nil || !cookie.HttpOnly || !cookie.Secure || cookie.SameSite != http.SameSiteLaxMode {
		t.Fatalf("unexpected session cookie %+v", cookie)
	}
	if strings.Contains(rr.Body.String(), "tok-") {
		t.Error("backend token must never reach the browser")
	}

	if rr := env.do(http.MethodGet, "/api/entries", "", cookie); rr.Code != http.StatusOK {
		t.Fatalf("entries with session: status=%d", rr.Code)
	}

	if rr := env.do(http.MethodPost, "/api/logout", "", cookie); rr.Code != http.StatusNoContent {
		t.Fatalf("logout status=%d", rr.Code)
	}
	if rr := env.do(http.MethodGet, "/api/entries", "", cookie); rr.Code != http.StatusUnauthorized {
		t.Fatalf("entries after logout: expected 401, got %d", rr.Code)
	}
	if rr := env.do(http.MethodPost, "/api/logout", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("logout without session: expected 204, got %d", rr.Code)
	}
}

func TestSignupAndForgotPassword(t *testing.T) {
	env := newTestEnv(t, Options{})

	rr := env.do(http.MethodPost, "/api/signup", `{"email":"new@example.com","password":"pw123456","name":"New","security_answer":"blue"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("signup status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = env.do(http.MethodPost, "/api/signup", `{"email":"taken@example.com","password":"pw123456","name":"T","security_answer":"x"}`)
	if rr.Code != http.StatusUnprocessableEntity || !strings.Contains(rr.Body.String(), "email already registered") {
		t.Fatalf("duplicate signup: got %d %s", rr.Code, rr.Body.String())
	}

	rr = env.do(http.MethodPost, "/api/forgot-password", `{"email":"ada@example.com","security_answer":"blue","new_password":"n3wpass!"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("forgot-password status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestEntriesRequireSession(t *testing.T) {
	env := newTestEnv(t, Options{})
	unknown := &http.Cookie{Name: sessionCookie, Value: "nope"}

	for _, path := range []string{"/api/entries", "/api/chart/month", "/api/progress/today", "/api/dashboard", "/api/recipes/added"} {
		if rr := env.do(http.MethodGet, path, ""); rr.Code != http.StatusUnauthorized {
			t.Errorf("%s without cookie: expected 401, got %d", path, rr.Code)
		}
		if rr := env.do(http.MethodGet, path, "", unknown); rr.Code != http.StatusUnauthorized {
			t.Errorf("%s with unknown session: expected 401, got %d", path, rr.Code)
		}
	}
}

func TestCreateEntryAndChart(t *testing.T) {
	env := newTestEnv(t, Options{})
	cookie := env.login(t)

	// prime the chart cache so the write has something to invalidate
	before := decode[monthJSON](t, env.do(http.MethodGet, "/api/chart/month", "", cookie))
	if before.Total.Calories != 0 {
		t.Fatalf("expected empty month, got %+v", before.Total)
	}

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{"name":`, http.StatusBadRequest},
		{"empty name", `{"name":"","portion":100,"meal_type":"lunch"}`, http.StatusUnprocessableEntity},
		{"zero portion", `{"name":"Rice","portion":0,"meal_type":"lunch"}`, http.StatusUnprocessableEntity},
		{"unknown meal", `{"name":"Rice","portion":100,"meal_type":"brunch"}`, http.StatusUnprocessableEntity},
		{"negative macro", `{"name":"Rice","portion":100,"meal_type":"lunch","calories":-1}`, http.StatusUnprocessableEntity},
		{"bad time", `{"name":"Rice","portion":100,"meal_type":"lunch","consumed_at":"yesterday"}`, http.StatusUnprocessableEntity},
		{"valid", `{"name":"Rice","portion":150,"meal_type":"Lunch","calories":195,"protein":4,"carbohydrates":42}`, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(http.MethodPost, "/api/entries", tt.body, cookie)
			if rr.Code != tt.want {
				t.Fatalf("status=%d want %d body=%s", rr.Code, tt.want, rr.Body.String())
			}
		})
	}

	entries := decode[[]entryJSON](t, env.do(http.MethodGet, "/api/entries", "", cookie))
	if len(entries) != 1 || entries[0].Name != "Rice" || entries[0].Unit != core.DefaultUnit || entries[0].MealType != "lunch" {
		t.Fatalf("unexpected entries %+v", entries)
	}

	month := decode[monthJSON](t, env.do(http.MethodGet, "/api/chart/month", "", cookie))
	start, end := core.MonthBounds(time.Now())
	if len(month.Days) != end.Day() || month.Days[0].Date != start.Format(core.DateLayout) {
		t.Fatalf("expected %d days starting %s, got %d", end.Day(), start.Format(core.DateLayout), len(month.Days))
	}
	if month.Total.Calories != 195 || month.LoggedDays != 1 {
		t.Errorf("chart not refreshed after write: %+v", month.Total)
	}
}

func TestFilterEntries(t *testing.T) {
	env := newTestEnv(t, Options{})
	cookie := env.login(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing end", `{"from":"2024-03-01"}`, http.StatusUnprocessableEntity},
		{"bad format", `{"from":"01/03/2024","to":"2024-03-05"}`, http.StatusUnprocessableEntity},
		{"reversed", `{"from":"2024-03-05","to":"2024-03-01"}`, http.StatusUnprocessableEntity},
		{"valid", `{"from":"2024-03-01","to":"2024-03-05"}`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rr := env.do(http.MethodPost, "/api/entries/filter", tt.body, cookie); rr.Code != tt.want {
				t.Fatalf("status=%d want %d body=%s", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

func TestProgressAndDashboard(t *testing.T) {
	env := newTestEnv(t, Options{})
	cookie := env.login(t)

	if rr := env.do(http.MethodGet, "/api/progress/today?weight=abc", "", cookie); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid weight: expected 422, got %d", rr.Code)
	}

	rr := env.do(http.MethodGet, "/api/progress/today?weight=60&height=165&age=30&gender=female", "", cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("progress status=%d body=%s", rr.Code, rr.Body.String())
	}
	p := decode[progressJSON](t, rr)
	// 10*60 + 6.25*165 - 5*30 - 161
	if p.BMR != 1320.25 {
		t.Errorf("BMR = %v, want 1320.25", p.BMR)
	}
	if len(p.Nutrients) != 5 || p.Nutrients[0].Name != "Calories" || !p.Nutrients[0].Low {
		t.Errorf("unexpected nutrients %+v", p.Nutrients)
	}

	rr = env.do(http.MethodGet, "/api/dashboard", "", cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard status=%d", rr.Code)
	}
	d := decode[dashboardJSON](t, rr)
	if len(d.Month.Days) == 0 || d.Progress.Stats.Gender != "male" {
		t.Errorf("unexpected dashboard %+v", d.Progress.Stats)
	}
}

func TestBackendErrorMapping(t *testing.T) {
	env := newTestEnv(t, Options{})
	cookie := env.login(t)

	env.backend.setErr(&api.Error{StatusCode: http.StatusInternalServerError, Message: "db down"})
	rr := env.do(http.MethodGet, "/api/entries", "", cookie)
	if rr.Code != http.StatusBadGateway || strings.Contains(rr.Body.String(), "db down") {
		t.Fatalf("backend failure: got %d %s", rr.Code, rr.Body.String())
	}

	env.backend.setErr(&api.Error{StatusCode: http.StatusUnauthorized, Message: "token expired"})
	if rr := env.do(http.MethodGet, "/api/entries", "", cookie); rr.Code != http.StatusUnauthorized {
		t.Fatalf("backend 401: expected 401, got %d", rr.Code)
	}
}

func TestFoodsAndRecipes(t *testing.T) {
	env := newTestEnv(t, Options{})
	cookie := env.login(t)

	if rr := env.do(http.MethodGet, "/api/foods/search?q=apple", ""); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("search without a food database: expected 503, got %d", rr.Code)
	}
	if rr := env.do(http.MethodGet, "/api/foods/search", ""); rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("search without terms: expected 422, got %d", rr.Code)
	}

	rr := env.do(http.MethodPost, "/api/foods/lookup", `{"query":"1 apple"}`, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("lookup status=%d", rr.Code)
	}
	if info := decode[foodInfoJSON](t, rr); info.ProductName != "1 apple" || info.Calories != 52 {
		t.Errorf("unexpected lookup %+v", info)
	}

	if rr := env.do(http.MethodPost, "/api/recipes/recommend", `{"calories":500,"protein":0,"fat":10,"carbohydrates":50}`, cookie); rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("zero target: expected 422, got %d", rr.Code)
	}
	rr = env.do(http.MethodPost, "/api/recipes/recommend", `{"calories":500,"protein":30,"fat":10,"carbohydrates":50}`, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("recommend status=%d", rr.Code)
	}
	recipes := decode[[]recipeJSON](t, rr)
	if len(recipes) != 1 || recipes[0].Title != "Lentil soup" {
		t.Fatalf("unexpected recipes %+v", recipes)
	}

	body, _ := json.Marshal(recipes[0])
	if rr := env.do(http.MethodPost, "/api/recipes/add", string(body), cookie); rr.Code != http.StatusCreated {
		t.Fatalf("add recipe status=%d body=%s", rr.Code, rr.Body.String())
	}
	added := decode[map[string][]string](t, env.do(http.MethodGet, "/api/recipes/added", "", cookie))
	if len(added["titles"]) != 1 || added["titles"][0] != "Lentil soup" {
		t.Errorf("unexpected added recipes %+v", added)
	}

	entries := decode[[]entryJSON](t, env.do(http.MethodGet, "/api/entries", "", cookie))
	if len(entries) != 1 || entries[0].MealType != "meal" || entries[0].Calories != 320 {
		t.Errorf("recipe should be logged as a rounded meal entry, got %+v", entries)
	}
}

func TestAddFoodSearchHit(t *testing.T) {
	env := newTestEnv(t, Options{})
	cookie := env.login(t)
	hit := `{"id":"3017620422003","name":"Nutella","per_100g":{"calories":539,"protein":6.3,"fat":30.9,"carbohydrates":57.5}}`

	tests := []struct {
		name   string
		body   string
		auth   bool
		status int
	}{
		{"no session", hit, false, http.StatusUnauthorized},
		{"unnamed product", `{"id":"1","per_100g":{"calories":10}}`, true, http.StatusUnprocessableEntity},
		{"malformed body", `{"name":`, true, http.StatusBadRequest},
		{"search hit", hit, true, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cookies []*http.Cookie
			if tt.auth {
				cookies = append(cookies, cookie)
			}
			if rr := env.do(http.MethodPost, "/api/foods/add", tt.body, cookies...); rr.Code != tt.status {
				t.Fatalf("expected %d, got %d body=%s", tt.status, rr.Code, rr.Body.String())
			}
		})
	}

	entries := decode[[]entryJSON](t, env.do(http.MethodGet, "/api/entries", "", cookie))
	if len(entries) != 1 {
		t.Fatalf("expected only the search hit to be logged, got %+v", entries)
	}
	if e := entries[0]; e.Name != "Nutella" || e.MealType != "snack" || e.Portion != 100 || e.Calories != 539 {
		t.Errorf("unexpected logged entry %+v", e)
	}
}

func TestWrongMethod(t *testing.T) {
	env := newTestEnv(t, Options{})
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/login"},
		{http.MethodDelete, "/api/entries"},
		{http.MethodPost, "/api/chart/month"},
	} {
		if rr := env.do(tc.method, tc.path, ""); rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s: expected 405, got %d", tc.method, tc.path, rr.Code)
		}
	}
}

func TestRateLimitAppliesToPostOnly(t *testing.T) {
	env := newTestEnv(t, Options{RateLimitPerMinute: 2})

	for i := 0; i < 2; i++ {
		if rr := env.do(http.MethodPost, "/api/login", `{"email":"a@b.co","password":"wrong"}`); rr.Code != http.StatusUnauthorized {
			t.Fatalf("request %d: expected 401, got %d", i+1, rr.Code)
		}
	}
	rr := env.do(http.MethodPost, "/api/login", `{"email":"a@b.co","password":"wrong"}`)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("429 should carry Retry-After")
	}

	for i := 0; i < 5; i++ {
		if rr := env.do(http.MethodGet, "/healthz", ""); rr.Code != http.StatusOK {
			t.Fatalf("GET should not be rate limited, got %d", rr.Code)
		}
	}
}

func TestMiddlewareHeadersAndMetrics(t *testing.T) {
	env := newTestEnv(t, Options{CORSOrigins: []string{"https://app.example.com"}})

	rr := env.do(http.MethodGet, "/healthz", "")
	for _, h := range []string{"Content-Security-Policy", "X-Content-Type-Options", "X-Frame-Options", "X-Request-ID"} {
		if rr.Header().Get(h) == "" {
			t.Errorf("missing %s header", h)
		}
	}

	req := httptest.NewRequest(http.MethodOptions, "/api/entries", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	pre := httptest.NewRecorder()
	env.srv.Handler.ServeHTTP(pre, req)
	if got := pre.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("CORS preflight allow-origin = %q", got)
	}

	metrics := env.do(http.MethodGet, "/metrics", "")
	if metrics.Code != http.StatusOK {
		t.Fatalf("metrics status=%d", metrics.Code)
	}
	body := metrics.Body.String()
	for _, want := range []string{
		`nutrihelper_http_requests_total{code="200",method="GET",route="GET /healthz"} 1`,
		"nutrihelper_http_request_duration_seconds",
		"nutrihelper_rate_limit_clients",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestPages(t *testing.T) {
	env := newTestEnv(t, Options{})

	rr := env.do(http.MethodGet, "/", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Sign in") {
		t.Fatalf("anonymous index: status=%d", rr.Code)
	}

	if rr := env.do(http.MethodGet, "/chart", ""); rr.Code != http.StatusSeeOther {
		t.Fatalf("anonymous chart: expected redirect, got %d", rr.Code)
	}

	cookie := env.login(t)
	if rr := env.do(http.MethodPost, "/api/entries", `{"name":"Oats","portion":80,"meal_type":"breakfast","calories":300,"fiber":8}`, cookie); rr.Code != http.StatusCreated {
		t.Fatalf("seed entry status=%d", rr.Code)
	}

	rr = env.do(http.MethodGet, "/?gender=female", "", cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d", rr.Code)
	}
	for _, want := range []string{"Log food", "Today,", "Fiber", "ada@example.com"} {
		if !strings.Contains(rr.Body.String(), want) {
			t.Errorf("index missing %q", want)
		}
	}

	rr = env.do(http.MethodGet, "/chart", "", cookie)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "<svg") || !strings.Contains(rr.Body.String(), "300 kcal") {
		t.Fatalf("chart page: status=%d", rr.Code)
	}

	if rr := env.do(http.MethodGet, "/static/app.css", ""); rr.Code != http.StatusOK {
		t.Errorf("static asset status=%d", rr.Code)
	}
	if rr := env.do(http.MethodGet, "/missing", ""); rr.Code != http.StatusNotFound {
		t.Errorf("unknown path: expected 404, got %d", rr.Code)
	}
}
