package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/miarbol/internal/client/client"
	"github.com/dmitrijs2005/miarbol/internal/client/config"
	"github.com/dmitrijs2005/miarbol/internal/client/models"
	"github.com/dmitrijs2005/miarbol/internal/client/notify"
	"github.com/dmitrijs2005/miarbol/internal/client/output"
	"github.com/dmitrijs2005/miarbol/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/miarbol/internal/common"
	"github.com/dmitrijs2005/miarbol/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backend is a tiny stand-in for the Mi Árbol API.
type backend struct {
	mu        sync.Mutex
	treeQuery []string
	planted   []models.NewTreeInput
	logouts   int
	rejected  map[string]string
}

var testUser = models.User{
	ID:       "1",
	Email:    "ana@example.com",
	Username: "ana",
	Role:     models.RoleUser,
	Roles:    []models.RoleMembership{{Role: models.RoleUser}},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (b *backend) router() http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", func(w http.ResponseWriter, req *http.Request) {
			var body map[string]string
			_ = json.NewDecoder(req.Body).Decode(&body)
			if body["password"] != "secret" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Credenciales inválidas"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"token": "a1", "refreshToken": "r1", "user": testUser})
		})
		r.Post("/auth/logout", func(w http.ResponseWriter, _ *http.Request) {
			b.mu.Lock()
			b.logouts++
			b.mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		})
		r.Get("/auth/me", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, testUser)
		})
		r.Get("/trees", func(w http.ResponseWriter, req *http.Request) {
			b.mu.Lock()
			b.treeQuery = append(b.treeQuery, req.URL.RawQuery)
			b.mu.Unlock()
			writeJSON(w, http.StatusOK, []models.Tree{
				{ID: "10", Name: "Ceibo", Country: "AR", Status: models.TreeStatusPlanted},
				{ID: "11", Name: "Jacarandá", Country: "UY", Status: models.TreeStatusInProgress},
			})
		})
		r.Get("/trees/{id}", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Token expirado"})
		})
		r.Post("/trees", func(w http.ResponseWriter, req *http.Request) {
			var in models.NewTreeInput
			_ = json.NewDecoder(req.Body).Decode(&in)
			b.mu.Lock()
			b.planted = append(b.planted, in)
			b.mu.Unlock()
			writeJSON(w, http.StatusCreated, models.Tree{ID: "12", Name: in.Name, Country: in.Country})
		})
		r.Get("/available-trees", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"message": "Catálogo en mantenimiento"})
		})
		r.Get("/collaborative-trees", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, []models.CollaborativeTree{{ID: "5", Name: "Bosque Norte", GoalAmount: 1000, RaisedAmount: 250}})
		})
		r.Post("/moderation/{id}/reject", func(w http.ResponseWriter, req *http.Request) {
			var body map[string]string
			_ = json.NewDecoder(req.Body).Decode(&body)
			b.mu.Lock()
			if b.rejected == nil {
				b.rejected = map[string]string{}
			}
			b.rejected[chi.URLParam(req, "id")] = body["reason"]
			b.mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		})
	})
	return r
}

type testApp struct {
	app   *App
	repo  metadata.Repository
	rec   *notify.Recorder
	out   *bytes.Buffer
	lines *[]string
}

func newTestApp(t *testing.T, b *backend, script ...string) *testApp {
	t.Helper()

	orig := isTerminal
	isTerminal = func(int) bool { return false }
	t.Cleanup(func() { isTerminal = orig })

	srv := httptest.NewServer(b.router())
	t.Cleanup(srv.Close)

	ctx := context.Background()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.APIBaseURL = srv.URL + "/api"
	cfg.DataDir = t.TempDir()

	repo, closeStore, err := openStore(ctx, cfg, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeStore() })

	api, err := client.NewHTTPClient(cfg.BaseURL())
	require.NoError(t, err)

	ta := &testApp{repo: repo, rec: &notify.Recorder{}, out: &bytes.Buffer{}}
	ta.lines = captureOutput(t)
	ta.app = newApp(cfg, deps{
		api:      api,
		repo:     repo,
		notifier: ta.rec,
		printer:  output.NewPrinter(ta.out, output.FormatTable),
		reader:   bufio.NewReader(strings.NewReader(strings.Join(script, "\n") + "\n")),
		out:      &bytes.Buffer{},
		log:      logging.Nop(),
	})
	return ta
}

func (ta *testApp) printed() string {
	return strings.Join(*ta.lines, "\n")
}

func (ta *testApp) titles() []string {
	var out []string
	for _, n := range ta.rec.All() {
		out = append(out, n.Title)
	}
	return out
}

func TestApp_LoginBrowseLogout(t *testing.T) {
	b := &backend{}
	ta := newTestApp(t, b,
		"login",
		"ana@example.com",
		"secret",
		"trees status=plantado",
		"stats",
		"orders",
		"logout",
		"trees",
		"exit",
	)

	ta.app.Run(context.Background())

	out := ta.printed()
	assert.Contains(t, out, "Redirigiendo a /usuario/1/feed")
	assert.Contains(t, out, "El comando orders no está disponible para el rol user")
	assert.Contains(t, out, "Sesión cerrada")
	assert.Contains(t, out, "Inicia sesión primero (login)")

	table := ta.out.String()
	assert.Contains(t, table, "Ceibo")
	assert.Contains(t, table, "Jacarandá")

	b.mu.Lock()
	assert.Equal(t, []string{"status=plantado", ""}, b.treeQuery)
	assert.Equal(t, 1, b.logouts)
	b.mu.Unlock()

	tok, err := ta.repo.Get(context.Background(), common.StorageKeyToken)
	require.NoError(t, err)
	assert.Nil(t, tok)

	assert.Contains(t, ta.titles(), "Sesión iniciada")
	assert.False(t, ta.app.isLoggedIn())
	assert.Empty(t, ta.app.trees.Trees())
}

func TestApp_ExpiredSessionDropsCachedTrees(t *testing.T) {
	ta := newTestApp(t, &backend{},
		"login", "ana@example.com", "secret",
		"trees",
		"show 10",
		"exit",
	)
	ta.app.Run(context.Background())

	// no refresh endpoint: the 401 on show ends the session
	assert.False(t, ta.app.isLoggedIn())
	assert.Contains(t, ta.titles(), "Sesión expirada")
	assert.Contains(t, ta.titles(), "Árbol no encontrado")
	assert.Empty(t, ta.app.trees.Trees())
	assert.Equal(t, models.TreeStats{}, ta.app.trees.Stats())
}

func TestApp_LoginPersistsAndRestores(t *testing.T) {
	b := &backend{}
	ta := newTestApp(t, b, "login", "ana@example.com", "secret", "exit")
	ta.app.Run(context.Background())

	ctx := context.Background()
	tok, err := ta.repo.Get(ctx, common.StorageKeyToken)
	require.NoError(t, err)
	assert.Equal(t, []byte("a1"), tok)
	ref, err := ta.repo.Get(ctx, common.StorageKeyRefreshToken)
	require.NoError(t, err)
	assert.Equal(t, []byte("r1"), ref)

	// a second app over the same store starts authenticated
	api, err := client.NewHTTPClient(ta.app.config.BaseURL())
	require.NoError(t, err)
	next := newApp(ta.app.config, deps{
		api:      api,
		repo:     ta.repo,
		notifier: &notify.Recorder{},
		printer:  output.NewPrinter(&bytes.Buffer{}, output.FormatTable),
		reader:   bufio.NewReader(strings.NewReader("home\nexit\n")),
		out:      &bytes.Buffer{},
		log:      logging.Nop(),
	})
	next.Run(ctx)

	assert.True(t, next.isLoggedIn())
	assert.Equal(t, models.RoleUser, next.activeRole())
	assert.Contains(t, ta.printed(), "Sesión restaurada: (ana user)")
	assert.Contains(t, ta.printed(), "/usuario/1/feed")
	assert.Equal(t, "a1", api.Tokens().Access)
}

func TestApp_WrongPasswordStaysAnonymous(t *testing.T) {
	ta := newTestApp(t, &backend{}, "login", "ana@example.com", "nope", "exit")
	ta.app.Run(context.Background())

	assert.False(t, ta.app.isLoggedIn())
	n, ok := ta.rec.Last()
	require.True(t, ok)
	assert.Equal(t, notify.LevelError, n.Level)
	assert.Equal(t, "Credenciales inválidas", n.Description)
}

func TestApp_LoginWithWrongRole(t *testing.T) {
	ta := newTestApp(t, &backend{}, "login plantador", "ana@example.com", "secret", "exit")
	ta.app.Run(context.Background())

	assert.False(t, ta.app.isLoggedIn())
	assert.Contains(t, ta.titles(), "Rol incorrecto")
}

func TestApp_PlantPromptsAndCreates(t *testing.T) {
	b := &backend{}
	ta := newTestApp(t, b,
		"login", "ana@example.com", "secret",
		"plant", "Ceibo", "AR", "-34,6", "abc", "-58.4", "",
		"exit",
	)
	ta.app.Run(context.Background())

	b.mu.Lock()
	defer b.mu.Unlock()
	require.Len(t, b.planted, 1)
	assert.Equal(t, "Ceibo", b.planted[0].Name)
	assert.InDelta(t, -34.6, b.planted[0].Latitude, 1e-9)
	assert.InDelta(t, -58.4, b.planted[0].Longitude, 1e-9)
	assert.Contains(t, ta.printed(), "Árbol 12 creado")
}

func TestApp_FeatureFailureIsNotified(t *testing.T) {
	ta := newTestApp(t, &backend{}, "login", "ana@example.com", "secret", "catalog", "projects", "exit")
	ta.app.Run(context.Background())

	var failure notify.Notification
	for _, n := range ta.rec.All() {
		if n.Level == notify.LevelError {
			failure = n
		}
	}
	assert.Equal(t, "Error al cargar el catálogo", failure.Title)
	assert.Equal(t, "Catálogo en mantenimiento", failure.Description)
	assert.Contains(t, ta.out.String(), "Bosque Norte")
}

func TestApp_UsageErrors(t *testing.T) {
	ta := newTestApp(t, &backend{}, "login", "ana@example.com", "secret", "show", "status 10 talado", "trees bogus", "exit")
	ta.app.Run(context.Background())

	out := ta.printed()
	assert.Contains(t, out, "Uso: show <id>")
	assert.Contains(t, out, "Estado inválido: talado")
	assert.Contains(t, out, `filter "bogus" must be name=value`)
}

func TestApp_AdminCommands(t *testing.T) {
	b := &backend{}
	ta := newTestApp(t, b, "exit")

	// promote the session by hand; the backend has no admin user
	admin := testUser
	admin.Role = models.RoleAdmin
	raw, err := json.Marshal(admin)
	require.NoError(t, err)
	require.NoError(t, ta.repo.SetMany(context.Background(), map[string][]byte{
		common.StorageKeyToken: []byte("a1"),
		common.StorageKeyUser:  raw,
	}))
	ta.app.reader = bufio.NewReader(strings.NewReader("reject 7 contenido ofensivo\nexit\n"))
	ta.app.Run(context.Background())

	b.mu.Lock()
	defer b.mu.Unlock()
	assert.Equal(t, "contenido ofensivo", b.rejected["7"])
	assert.Contains(t, ta.titles(), "Contenido rechazado")
}

func TestSplitForce(t *testing.T) {
	rest, force := splitForce([]string{"status=plantado", "--force", "country=AR"})
	assert.True(t, force)
	assert.Equal(t, []string{"status=plantado", "country=AR"}, rest)

	rest, force = splitForce(nil)
	assert.False(t, force)
	assert.Empty(t, rest)
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "hola", firstLine("hola"))
	assert.Equal(t, "hola …", firstLine("hola\nmundo"))
}
