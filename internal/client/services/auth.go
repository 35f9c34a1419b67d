// Package services holds the two stateful managers of the client: the
// session (who is logged in, under which role) and the tree cache.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/miarbol/internal/client/client"
	"github.com/dmitrijs2005/miarbol/internal/client/models"
	"github.com/dmitrijs2005/miarbol/internal/client/notify"
	"github.com/dmitrijs2005/miarbol/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/miarbol/internal/common"
	"github.com/dmitrijs2005/miarbol/internal/logging"
)

// AuthService owns the session.
//
// Contract:
//   - Restore: rehydrate the session from local storage at startup.
//   - Login/Register: authenticate, persist token, refresh token and user.
//   - Logout: always ends the local session, whatever the backend says.
//   - SwitchRole/AddRole/RefreshProfile/UpdateProfile: change or re-read
//     the current account and persist the result.
//
// Write operations notify the user on failure and return the error.
type AuthService interface {
	Restore(ctx context.Context) (bool, error)
	Login(ctx context.Context, email, password string, expected models.Role) (*AuthResult, error)
	Register(ctx context.Context, in models.RegisterInput) (*AuthResult, error)
	Logout(ctx context.Context)
	SwitchRole(ctx context.Context, role models.Role) (*AuthResult, error)
	AddRole(ctx context.Context, role models.Role) (*models.User, error)
	RefreshProfile(ctx context.Context) (*models.User, error)
	UpdateProfile(ctx context.Context, in models.ProfileUpdate) (*models.User, error)

	// Current returns a copy of the session; false when anonymous.
	Current() (models.Session, bool)
	Authenticated() bool
	// TokenExpiry is the exp claim of the current access token.
	TokenExpiry() (time.Time, bool)

	// OnSessionChange registers fn to run whenever the session ends or
	// starts for a different user or role, including an expired session
	// dropped by the API client.
	OnSessionChange(fn func())
}

// AuthBackend is what the session manager needs from the API.
type AuthBackend interface {
	client.AuthAPI
	UpdateUser(ctx context.Context, id models.ID, in models.ProfileUpdate) (*models.User, error)
}

// AuthResult is the outcome of an operation that lands the user somewhere.
type AuthResult struct {
	User       *models.User
	RedirectTo string
}

type authService struct {
	api      AuthBackend
	repo     metadata.Repository
	notifier notify.Notifier
	log      logging.Logger

	mu       sync.RWMutex
	session  *models.Session
	onChange []func()
}

var sessionKeys = []string{common.StorageKeyToken, common.StorageKeyRefreshToken, common.StorageKeyUser}

// NewAuthService builds the session manager and registers it as the API's
// session listener, so refreshed tokens are persisted and an expired
// session is dropped.
func NewAuthService(api AuthBackend, repo metadata.Repository, n notify.Notifier, log logging.Logger) AuthService {
	if n == nil {
		n = notify.Discard
	}
	if log == nil {
		log = logging.Nop()
	}
	s := &authService{api: api, repo: repo, notifier: n, log: log}
	api.SetSessionListener(s)
	return s
}

// Restore starts Authenticated iff a stored user and a stored token exist.
func (s *authService) Restore(ctx context.Context) (bool, error) {

	token, err := s.repo.Get(ctx, common.StorageKeyToken)
	if err != nil {
		return false, fmt.Errorf("%w: read token: %w", client.ErrLocalDataNotAvailable, err)
	}
	rawUser, err := s.repo.Get(ctx, common.StorageKeyUser)
	if err != nil {
		return false, fmt.Errorf("%w: read user: %w", client.ErrLocalDataNotAvailable, err)
	}
	if len(token) == 0 || len(rawUser) == 0 {
		return false, nil
	}

	refresh, err := s.repo.Get(ctx, common.StorageKeyRefreshToken)
	if err != nil {
		return false, fmt.Errorf("%w: read refresh token: %w", client.ErrLocalDataNotAvailable, err)
	}

	var u models.User
	if err := json.Unmarshal(rawUser, &u); err != nil {
		s.log.Warn(ctx, "stored user is unreadable, discarding session", "error", err)
		s.forget(ctx)
		return false, nil
	}

	t := client.Tokens{Access: string(token), Refresh: string(refresh)}
	s.api.SetTokens(t)
	s.setSession(&u, t)

	s.log.Debug(ctx, "session restored", "user_id", u.ID, "role", u.Role)
	return true, nil
}

func (s *authService) Login(ctx context.Context, email, password string, expected models.Role) (*AuthResult, error) {

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, &ValidationError{Message: "el email y la contraseña son obligatorios"}
	}

	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		return nil, s.authFailure(ctx, "Error al iniciar sesión", "Credenciales inválidas", err)
	}

	u := resp.User
	if u == nil {
		return nil, s.authFailure(ctx, "Error al iniciar sesión", "Credenciales inválidas", errMissingUser)
	}
	if expected != "" && !u.Role.Is(expected) {
		s.Logout(ctx)
		mismatch := &RoleMismatchError{Expected: expected, Actual: u.Role}
		s.notifier.Notify(ctx, notify.Notification{Level: notify.LevelError, Title: "Rol incorrecto", Description: mismatch.Error()})
		return nil, mismatch
	}

	s.establish(ctx, u)
	s.notifier.Notify(ctx, notify.Notification{Level: notify.LevelSuccess, Title: "Sesión iniciada", Description: "Bienvenido, " + displayName(u)})
	return &AuthResult{User: u.Clone(), RedirectTo: GetRedirectPath(u.Role, u.ID)}, nil
}

func (s *authService) Register(ctx context.Context, in models.RegisterInput) (*AuthResult, error) {

	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	switch {
	case in.Email == "":
		return nil, &ValidationError{Field: "email", Message: "es obligatorio"}
	case in.Password == "":
		return nil, &ValidationError{Field: "password", Message: "es obligatoria"}
	case in.Role != "" && !in.Role.Valid():
		return nil, &ValidationError{Field: "role", Message: models.ErrUnknownRole.Error()}
	}

	resp, err := s.api.Register(ctx, in)
	if err != nil {
		return nil, s.authFailure(ctx, "Error al registrarse", common.DefaultErrorMessage, err)
	}
	if resp.User == nil {
		return nil, s.authFailure(ctx, "Error al registrarse", common.DefaultErrorMessage, errMissingUser)
	}

	s.establish(ctx, resp.User)
	s.notifier.Notify(ctx, notify.Notification{Level: notify.LevelSuccess, Title: "Cuenta creada", Description: "Bienvenido, " + displayName(resp.User)})
	return &AuthResult{User: resp.User.Clone(), RedirectTo: GetRedirectPath(resp.User.Role, resp.User.ID)}, nil
}

// Logout never fails: the local session is cleared even when the backend
// call does not succeed, which is only reported as a warning.
func (s *authService) Logout(ctx context.Context) {

	err := s.api.Logout(ctx)
	s.forget(ctx)

	if err != nil {
		s.log.Warn(ctx, "remote logout failed", "error", err)
		s.notifier.Notify(ctx, notify.Notification{
			Level:       notify.LevelWarning,
			Title:       "Sesión cerrada localmente",
			Description: client.Describe(err, common.DefaultErrorMessage),
		})
	}
}

func (s *authService) SwitchRole(ctx context.Context, role models.Role) (*AuthResult, error) {

	if !s.Authenticated() {
		return nil, ErrNotAuthenticated
	}

	resp, err := s.api.SwitchRole(ctx, role)
	if err != nil {
		return nil, s.authFailure(ctx, "Error al cambiar de rol", common.DefaultErrorMessage, err)
	}

	u := resp.User
	if u == nil {
		if u, err = s.api.Me(ctx); err != nil {
			return nil, s.authFailure(ctx, "Error al cambiar de rol", common.DefaultErrorMessage, err)
		}
	}

	s.establish(ctx, u)
	return &AuthResult{User: u.Clone(), RedirectTo: GetRedirectPath(u.Role, u.ID)}, nil
}

// AddRole re-reads the account after adding so the role list comes from
// the backend rather than a local patch.
func (s *authService) AddRole(ctx context.Context, role models.Role) (*models.User, error) {

	if !s.Authenticated() {
		return nil, ErrNotAuthenticated
	}

	if err := s.api.AddRole(ctx, role); err != nil {
		return nil, s.authFailure(ctx, "Error al agregar rol", common.DefaultErrorMessage, err)
	}

	u, err := s.RefreshProfile(ctx)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, notify.Notification{Level: notify.LevelSuccess, Title: "Rol agregado", Description: string(role)})
	return u, nil
}

func (s *authService) RefreshProfile(ctx context.Context) (*models.User, error) {

	if !s.Authenticated() {
		return nil, ErrNotAuthenticated
	}

	u, err := s.api.Me(ctx)
	if err != nil {
		return nil, s.authFailure(ctx, "Error al cargar el perfil", common.DefaultErrorMessage, err)
	}

	s.establish(ctx, u)
	return u.Clone(), nil
}

func (s *authService) UpdateProfile(ctx context.Context, in models.ProfileUpdate) (*models.User, error) {

	cur, ok := s.Current()
	if !ok {
		return nil, ErrNotAuthenticated
	}
	if in.Email != nil && strings.TrimSpace(*in.Email) == "" {
		return nil, &ValidationError{Field: "email", Message: "no puede estar vacío"}
	}

	if _, err := s.api.UpdateUser(ctx, cur.User.ID, in); err != nil {
		return nil, s.authFailure(ctx, "Error al actualizar el perfil", common.DefaultErrorMessage, err)
	}

	u, err := s.RefreshProfile(ctx)
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, notify.Notification{Level: notify.LevelSuccess, Title: "Perfil actualizado"})
	return u, nil
}

func (s *authService) Current() (models.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return models.Session{}, false
	}
	c := *s.session
	c.User = *s.session.User.Clone()
	return c, true
}

func (s *authService) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session != nil
}

func (s *authService) TokenExpiry() (time.Time, bool) {
	cur, ok := s.Current()
	if !ok {
		return time.Time{}, false
	}
	return TokenExpiry(cur.AccessToken)
}

// TokensRefreshed persists a pair the HTTP client obtained on its own.
func (s *authService) TokensRefreshed(ctx context.Context, t client.Tokens) {

	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return
	}
	s.session.AccessToken = t.Access
	s.session.RefreshToken = t.Refresh
	u := *s.session.User.Clone()
	s.mu.Unlock()

	if err := s.persist(ctx, t, &u); err != nil {
		s.log.Error(ctx, "persist refreshed tokens", "error", err)
	}
}

// SessionExpired drops the session after an unrecoverable 401.
func (s *authService) SessionExpired(ctx context.Context) {
	if !s.Authenticated() {
		return
	}
	s.forget(ctx)
	s.notifier.Notify(ctx, notify.Notification{
		Level:       notify.LevelWarning,
		Title:       "Sesión expirada",
		Description: "Vuelve a iniciar sesión",
	})
}

// establish makes u the current user under the tokens the API now holds.
func (s *authService) establish(ctx context.Context, u *models.User) {
	t := s.api.Tokens()
	s.setSession(u, t)
	if err := s.persist(ctx, t, u); err != nil {
		s.log.Error(ctx, "persist session", "error", err)
		s.notifier.Notify(ctx, notify.Notification{
			Level:       notify.LevelWarning,
			Title:       "No se pudo guardar la sesión",
			Description: "La sesión se perderá al salir",
		})
	}
}

func (s *authService) setSession(u *models.User, t client.Tokens) {
	s.mu.Lock()
	prev := s.session
	s.session = &models.Session{User: *u.Clone(), AccessToken: t.Access, RefreshToken: t.Refresh}
	s.mu.Unlock()

	if prev == nil || prev.User.ID != u.ID || prev.User.Role != u.Role {
		s.sessionChanged()
	}
}

func (s *authService) OnSessionChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

func (s *authService) sessionChanged() {
	s.mu.RLock()
	hooks := slices.Clone(s.onChange)
	s.mu.RUnlock()
	for _, fn := range hooks {
		fn()
	}
}

// persist writes token, refresh token and user in one atomic step.
func (s *authService) persist(ctx context.Context, t client.Tokens, u *models.User) error {

	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	values := map[string][]byte{
		common.StorageKeyToken: []byte(t.Access),
		common.StorageKeyUser:  raw,
	}
	if t.Refresh != "" {
		values[common.StorageKeyRefreshToken] = []byte(t.Refresh)
	}

	if err := s.repo.SetMany(ctx, values); err != nil {
		return err
	}
	if t.Refresh == "" {
		return s.repo.Delete(ctx, common.StorageKeyRefreshToken)
	}
	return nil
}

// forget ends the session locally and removes all persisted session keys.
func (s *authService) forget(ctx context.Context) {
	s.mu.Lock()
	had := s.session != nil
	s.session = nil
	s.mu.Unlock()

	if err := s.repo.Delete(ctx, sessionKeys...); err != nil {
		s.log.Error(ctx, "remove persisted session", "error", err)
	}
	if had {
		s.sessionChanged()
	}
}

func (s *authService) authFailure(ctx context.Context, title, fallback string, err error) error {
	msg := client.Describe(err, fallback)
	s.log.Debug(ctx, title, "error", err)
	s.notifier.Notify(ctx, notify.Notification{Level: notify.LevelError, Title: title, Description: msg})
	return &AuthError{Message: msg, Err: err}
}

func displayName(u *models.User) string {
	switch {
	case u.Name != "":
		return u.Name
	case u.Username != "":
		return u.Username
	default:
		return u.Email
	}
}
