package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/miarbol/internal/client/models"
	"github.com/dmitrijs2005/miarbol/internal/client/output"
	"github.com/dmitrijs2005/miarbol/internal/client/services"
	"github.com/dmitrijs2005/miarbol/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
)

// Register prompts for the account fields and creates the account. The
// new session starts right away.
func (a *App) Register(ctx context.Context, _ []string) error {
	email, err := getSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	username, err := getSimpleText(a.reader, "Nombre de usuario", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	roleText, err := GetOptionalText(a.reader, "Rol (user, empresa, plantador, vivero)", string(models.RoleUser), a.out)
	if err != nil {
		return err
	}
	role, err := models.ParseRole(roleText)
	if err != nil {
		printlnFn("Rol inválido:", roleText)
		return err
	}

	res, err := a.auth.Register(ctx, models.RegisterInput{Email: email, Username: username, Password: string(password), Role: role})
	if err != nil {
		return a.reportLocal(err)
	}
	printlnFn("Redirigiendo a", res.RedirectTo)
	return nil
}

// Login prompts for credentials. An optional role argument is the role the
// user expects to log in with, as on a role-specific login page.
func (a *App) Login(ctx context.Context, args []string) error {
	var expected models.Role
	if len(args) > 0 {
		r, err := models.ParseRole(args[0])
		if err != nil {
			printlnFn("Rol inválido:", args[0])
			return err
		}
		expected = r
	}

	email, err := getSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	res, err := a.auth.Login(ctx, email, string(password), expected)
	if err != nil {
		return a.reportLocal(err)
	}
	printlnFn("Redirigiendo a", res.RedirectTo)
	return nil
}

func (a *App) Logout(ctx context.Context, _ []string) error {
	a.auth.Logout(ctx)
	printlnFn("Sesión cerrada")
	return nil
}

func (a *App) WhoAmI(_ context.Context, _ []string) error {
	s, ok := a.auth.Current()
	if !ok {
		return services.ErrNotAuthenticated
	}

	roles := make([]string, 0, len(s.User.Roles))
	for _, r := range s.User.Roles {
		roles = append(roles, string(r.Role))
	}
	expires := "-"
	if exp, ok := a.auth.TokenExpiry(); ok {
		expires = exp.Local().Format(time.DateTime)
	}

	view := struct {
		User         models.User `json:"user" yaml:"user"`
		TokenExpires string      `json:"tokenExpires" yaml:"tokenExpires"`
	}{s.User, expires}

	return a.printer.Print(view, output.Table{
		Headers: []string{"ID", "EMAIL", "USUARIO", "ROL", "ROLES", "TOKEN EXPIRA"},
		Rows:    [][]string{{string(s.User.ID), s.User.Email, s.User.Username, string(s.User.Role), strings.Join(roles, ","), expires}},
	})
}

// Profile edits username, name and email; empty answers keep the value.
func (a *App) Profile(ctx context.Context, _ []string) error {
	s, ok := a.auth.Current()
	if !ok {
		return services.ErrNotAuthenticated
	}

	var upd models.ProfileUpdate
	for _, f := range []struct {
		prompt string
		cur    string
		dst    **string
	}{
		{"Nombre de usuario", s.User.Username, &upd.Username},
		{"Nombre", s.User.Name, &upd.Name},
		{"Email", s.User.Email, &upd.Email},
	} {
		v, err := GetOptionalText(a.reader, f.prompt, f.cur, a.out)
		if err != nil {
			return err
		}
		if v != f.cur {
			*f.dst = &v
		}
	}

	if upd == (models.ProfileUpdate{}) {
		printlnFn("Sin cambios")
		return nil
	}
	_, err := a.auth.UpdateProfile(ctx, upd)
	return a.reportLocal(err)
}

func (a *App) SwitchRole(ctx context.Context, args []string) error {
	role, err := a.roleArg("switchrole", args)
	if err != nil {
		return err
	}
	res, err := a.auth.SwitchRole(ctx, role)
	if err != nil {
		return a.reportLocal(err)
	}
	printlnFn("Redirigiendo a", res.RedirectTo)
	return nil
}

func (a *App) AddRole(ctx context.Context, args []string) error {
	role, err := a.roleArg("addrole", args)
	if err != nil {
		return err
	}
	_, err = a.auth.AddRole(ctx, role)
	return a.reportLocal(err)
}

func (a *App) Home(_ context.Context, _ []string) error {
	s, ok := a.auth.Current()
	if !ok {
		printlnFn("/")
		return nil
	}
	printlnFn(services.GetRedirectPath(s.User.Role, s.User.ID))
	return nil
}

func (a *App) roleArg(name string, args []string) (models.Role, error) {
	if len(args) != 1 {
		return "", a.usageError(name)
	}
	role, err := models.ParseRole(args[0])
	if err != nil {
		printlnFn("Rol inválido:", args[0])
		return "", err
	}
	return role, nil
}

// reportLocal prints errors that were caught before reaching the backend.
// Backend failures have already been notified by the services.
func (a *App) reportLocal(err error) error {
	if err == nil {
		return nil
	}
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		printlnFn("Datos inválidos:", ve.Error())
	case errors.Is(err, services.ErrNotAuthenticated):
		printlnFn("Inicia sesión primero (login)")
	}
	return err
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format(time.DateOnly)
}

func formatMoney(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
