package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iudanet/folio/internal/client/auth"
	"github.com/iudanet/folio/internal/client/storage"
	"github.com/iudanet/folio/internal/models"
	pkgapi "github.com/iudanet/folio/pkg/api"
)

// mockIO отдает заранее заданные ответы и копит вывод
type mockIO struct {
	inputs    []string
	passwords []string
	out       strings.Builder
}

func (m *mockIO) Println(a ...any) {
	m.out.WriteString(fmt.Sprintln(a...))
}

func (m *mockIO) Printf(format string, a ...any) {
	m.out.WriteString(fmt.Sprintf(format, a...))
}

func (m *mockIO) Write(p []byte) (int, error) {
	return m.out.Write(p)
}

func (m *mockIO) ReadInput(string) (string, error) {
	if len(m.inputs) == 0 {
		return "", errors.New("no more input")
	}
	v := m.inputs[0]
	m.inputs = m.inputs[1:]
	return v, nil
}

func (m *mockIO) ReadPassword(string) (string, error) {
	if len(m.passwords) == 0 {
		return "", errors.New("no more passwords")
	}
	v := m.passwords[0]
	m.passwords = m.passwords[1:]
	return v, nil
}

// mockAuth hand-written auth.Service
type mockAuth struct {
	session  *storage.AuthData
	user     *models.User
	settings *models.Settings
	err      error

	registered   pkgapi.RegisterRequest
	loginEmail   string
	loginPass    string
	passwords    [2]string
	patch        models.SettingsPatch
	logoutCalled bool
}

func (m *mockAuth) Register(_ context.Context, req pkgapi.RegisterRequest) (*models.User, error) {
	m.registered = req
	if m.err != nil {
		return nil, m.err
	}
	return &models.User{ID: "user-1", Username: req.Username, Role: models.RoleUser}, nil
}

func (m *mockAuth) Login(_ context.Context, email, password string) (*storage.AuthData, error) {
	m.loginEmail, m.loginPass = email, password
	if m.err != nil {
		return nil, m.err
	}
	return m.session, nil
}

func (m *mockAuth) Logout(context.Context) error {
	m.logoutCalled = true
	return m.err
}

func (m *mockAuth) Session(context.Context) (*storage.AuthData, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.session, nil
}

func (m *mockAuth) Refresh(context.Context) (*storage.AuthData, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.session, nil
}

func (m *mockAuth) Me(context.Context) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.user, nil
}

func (m *mockAuth) ChangePassword(_ context.Context, current, next string) error {
	m.passwords = [2]string{current, next}
	return m.err
}

func (m *mockAuth) GetSettings(context.Context) (*models.Settings, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.settings, nil
}

func (m *mockAuth) UpdateSettings(_ context.Context, patch models.SettingsPatch) (*models.Settings, error) {
	m.patch = patch
	if m.err != nil {
		return nil, m.err
	}
	st := models.DefaultSettings()
	patch.Apply(&st)
	return &st, nil
}

var _ auth.Service = (*mockAuth)(nil)
