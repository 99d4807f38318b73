package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/faceguard/internal/adminclient"
	"github.com/dmitrijs2005/faceguard/internal/services"
)

// Remote is the admin panel API of faceguardd.
type Remote interface {
	Login(ctx context.Context, password string) error
	LoggedIn() bool
	Logout()
	ListUsers(ctx context.Context) ([]adminclient.UserRow, error)
	DeleteUser(ctx context.Context, username string) (int64, string, error)
	ResetPIN(ctx context.Context, username, pin string) error
	Unlock(ctx context.Context) error
	LockoutStatus(ctx context.Context) (bool, int, error)
	ListSessions(ctx context.Context) ([]adminclient.SessionRow, error)
	RevokeSession(ctx context.Context, token string) error
}

type App struct {
	login  *services.LoginService
	enroll *services.EnrollmentService
	admin  *services.AdminService
	remote Remote

	reader *bufio.Reader
	out    io.Writer

	token    string
	userName string
}

// NewApp builds the console. remote may be nil, in which case admin
// commands are unavailable.
func NewApp(login *services.LoginService, enroll *services.EnrollmentService, admin *services.AdminService,
	remote Remote, in io.Reader, out io.Writer) *App {
	return &App{
		login:  login,
		enroll: enroll,
		admin:  admin,
		remote: remote,
		reader: bufio.NewReader(in),
		out:    out,
	}
}

func (a *App) isLoggedIn() bool {
	return a.token != ""
}

func (a *App) getStatus() string {
	if a.userName == "" {
		return ""
	}
	return fmt.Sprintf(" (%s)", a.userName)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// Run starts the REPL and blocks until the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	a.printf("Faceguard console (type 'help' for commands)\n")
	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))
	if a.isLoggedIn() {
		_ = a.Logout(context.WithoutCancel(ctx))
	}
}

// userError rewrites err into the operator-facing message.
func userError(err error) error {
	if err == nil {
		return nil
	}
	return errors.New(services.UserMessage(err))
}
