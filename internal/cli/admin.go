package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/faceguard/internal/common"
)

const adminUsage = `Admin commands:
  admin login              authenticate against faceguardd
  admin users              list users
  admin delete <user>      delete a user and retrain
  admin reset-pin <user>   set a new PIN
  admin status             show the login lockout
  admin unlock             clear the login lockout
  admin sessions           list active sessions
  admin revoke <token>     revoke a session
  admin logout             forget the admin token`

var errNoRemote = errors.New("Admin panel unavailable: faceguardd address not configured.")

// Admin runs an admin panel command against faceguardd.
func (a *App) Admin(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "help" {
		a.printf("%s\n", adminUsage)
		return nil
	}
	if a.remote == nil {
		return errNoRemote
	}

	sub, rest := args[0], args[1:]
	if sub != "login" && !a.remote.LoggedIn() {
		return errors.New("Run 'admin login' first.")
	}

	switch sub {
	case "login":
		pw, err := getSecret("Admin password: ", a.out)
		if err != nil {
			return err
		}
		defer common.WipeByteArray(pw)
		if err := a.remote.Login(ctx, string(pw)); err != nil {
			return err
		}
		a.printf("Admin session started.\n")

	case "logout":
		a.remote.Logout()
		a.printf("Admin session closed.\n")

	case "users":
		users, err := a.remote.ListUsers(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "USERNAME\tFULL NAME\tREGISTERED\tPIN\tLOCKED")
		for _, u := range users {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", u.Username, u.FullName, u.RegisteredAt, yesNo(u.PINSet), yesNo(u.Locked))
		}
		return w.Flush()

	case "delete":
		if len(rest) != 1 {
			return errors.New("Usage: admin delete <user>")
		}
		confirm, err := getSimpleText(a.reader, fmt.Sprintf("Delete user '%s'? This cannot be undone. (yes/no)", rest[0]), a.out)
		if err != nil {
			return err
		}
		if confirm != "yes" {
			a.printf("Cancelled.\n")
			return nil
		}
		revoked, retrainErr, err := a.remote.DeleteUser(ctx, rest[0])
		if err != nil {
			return err
		}
		a.printf("User '%s' deleted (%d session(s) revoked).\n", rest[0], revoked)
		if retrainErr != "" {
			a.printf("Warning: model not retrained: %s\n", retrainErr)
		}

	case "reset-pin":
		if len(rest) != 1 {
			return errors.New("Usage: admin reset-pin <user>")
		}
		pin, err := getSecret(fmt.Sprintf("New PIN for '%s': ", rest[0]), a.out)
		if err != nil {
			return err
		}
		defer common.WipeByteArray(pin)
		if err := a.remote.ResetPIN(ctx, rest[0], string(pin)); err != nil {
			return err
		}
		a.printf("PIN updated for '%s'.\n", rest[0])

	case "status":
		locked, secs, err := a.remote.LockoutStatus(ctx)
		if err != nil {
			return err
		}
		if locked {
			a.printf("Login is locked for another %d second(s).\n", secs)
		} else {
			a.printf("Login is not locked.\n")
		}

	case "unlock":
		if err := a.remote.Unlock(ctx); err != nil {
			return err
		}
		a.printf("Lockout cleared.\n")

	case "sessions":
		sessions, err := a.remote.ListSessions(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tUSER\tCREATED\tEXPIRES\tTOKEN")
		for _, s := range sessions {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", s.ID, s.Username, s.CreatedAt, s.ExpiresAt, s.Token)
		}
		return w.Flush()

	case "revoke":
		if len(rest) != 1 {
			return errors.New("Usage: admin revoke <token>")
		}
		if err := a.remote.RevokeSession(ctx, rest[0]); err != nil {
			return err
		}
		a.printf("Session revoked.\n")

	default:
		a.printf("%s\n", adminUsage)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
