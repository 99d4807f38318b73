package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/faceguard/internal/audit"
	"github.com/dmitrijs2005/faceguard/internal/common"
	"github.com/dmitrijs2005/faceguard/internal/liveness"
	"github.com/dmitrijs2005/faceguard/internal/services"
)

// getSimpleText and getSecret are indirections used to facilitate testing.
var (
	getSimpleText = GetSimpleText
	getSecret     = GetSecret
)

func (a *App) Register(ctx context.Context) error {
	fullName, err := getSimpleText(a.reader, "Full name", a.out)
	if err != nil {
		return err
	}
	username, err := getSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return err
	}
	pin, err := getSecret("PIN (4-8 digits, empty to skip): ", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pin)

	a.printf("Look at the camera. Capturing face samples...\n")
	res, err := a.enroll.Register(ctx, services.RegisterRequest{
		FullName: fullName,
		Username: username,
		PIN:      string(pin),
		Progress: func(captured, target int) {
			a.printf("\rCaptured %d/%d", captured, target)
		},
	})
	a.printf("\n")
	if err != nil {
		return userError(err)
	}
	a.printf("%s\n", res.Message)
	return nil
}

func (a *App) Train(ctx context.Context) error {
	a.printf("Training model...\n")
	res, err := a.enroll.Train(ctx)
	if err != nil {
		return userError(err)
	}
	a.printf("%s\n", res.Message)
	return nil
}

// pinPrompter asks for the PIN on the terminal; an empty entry cancels.
func (a *App) pinPrompter() services.PINPrompter {
	return services.PINPrompterFunc(func(_ context.Context, username string, left int) (string, bool, error) {
		b, err := getSecret(fmt.Sprintf("Face recognised as '%s'. Enter PIN (%d attempt(s) left): ", username, left), a.out)
		if err != nil {
			return "", false, err
		}
		defer common.WipeByteArray(b)
		if len(b) == 0 {
			return "", false, nil
		}
		return string(b), true, nil
	})
}

// progressPrinter reports liveness milestones rather than every frame.
func (a *App) progressPrinter() func(services.Progress) {
	var (
		stage  services.Stage
		blinks int
	)
	return func(p services.Progress) {
		if p.Stage != stage {
			stage = p.Stage
			switch stage {
			case services.StageLiveness:
				a.printf("Liveness check: please blink naturally...\n")
			case services.StageRecognition:
				a.printf("Recognising face...\n")
			}
		}
		if stage != services.StageLiveness {
			return
		}
		if p.Liveness.Blinks > blinks {
			blinks = p.Liveness.Blinks
			a.printf("Blink detected (%d)\n", blinks)
		}
		if p.Liveness.State == liveness.Passed {
			a.printf("Liveness confirmed.\n")
		}
	}
}

func (a *App) Login(ctx context.Context) error {
	if a.isLoggedIn() {
		a.printf("Already logged in as %s. Use 'logout' first.\n", a.userName)
		return nil
	}

	res, err := a.login.Login(ctx, services.LoginRequest{
		PIN:      a.pinPrompter(),
		Progress: a.progressPrinter(),
	})
	if err != nil {
		return userError(err)
	}

	a.printf("%s\n", res.Message)
	if res.Snapshot != "" {
		a.printf("Snapshot saved: %s\n", res.Snapshot)
	}
	if res.OK() {
		a.token = res.Token
		a.userName = res.Username
	}
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.printf("Not logged in.\n")
		return nil
	}
	if err := a.login.Logout(ctx, a.token); err != nil {
		return userError(err)
	}
	a.printf("Goodbye, %s.\n", a.userName)
	a.token, a.userName = "", ""
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.printf("Not logged in.\n")
		return nil
	}
	user, err := a.login.WhoAmI(ctx, a.token)
	if err != nil {
		if errors.Is(err, common.ErrorInvalidSession) {
			a.token, a.userName = "", ""
		}
		return userError(err)
	}
	a.printf("%s\n", user)
	return nil
}

func parseLimit(args []string) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		return 0, errors.New("Usage: logs|access [limit]")
	}
	return n, nil
}

func (a *App) Logs(ctx context.Context, args []string) error {
	limit, err := parseLimit(args)
	if err != nil {
		return err
	}
	entries, err := a.admin.AuditLog(ctx, limit)
	if err != nil {
		return userError(err)
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tEVENT\tBY\tUSER\tDETAILS")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.Timestamp.Format(common.TimestampLayout), audit.Describe(e.Action), e.PerformedBy, e.TargetUser,
			strings.ReplaceAll(e.Details, "\n", " "))
	}
	return w.Flush()
}

func (a *App) Access(ctx context.Context, args []string) error {
	limit, err := parseLimit(args)
	if err != nil {
		return err
	}
	entries, err := a.admin.AccessLog(ctx, limit)
	if err != nil {
		return userError(err)
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tUSER\tSTATUS\tCONFIDENCE")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1f%%\n",
			e.Timestamp.Format(common.TimestampLayout), e.Username, e.Status, e.Confidence)
	}
	return w.Flush()
}

func (a *App) Intruders(ctx context.Context) error {
	names, err := a.admin.Intruders(ctx)
	if err != nil {
		return userError(err)
	}
	if len(names) == 0 {
		a.printf("No intruder snapshots.\n")
		return nil
	}
	for _, n := range names {
		a.printf("%s\n", n)
	}
	return nil
}
