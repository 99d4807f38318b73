package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/dmitrijs2005/faceguard/internal/common"
	"github.com/dmitrijs2005/faceguard/internal/liveness"
	"github.com/dmitrijs2005/faceguard/internal/logging"
	"github.com/dmitrijs2005/faceguard/internal/models"
	"github.com/dmitrijs2005/faceguard/internal/pin"
	"github.com/dmitrijs2005/faceguard/internal/vision"
	"github.com/google/uuid"
)

// PINPrompter asks the matched user for their PIN. ok is false when the
// user cancels.
type PINPrompter interface {
	RequestPIN(ctx context.Context, username string, attemptsLeft int) (pin string, ok bool, err error)
}

type PINPrompterFunc func(ctx context.Context, username string, attemptsLeft int) (string, bool, error)

func (f PINPrompterFunc) RequestPIN(ctx context.Context, username string, attemptsLeft int) (string, bool, error) {
	return f(ctx, username, attemptsLeft)
}

type Stage string

const (
	StageLiveness    Stage = "liveness"
	StageRecognition Stage = "recognition"
	StagePIN         Stage = "pin"
)

// Progress is reported while a login runs.
type Progress struct {
	Stage Stage
	// Liveness is set during StageLiveness.
	Liveness liveness.Event
	// FramesLeft counts down during StageRecognition.
	FramesLeft int
}

type LoginRequest struct {
	PIN      PINPrompter
	Progress func(Progress)
}

type Outcome string

const (
	OutcomeSuccess        Outcome = "success"
	OutcomeLocked         Outcome = "locked"
	OutcomeLivenessFailed Outcome = "liveness_failed"
	OutcomeNotRecognized  Outcome = "not_recognized"
	OutcomeNoPIN          Outcome = "no_pin"
	OutcomeWrongPIN       Outcome = "wrong_pin"
)

// LoginResult is the decision for one attempt. Authentication failures are
// results, not errors.
type LoginResult struct {
	Outcome    Outcome
	Username   string
	Confidence float64
	Token      string
	Snapshot   string
	// AttemptsLeft is -1 when the lockout counter could not be updated.
	AttemptsLeft     int
	Locked           bool
	SecondsRemaining int
	Message          string
}

func (r *LoginResult) OK() bool { return r.Outcome == OutcomeSuccess }

// LoginService runs the login protocol: lockout gate, liveness, face match,
// PIN, session. Every failure after the gate feeds one shared lockout
// counter.
type LoginService struct {
	*Core
	vision   Vision
	liveness liveness.Config
}

func NewLoginService(core *Core, v Vision) *LoginService {
	cfg := core.cfg
	return &LoginService{
		Core:   core,
		vision: v,
		liveness: liveness.Config{
			RequiredBlinks: cfg.RequiredBlinks,
			MaxFrames:      cfg.LivenessMaxFrames,
			ConsecClosed:   cfg.ConsecClosed,
			ClosedRatio:    cfg.ClosedRatio,
			HistoryLen:     cfg.SmoothingWindow,
		},
	}
}

// Login performs one attempt. Errors are reserved for setup problems
// (untrained model, camera unavailable) and storage failures that prevent a
// decision; they wrap the sentinels in common.
func (s *LoginService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	ctx = logging.ContextWith(ctx, "attempt_id", uuid.NewString())
	// bookkeeping must land even if the caller gives up mid-attempt
	bk := context.WithoutCancel(ctx)

	st, err := s.guard.Check(ctx, s.cfg.LockoutIdentifier)
	if err != nil {
		return nil, err
	}
	if st.Locked {
		s.logger.Info(ctx, "login rejected, locked out", "seconds_remaining", st.SecondsRemaining)
		return &LoginResult{
			Outcome:          OutcomeLocked,
			Locked:           true,
			SecondsRemaining: st.SecondsRemaining,
			Message: fmt.Sprintf("Too many failed attempts.\nAccount locked. Try again in %d second(s).",
				st.SecondsRemaining),
		}, nil
	}

	matcher, err := s.vision.Recognizer.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	defer matcher.Close()

	cam, err := s.vision.OpenCamera(ctx)
	if err != nil {
		return nil, err
	}
	defer cam.Close()

	check := liveness.NewCheck(s.liveness, cam, s.vision.Liveness)
	defer check.Close()

	last, err := s.runLiveness(ctx, check, req.Progress)
	if err != nil {
		s.logger.Warn(ctx, "liveness aborted", "error", err)
	}
	if last.State != liveness.Passed {
		return s.livenessFailed(bk, check, last), nil
	}

	m, intruder := s.recognize(ctx, cam, matcher, req.Progress)
	if intruder != nil {
		defer intruder.Close()
	}
	if m == nil {
		return s.notRecognized(bk, intruder), nil
	}

	u, err := s.users().GetByUsername(bk, m.username)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil || !u.HasPIN() {
		return s.noPIN(bk, m), nil
	}

	emit(req.Progress, Progress{Stage: StagePIN})
	if !s.verifyPIN(ctx, req.PIN, u) {
		return s.wrongPIN(bk, m), nil
	}

	return s.succeed(bk, m)
}

func (s *LoginService) runLiveness(ctx context.Context, check *liveness.Check, progress func(Progress)) (liveness.Event, error) {
	var last liveness.Event
	for ev, err := range check.Events(ctx) {
		if err != nil {
			return last, err
		}
		last = ev
		emit(progress, Progress{Stage: StageLiveness, Liveness: ev})
	}
	return last, nil
}

type match struct {
	username string
	quality  float64
}

// quality maps a matcher distance to a 0..100 score.
func quality(distance float64) float64 {
	return math.Max(0, 100-distance)
}

// recognize scans up to RecognitionMaxFrames frames. The first face closer
// than ConfidenceThreshold wins. Otherwise the last frame showing an
// unmatched face is returned for the intruder snapshot; the caller closes it.
func (s *LoginService) recognize(ctx context.Context, cam vision.Camera, m vision.Matcher, progress func(Progress)) (*match, vision.Frame) {
	var intruder vision.Frame
	dropIntruder := func() {
		if intruder != nil {
			_ = intruder.Close()
			intruder = nil
		}
	}

	for n := 1; n <= s.cfg.RecognitionMaxFrames; n++ {
		f, err := cam.Read(ctx)
		if err != nil {
			if !errors.Is(err, vision.ErrEndOfStream) && ctx.Err() == nil {
				s.logger.Warn(ctx, "recognition read failed", "error", err)
			}
			break
		}

		faces, err := s.vision.Faces.DetectFaces(f)
		if err != nil {
			s.logger.Warn(ctx, "face detection failed", "error", err)
		}

		unmatched := false
		for _, face := range faces {
			p, err := m.Match(f, face)
			if err != nil {
				s.logger.Warn(ctx, "face match failed", "error", err)
				continue
			}
			if p.Label != "" && p.Distance < s.cfg.ConfidenceThreshold {
				_ = f.Close()
				dropIntruder()
				s.logger.Debug(ctx, "face matched", "user", p.Label, "distance", p.Distance, "frame", n)
				return &match{username: p.Label, quality: quality(p.Distance)}, nil
			}
			unmatched = true
		}

		if unmatched {
			dropIntruder()
			intruder = f
		} else {
			_ = f.Close()
		}
		emit(progress, Progress{Stage: StageRecognition, FramesLeft: s.cfg.RecognitionMaxFrames - n})
	}
	return nil, intruder
}

func (s *LoginService) verifyPIN(ctx context.Context, prompter PINPrompter, u *models.User) bool {
	if prompter == nil {
		return false
	}
	for left := s.cfg.PINTries; left > 0; left-- {
		p, ok, err := prompter.RequestPIN(ctx, u.Username, left)
		if err != nil {
			s.logger.Warn(ctx, "pin prompt failed", "error", err)
			return false
		}
		if !ok {
			return false
		}
		if pin.Verify(p, u.PINHash) {
			return true
		}
	}
	return false
}

func (s *LoginService) livenessFailed(ctx context.Context, check *liveness.Check, last liveness.Event) *LoginResult {
	res := &LoginResult{Outcome: OutcomeLivenessFailed, Username: common.UnknownUser}

	rec := s.recordFailure(ctx, common.UnknownUser)
	s.audit.Attempt(ctx, common.UnknownUser, models.AccessLivenessFail, 0)
	if jpeg, ok := check.LastFrameJPEG(); ok {
		res.Snapshot = s.saveSnapshot(ctx, jpeg)
	}
	s.audit.Record(ctx, models.ActionLivenessFail, common.ActorSystem, "",
		fmt.Sprintf("%s after %d frame(s), %d blink(s)", last.State, last.Frame, last.Blinks))

	s.applyLockout(res, rec, "Liveness check failed. Please blink naturally.")
	return res
}

func (s *LoginService) notRecognized(ctx context.Context, intruder vision.Frame) *LoginResult {
	res := &LoginResult{Outcome: OutcomeNotRecognized, Username: common.UnknownUser}

	if intruder != nil {
		if jpeg, err := intruder.EncodeJPEG(); err != nil {
			s.logger.Error(ctx, "encode intruder frame", "error", err)
		} else {
			res.Snapshot = s.saveSnapshot(ctx, jpeg)
		}
		s.audit.Attempt(ctx, common.UnknownUser, models.AccessIntruder, 0)
		s.audit.Record(ctx, models.ActionIntruder, common.ActorSystem, "", "Unrecognised face "+res.Snapshot)
	} else {
		s.audit.Attempt(ctx, common.UnknownUser, models.AccessFailed, 0)
		s.audit.Record(ctx, models.ActionLoginFail, common.ActorSystem, "", "No face recognised")
	}

	rec := s.recordFailure(ctx, common.UnknownUser)
	s.applyLockout(res, rec, "Face not recognised.")
	return res
}

func (s *LoginService) noPIN(ctx context.Context, m *match) *LoginResult {
	res := &LoginResult{Outcome: OutcomeNoPIN, Username: m.username, Confidence: m.quality}

	s.audit.Attempt(ctx, m.username, models.AccessNoPIN, m.quality)
	s.audit.Record(ctx, models.ActionLoginFail, m.username, m.username, "No PIN set")
	rec := s.recordFailure(ctx, m.username)

	s.applyLockout(res, rec, "")
	res.Message = fmt.Sprintf("No PIN set for '%s'. Please re-register.", m.username)
	return res
}

func (s *LoginService) wrongPIN(ctx context.Context, m *match) *LoginResult {
	res := &LoginResult{Outcome: OutcomeWrongPIN, Username: m.username, Confidence: m.quality}

	s.audit.Attempt(ctx, m.username, models.AccessWrongPIN, m.quality)
	s.audit.Record(ctx, models.ActionWrongPIN, m.username, m.username, "PIN verification failed")
	rec := s.recordFailure(ctx, m.username)

	s.applyLockout(res, rec, fmt.Sprintf("Wrong PIN for '%s'.", m.username))
	return res
}

func (s *LoginService) succeed(ctx context.Context, m *match) (*LoginResult, error) {
	if err := s.guard.Reset(ctx, s.cfg.LockoutIdentifier); err != nil {
		s.logger.Error(ctx, "lockout reset failed", "error", err)
	}
	s.audit.Attempt(ctx, m.username, models.AccessSuccess, m.quality)
	s.audit.Record(ctx, models.ActionLoginSuccess, m.username, m.username,
		fmt.Sprintf("Confidence %.1f%%", m.quality))

	token, err := s.sessions.Create(ctx, m.username)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	return &LoginResult{
		Outcome:      OutcomeSuccess,
		Username:     m.username,
		Confidence:   m.quality,
		Token:        token,
		AttemptsLeft: s.guard.Threshold(),
		Message:      fmt.Sprintf("Login Successful! Welcome, %s (%.1f%% confidence)", m.username, m.quality),
	}, nil
}

// recordFailure bumps the shared counter and writes LOCKOUT when this
// failure is the one that trips it. Storage errors are logged; nil is
// returned.
func (s *LoginService) recordFailure(ctx context.Context, username string) *models.Lockout {
	rec, err := s.guard.RecordFailure(ctx, s.cfg.LockoutIdentifier)
	if err != nil {
		s.logger.Error(ctx, "record failure", "error", err)
		return nil
	}
	if rec.FailCount == s.guard.Threshold() {
		s.audit.Record(ctx, models.ActionLockout, common.ActorSystem, username,
			fmt.Sprintf("Locked for %d seconds after %d failed attempts", s.lockoutSeconds(), rec.FailCount))
	}
	return rec
}

func (s *LoginService) applyLockout(res *LoginResult, rec *models.Lockout, msg string) {
	if rec == nil {
		res.AttemptsLeft = -1
		res.Message = msg
		return
	}
	res.AttemptsLeft = s.guard.AttemptsLeft(rec)
	if rec.FailCount >= s.guard.Threshold() {
		res.Locked = true
		res.SecondsRemaining = s.lockoutSeconds()
		res.Message = fmt.Sprintf("%s\nAccount locked for %d seconds.", msg, res.SecondsRemaining)
		return
	}
	res.Message = fmt.Sprintf("%s (%d attempt(s) left before lockout)", msg, res.AttemptsLeft)
}

func (s *LoginService) lockoutSeconds() int {
	return int(math.Ceil(s.cfg.LockoutDuration.Seconds()))
}

func (s *LoginService) saveSnapshot(ctx context.Context, jpeg []byte) string {
	if s.snapshots == nil {
		return ""
	}
	name, err := s.snapshots.Save(ctx, s.clock.Now(), jpeg)
	if err != nil {
		s.logger.Error(ctx, "save intruder snapshot", "error", err)
		return ""
	}
	s.logger.Warn(ctx, "intruder snapshot saved", "snapshot", name)
	return name
}

func emit(progress func(Progress), p Progress) {
	if progress != nil {
		progress(p)
	}
}

// WhoAmI returns the username behind a live session token.
func (s *LoginService) WhoAmI(ctx context.Context, token string) (string, error) {
	p, err := s.sessions.Validate(ctx, token)
	if err != nil {
		return "", err
	}
	return p.Username, nil
}

// Logout ends a session. Unknown or already closed tokens are accepted.
func (s *LoginService) Logout(ctx context.Context, token string) error {
	return s.sessions.Invalidate(ctx, token)
}
