package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/faceguard/internal/clock"
	"github.com/dmitrijs2005/faceguard/internal/config"
	"github.com/dmitrijs2005/faceguard/internal/dbx"
	"github.com/dmitrijs2005/faceguard/internal/logging"
	"github.com/dmitrijs2005/faceguard/internal/repositories/repomanager"
	"github.com/dmitrijs2005/faceguard/internal/repositories/repotest"
	"github.com/dmitrijs2005/faceguard/internal/snapshots"
	"github.com/dmitrijs2005/faceguard/internal/vision"
	"github.com/dmitrijs2005/faceguard/internal/vision/visiontest"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	cfg        *config.Config
	clock      *clock.FakeClock
	core       *Core
	snaps      *snapshots.FSStore
	recognizer *visiontest.Recognizer
	opener     *visiontest.Opener

	enroll *EnrollmentService
	login  *LoginService
	admin  *AdminService
}

// newFixture wires the services over an in-memory database. Cameras are
// handed out in the order given.
func newFixture(t *testing.T, cameras ...*visiontest.Camera) *fixture {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DatasetsDir = filepath.Join(dir, "datasets")
	cfg.ModelsDir = filepath.Join(dir, "models")
	cfg.IntrudersDir = filepath.Join(dir, "intruders")
	cfg.EnrollSamples = 3
	cfg.EnrollStride = 1
	cfg.RecognitionMaxFrames = 10

	db := repotest.NewSQLiteDB(t)
	rm, err := repomanager.NewRepositoryManager(dbx.DialectSQLite)
	require.NoError(t, err)

	f := &fixture{
		cfg:        cfg,
		clock:      clock.Fake(t0),
		snaps:      snapshots.NewFSStore(cfg.IntrudersDir),
		recognizer: visiontest.NewRecognizer(),
		opener:     visiontest.NewOpener(cameras...),
	}
	f.core, err = NewCore(context.Background(), db, rm, cfg, logging.Nop(), f.clock, f.snaps)
	require.NoError(t, err)

	v := Vision{
		OpenCamera: f.opener.Open,
		Liveness:   visiontest.Analyzer{},
		Faces:      visiontest.Analyzer{},
		Recognizer: f.recognizer,
	}
	f.enroll = NewEnrollmentService(f.core, v)
	f.login = NewLoginService(f.core, v)
	f.admin = NewAdminService(f.core, f.enroll)
	return f
}

// liveFrames is two full blinks; liveness passes on the last frame.
func liveFrames() []*visiontest.Frame {
	cycle := []float64{0.5, 0.5, 0.5, 0.5, 0, 0, 0, 0, 0, 0.5, 0.5, 0.5, 0.5}
	ratios := append(append([]float64{}, cycle...), cycle...)
	return visiontest.EyeFrames(ratios[:24]...)
}

// loginCamera shows a live face that the matcher scores as p.
func loginCamera(p vision.Prediction, matchFrames int) *visiontest.Camera {
	return visiontest.NewCamera(liveFrames(), visiontest.MatchFrames(matchFrames, p))
}

func enrollCamera() *visiontest.Camera {
	return visiontest.NewCamera(visiontest.MatchFrames(3, vision.Prediction{}))
}

func pinAnswers(answers ...string) (PINPrompter, *[]int) {
	var asked []int
	return PINPrompterFunc(func(_ context.Context, _ string, left int) (string, bool, error) {
		asked = append(asked, left)
		if len(asked) > len(answers) {
			return "", false, nil
		}
		return answers[len(asked)-1], true, nil
	}), &asked
}

// register enrols username with pin and trains the model.
func (f *fixture) register(t *testing.T, username, pin string) {
	t.Helper()
	ctx := context.Background()
	_, err := f.enroll.Register(ctx, RegisterRequest{FullName: "Test " + username, Username: username, PIN: pin})
	require.NoError(t, err)
	_, err = f.enroll.Train(ctx)
	require.NoError(t, err)
}
