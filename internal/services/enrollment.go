package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/faceguard/internal/common"
	"github.com/dmitrijs2005/faceguard/internal/models"
	"github.com/dmitrijs2005/faceguard/internal/pin"
	"github.com/dmitrijs2005/faceguard/internal/vision"
)

var errNoSamples = fmt.Errorf("no face samples captured: %w", common.ErrorNoTrainingData)

// frame budget per requested sample; a user who never faces the camera
// must not hang enrolment forever
const framesPerSample = 20

type RegisterRequest struct {
	FullName string
	Username string
	PIN      string
	// Progress is called after each stored sample.
	Progress func(captured, target int)
}

type RegisterResult struct {
	Username string
	Samples  int
	PINSet   bool
	Message  string
}

type TrainResult struct {
	Users   int
	Samples int
	Message string
}

// EnrollmentService registers identities and retrains the recogniser.
type EnrollmentService struct {
	*Core
	vision Vision
}

func NewEnrollmentService(core *Core, v Vision) *EnrollmentService {
	return &EnrollmentService{Core: core, vision: v}
}

// NormalizeUsername trims and replaces inner spaces with underscores.
func NormalizeUsername(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), " ", "_")
}

// Register creates the user row and dataset, then captures face samples.
// Any failure before the first sample is stored leaves nothing behind.
func (s *EnrollmentService) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	fullName := strings.TrimSpace(req.FullName)
	username := NormalizeUsername(req.Username)
	if fullName == "" || username == "" {
		return nil, common.NewValidationError("Full name and username cannot be empty!")
	}

	var pinHash string
	if req.PIN != "" {
		if err := pin.Validate(req.PIN); err != nil {
			return nil, err
		}
		h, err := pin.Hash(req.PIN)
		if err != nil {
			return nil, err
		}
		pinHash = h
	}

	if err := s.datasets.Create(username); err != nil {
		return nil, err
	}
	u := &models.User{FullName: fullName, Username: username, RegisteredAt: s.clock.Now().UTC()}
	if _, err := s.users().Create(ctx, u); err != nil {
		s.rollback(ctx, username, false)
		return nil, err
	}

	n, err := s.capture(ctx, username, req.Progress)
	if err != nil || n == 0 {
		s.rollback(ctx, username, true)
		if err == nil {
			err = errNoSamples
		}
		return nil, err
	}

	bk := context.WithoutCancel(ctx)
	res := &RegisterResult{Username: username, Samples: n}
	if pinHash != "" {
		if err := s.users().SetPINHash(bk, username, pinHash); err != nil {
			return nil, fmt.Errorf("set pin: %w", err)
		}
		res.PINSet = true
		res.Message = fmt.Sprintf("User '%s' registered with %d images and PIN set!", username, n)
	} else {
		res.Message = fmt.Sprintf("User '%s' registered with %d images.\n"+
			"Warning: No PIN set. You will not be able to log in until a PIN is assigned.", username, n)
	}

	s.audit.Record(bk, models.ActionUserRegistered, common.ActorSystem, username,
		fmt.Sprintf("%d face samples, PIN set: %t", n, res.PINSet))
	s.logger.Info(ctx, "user registered", "user", username, "samples", n)
	return res, nil
}

// capture stores every EnrollStride-th frame that shows a face, until
// EnrollSamples are stored or the camera, context or frame budget runs out.
// Only setup failures are returned; a short capture is reported by count.
func (s *EnrollmentService) capture(ctx context.Context, username string, progress func(int, int)) (int, error) {
	cam, err := s.vision.OpenCamera(ctx)
	if err != nil {
		return 0, err
	}
	defer cam.Close()

	target := s.cfg.EnrollSamples
	stride := max(s.cfg.EnrollStride, 1)
	budget := target * stride * framesPerSample

	captured, seen := 0, 0
	for range budget {
		if captured >= target {
			break
		}
		f, err := cam.Read(ctx)
		if err != nil {
			if !errors.Is(err, vision.ErrEndOfStream) && ctx.Err() == nil {
				s.logger.Warn(ctx, "enrolment read failed", "error", err)
			}
			break
		}

		jpeg, ok := s.sample(ctx, f, &seen, stride)
		_ = f.Close()
		if !ok {
			continue
		}
		if err := s.datasets.Add(username, captured+1, jpeg); err != nil {
			return captured, err
		}
		captured++
		if progress != nil {
			progress(captured, target)
		}
	}
	return captured, nil
}

func (s *EnrollmentService) sample(ctx context.Context, f vision.Frame, seen *int, stride int) ([]byte, bool) {
	faces, err := s.vision.Faces.DetectFaces(f)
	if err != nil {
		s.logger.Warn(ctx, "face detection failed", "error", err)
		return nil, false
	}
	face, ok := vision.Largest(faces)
	if !ok {
		return nil, false
	}
	*seen++
	if (*seen-1)%stride != 0 {
		return nil, false
	}
	jpeg, err := s.vision.Faces.CropFace(f, face)
	if err != nil {
		s.logger.Warn(ctx, "face crop failed", "error", err)
		return nil, false
	}
	return jpeg, true
}

func (s *EnrollmentService) rollback(ctx context.Context, username string, userRow bool) {
	ctx = context.WithoutCancel(ctx)
	if userRow {
		if err := s.users().Delete(ctx, username); err != nil && !errors.Is(err, common.ErrorNotFound) {
			s.logger.Error(ctx, "rollback user row", "user", username, "error", err)
		}
	}
	if err := s.datasets.Remove(username); err != nil {
		s.logger.Error(ctx, "rollback dataset", "user", username, "error", err)
	}
}

// Train rebuilds the recogniser from every stored dataset.
func (s *EnrollmentService) Train(ctx context.Context) (*TrainResult, error) {
	samples, perUser, err := s.datasets.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.vision.Recognizer.Train(ctx, samples); err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}

	res := &TrainResult{Users: len(perUser), Samples: len(samples)}
	res.Message = fmt.Sprintf("Model trained successfully!\n%d user(s), %d face image(s) used.", res.Users, res.Samples)

	s.audit.Record(context.WithoutCancel(ctx), models.ActionModelTrained, common.ActorSystem, "",
		fmt.Sprintf("%d user(s), %d image(s)", res.Users, res.Samples))
	s.logger.Info(ctx, "model trained", "users", res.Users, "samples", res.Samples)
	return res, nil
}
