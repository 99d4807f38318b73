package opencv

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/faceguard/internal/vision"
)

// Stack is the set of OpenCV components one process needs.
type Stack struct {
	Opener     vision.CameraOpener
	Liveness   *Analyzer
	Faces      *Analyzer
	Recognizer *LBPH
}

// NewStack loads the cascade twice, once per detection profile. Frames from
// device are mirrored so the preview behaves like a mirror.
func NewStack(device int, cascadePath, modelsDir string) (*Stack, error) {
	live, err := NewAnalyzer(cascadePath, LivenessParams)
	if err != nil {
		return nil, fmt.Errorf("liveness analyzer: %w", err)
	}
	faces, err := NewAnalyzer(cascadePath, RecognitionParams)
	if err != nil {
		_ = live.Close()
		return nil, fmt.Errorf("face analyzer: %w", err)
	}
	return &Stack{
		Opener:     Opener(device, true),
		Liveness:   live,
		Faces:      faces,
		Recognizer: NewLBPH(modelsDir),
	}, nil
}

func (s *Stack) Close() error {
	return errors.Join(s.Liveness.Close(), s.Faces.Close())
}
