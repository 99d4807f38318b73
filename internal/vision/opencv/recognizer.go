package opencv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/dmitrijs2005/faceguard/internal/common"
	"github.com/dmitrijs2005/faceguard/internal/filex"
	"github.com/dmitrijs2005/faceguard/internal/vision"
	"gocv.io/x/gocv"
	"gocv.io/x/gocv/contrib"
)

const (
	ModelFile  = "face_model.yml"
	LabelsFile = "label_map.json"
)

// LBPH persists an LBPH model and its label map in a directory.
type LBPH struct {
	dir string
}

func NewLBPH(dir string) *LBPH {
	return &LBPH{dir: dir}
}

func (l *LBPH) modelPath() string  { return filepath.Join(l.dir, ModelFile) }
func (l *LBPH) labelsPath() string { return filepath.Join(l.dir, LabelsFile) }

func (l *LBPH) Train(ctx context.Context, samples []vision.Sample) error {
	if len(samples) == 0 {
		return common.ErrorNoTrainingData
	}

	ids := map[string]int{}
	var names []string
	for _, s := range samples {
		if _, ok := ids[s.Label]; !ok {
			ids[s.Label] = 0
			names = append(names, s.Label)
		}
	}
	slices.Sort(names)
	for i, n := range names {
		ids[n] = i
	}

	mats := make([]gocv.Mat, 0, len(samples))
	labels := make([]int, 0, len(samples))
	defer func() {
		for _, m := range mats {
			m.Close()
		}
	}()

	for _, s := range samples {
		if err := ctx.Err(); err != nil {
			return err
		}
		m, err := gocv.IMDecode(s.JPEG, gocv.IMReadGrayScale)
		if err != nil || m.Empty() {
			m.Close()
			continue
		}
		if m.Cols() != FaceSize.X || m.Rows() != FaceSize.Y {
			resized := gocv.NewMat()
			gocv.Resize(m, &resized, FaceSize, 0, 0, gocv.InterpolationLinear)
			m.Close()
			m = resized
		}
		mats = append(mats, m)
		labels = append(labels, ids[s.Label])
	}
	if len(mats) == 0 {
		return fmt.Errorf("decode samples: %w", common.ErrorNoTrainingData)
	}

	if _, err := filex.EnsureDir(l.dir); err != nil {
		return err
	}

	rec := contrib.NewLBPHFaceRecognizer()
	rec.Train(mats, labels)

	// OpenCV picks the storage format from the extension.
	tmp := filepath.Join(l.dir, ".tmp_"+ModelFile)
	rec.SaveFile(tmp)
	if err := os.Rename(tmp, l.modelPath()); err != nil {
		return fmt.Errorf("save model: %w", err)
	}

	data, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("marshal labels: %w", err)
	}
	if err := filex.WriteFileAtomic(l.labelsPath(), data, 0o640); err != nil {
		return fmt.Errorf("save labels: %w", err)
	}
	return nil
}

func (l *LBPH) Load(ctx context.Context) (vision.Matcher, error) {
	for _, p := range []string{l.modelPath(), l.labelsPath()} {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, common.ErrorModelNotTrained
			}
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
	}

	data, err := os.ReadFile(l.labelsPath())
	if err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("parse labels: %w", err)
	}

	rec := contrib.NewLBPHFaceRecognizer()
	rec.LoadFile(l.modelPath())

	return &lbphMatcher{rec: rec, names: names}, nil
}

type lbphMatcher struct {
	mu    sync.Mutex
	rec   *contrib.LBPHFaceRecognizer
	names []string
}

// Match predicts the closest enrolled identity. Labels missing from the map
// come back empty.
func (m *lbphMatcher) Match(f vision.Frame, face image.Rectangle) (vision.Prediction, error) {
	cf, err := asFrame(f)
	if err != nil {
		return vision.Prediction{}, err
	}

	sample, err := normalizedFace(cf, face)
	if err != nil {
		return vision.Prediction{}, err
	}
	defer sample.Close()

	m.mu.Lock()
	resp := m.rec.PredictExtendedResponse(sample)
	m.mu.Unlock()

	p := vision.Prediction{Distance: float64(resp.Confidence)}
	if i := int(resp.Label); i >= 0 && i < len(m.names) {
		p.Label = m.names[i]
	}
	return p, nil
}

func (m *lbphMatcher) Close() error { return nil }
