package opencv

import (
	"fmt"
	"image"

	"github.com/dmitrijs2005/faceguard/internal/vision"
	"gocv.io/x/gocv"
)

// FaceSize is the normalized size of training and matching samples.
var FaceSize = image.Pt(100, 100)

// DetectParams tune the Haar cascade.
type DetectParams struct {
	ScaleFactor  float64
	MinNeighbors int
	MinSize      image.Point
}

var (
	// LivenessParams favour a large, close face.
	LivenessParams = DetectParams{ScaleFactor: 1.2, MinNeighbors: 5, MinSize: image.Pt(80, 80)}
	// RecognitionParams are used for enrolment and matching.
	RecognitionParams = DetectParams{ScaleFactor: 1.3, MinNeighbors: 5}
)

const (
	claheClip        = 3.0
	thresholdBlock   = 11
	thresholdC       = 4
	minContourFactor = 0.02
)

var claheTiles = image.Pt(4, 4)

type Analyzer struct {
	cascade gocv.CascadeClassifier
	params  DetectParams
}

// NewAnalyzer loads the cascade file. Close releases it.
func NewAnalyzer(cascadePath string, p DetectParams) (*Analyzer, error) {
	cc := gocv.NewCascadeClassifier()
	if !cc.Load(cascadePath) {
		cc.Close()
		return nil, fmt.Errorf("load cascade %s", cascadePath)
	}
	return &Analyzer{cascade: cc, params: p}, nil
}

func (a *Analyzer) Close() error {
	return a.cascade.Close()
}

func (a *Analyzer) DetectFaces(f vision.Frame) ([]image.Rectangle, error) {
	cf, err := asFrame(f)
	if err != nil {
		return nil, err
	}
	return a.cascade.DetectMultiScaleWithParams(
		cf.Gray(),
		a.params.ScaleFactor,
		a.params.MinNeighbors,
		0,
		a.params.MinSize,
		image.Point{},
	), nil
}

func (a *Analyzer) EyeOpenness(f vision.Frame, region image.Rectangle) (float64, error) {
	cf, err := asFrame(f)
	if err != nil {
		return 0, err
	}

	region = region.Intersect(cf.Bounds())
	if region.Empty() {
		return 1.0, nil
	}

	roi := cf.Gray().Region(region)
	defer roi.Close()

	clahe := gocv.NewCLAHEWithParams(claheClip, claheTiles)
	defer clahe.Close()
	enhanced := gocv.NewMat()
	defer enhanced.Close()
	clahe.Apply(roi, &enhanced)

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.AdaptiveThreshold(enhanced, &binary, 255,
		gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinaryInv, thresholdBlock, thresholdC)

	contours := gocv.FindContours(binary, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	return openness(contours, region.Dx(), region.Dy()), nil
}

// openness is the largest contour height over the region height. A missing
// or tiny contour reads as a fully open eye.
func openness(contours gocv.PointsVector, w, h int) float64 {
	if contours.Size() == 0 || h == 0 {
		return 1.0
	}

	best := -1
	bestArea := 0.0
	for i := 0; i < contours.Size(); i++ {
		if area := gocv.ContourArea(contours.At(i)); best < 0 || area > bestArea {
			best, bestArea = i, area
		}
	}

	if bestArea < minContourFactor*float64(w*h) {
		return 1.0
	}

	r := gocv.BoundingRect(contours.At(best))
	return float64(r.Dy()) / float64(h)
}

func (a *Analyzer) CropFace(f vision.Frame, face image.Rectangle) ([]byte, error) {
	cf, err := asFrame(f)
	if err != nil {
		return nil, err
	}

	m, err := normalizedFace(cf, face)
	if err != nil {
		return nil, err
	}
	defer m.Close()

	return encodeJPEG(m)
}

func normalizedFace(cf *Frame, face image.Rectangle) (gocv.Mat, error) {
	face = face.Intersect(cf.Bounds())
	if face.Empty() {
		return gocv.Mat{}, fmt.Errorf("face %v outside frame", face)
	}

	roi := cf.Gray().Region(face)
	defer roi.Close()

	out := gocv.NewMat()
	gocv.Resize(roi, &out, FaceSize, 0, 0, gocv.InterpolationLinear)
	return out, nil
}
