// Package config handles configuration for faceguard binaries, including
// defaults, JSON overlay, and command-line flags.
package config

import (
	"fmt"
	"time"
)

// Config holds runtime settings shared by the CLI and the daemon.
//
// Fields:
//   - DatabaseDriver / DatabaseDSN: "sqlite" (modernc) or "pgx" and its DSN.
//   - DatasetsDir / ModelsDir / IntrudersDir: on-disk state.
//   - SnapshotBackend: "fs" or "s3"; the S3* fields configure the latter.
//   - AdminPasswordHash: argon2id hash checked by admin login. Empty disables it.
//   - AdminSecretKey: HMAC secret for admin JWTs (HS256).
//   - Lockout*, Session*, Liveness*, Recognition*, PIN* and Enroll* tune the
//     authentication flow.
type Config struct {
	LogFormat string

	DatabaseDriver string
	DatabaseDSN    string

	DatasetsDir  string
	ModelsDir    string
	IntrudersDir string
	CascadePath  string
	CameraDevice int

	SnapshotBackend string
	S3AccessKey     string
	S3SecretKey     string
	S3Bucket        string
	S3Region        string
	S3BaseEndpoint  string
	S3Prefix        string

	EndpointAddrGRPC   string
	AdminPasswordHash  string
	AdminSecretKey     string
	AdminTokenValidity time.Duration
	AdminLoginPerMin   int

	LockoutIdentifier string
	LockoutThreshold  int
	LockoutDuration   time.Duration
	SessionValidity   time.Duration

	LivenessMaxFrames    int
	RequiredBlinks       int
	ClosedRatio          float64
	ConsecClosed         int
	SmoothingWindow      int
	RecognitionMaxFrames int
	ConfidenceThreshold  float64
	PINTries             int
	EnrollSamples        int
	EnrollStride         int
}

const (
	SnapshotFS = "fs"
	SnapshotS3 = "s3"
)

// LoadDefaults populates Config with development defaults.
// NOTE: AdminSecretKey must be overridden in production.
func (c *Config) LoadDefaults() {
	c.LogFormat = "text"

	c.DatabaseDriver = "sqlite"
	c.DatabaseDSN = "faceguard.db"

	c.DatasetsDir = "datasets"
	c.ModelsDir = "models"
	c.IntrudersDir = "intruders"
	c.CascadePath = "/usr/share/opencv4/haarcascades/haarcascade_frontalface_default.xml"
	c.CameraDevice = 0

	c.SnapshotBackend = SnapshotFS
	c.S3AccessKey = "admin"
	c.S3SecretKey = "secretpassword"
	c.S3Bucket = "faceguard"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.S3Prefix = "intruders"

	c.EndpointAddrGRPC = ":50051"
	c.AdminPasswordHash = ""
	c.AdminSecretKey = "secretKey"
	c.AdminTokenValidity = 15 * time.Minute
	c.AdminLoginPerMin = 5

	c.LockoutIdentifier = "login"
	c.LockoutThreshold = 5
	c.LockoutDuration = 30 * time.Second
	c.SessionValidity = 30 * time.Minute

	c.LivenessMaxFrames = 300
	c.RequiredBlinks = 2
	c.ClosedRatio = 0.23
	c.ConsecClosed = 2
	c.SmoothingWindow = 4
	c.RecognitionMaxFrames = 150
	c.ConfidenceThreshold = 80
	c.PINTries = 3
	c.EnrollSamples = 30
	c.EnrollStride = 3
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

// Validate rejects settings the binaries cannot start with.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case "sqlite", "pgx":
	default:
		return fmt.Errorf("unknown database driver %q", c.DatabaseDriver)
	}
	switch c.SnapshotBackend {
	case SnapshotFS, SnapshotS3:
	default:
		return fmt.Errorf("unknown snapshot backend %q", c.SnapshotBackend)
	}
	if c.LockoutThreshold < 1 {
		return fmt.Errorf("lockout threshold must be positive, got %d", c.LockoutThreshold)
	}
	if c.PINTries < 1 {
		return fmt.Errorf("pin tries must be positive, got %d", c.PINTries)
	}
	if c.SmoothingWindow < 1 || c.RequiredBlinks < 1 || c.LivenessMaxFrames < 1 || c.RecognitionMaxFrames < 1 {
		return fmt.Errorf("liveness and recognition budgets must be positive")
	}
	if c.EnrollSamples < 1 || c.EnrollStride < 1 {
		return fmt.Errorf("enrolment sample target and stride must be positive")
	}
	return nil
}
