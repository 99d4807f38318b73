package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/faceguard/internal/flagx"
	"github.com/dmitrijs2005/faceguard/internal/timex"
)

// JsonConfig is the on-disk form of Config. Durations go through
// timex.Duration so both "30s" and integer nanoseconds are accepted.
// Numeric tunables are pointers so that an absent key keeps the default.
type JsonConfig struct {
	LogFormat string `json:"log_format"`

	DatabaseDriver string `json:"database_driver"`
	DatabaseDSN    string `json:"database_dsn"`

	DatasetsDir  string `json:"datasets_dir"`
	ModelsDir    string `json:"models_dir"`
	IntrudersDir string `json:"intruders_dir"`
	CascadePath  string `json:"cascade_path"`
	CameraDevice *int   `json:"camera_device"`

	SnapshotBackend string `json:"snapshot_backend"`
	S3AccessKey     string `json:"s3_access_key"`
	S3SecretKey     string `json:"s3_secret_key"`
	S3Bucket        string `json:"s3_bucket"`
	S3Region        string `json:"s3_region"`
	S3BaseEndpoint  string `json:"s3_base_endpoint"`
	S3Prefix        string `json:"s3_prefix"`

	EndpointAddrGRPC   string         `json:"endpoint_addr_grpc"`
	AdminPasswordHash  string         `json:"admin_password_hash"`
	AdminSecretKey     string         `json:"admin_secret_key"`
	AdminTokenValidity timex.Duration `json:"admin_token_validity"`
	AdminLoginPerMin   *int           `json:"admin_login_per_min"`

	LockoutIdentifier string         `json:"lockout_identifier"`
	LockoutThreshold  *int           `json:"lockout_threshold"`
	LockoutDuration   timex.Duration `json:"lockout_duration"`
	SessionValidity   timex.Duration `json:"session_validity"`

	LivenessMaxFrames    *int     `json:"liveness_max_frames"`
	RequiredBlinks       *int     `json:"required_blinks"`
	ClosedRatio          *float64 `json:"closed_ratio"`
	ConsecClosed         *int     `json:"consec_closed"`
	SmoothingWindow      *int     `json:"smoothing_window"`
	RecognitionMaxFrames *int     `json:"recognition_max_frames"`
	ConfidenceThreshold  *float64 `json:"confidence_threshold"`
	PINTries             *int     `json:"pin_tries"`
	EnrollSamples        *int     `json:"enroll_samples"`
	EnrollStride         *int     `json:"enroll_stride"`
}

// parseJson loads the file named by -c/-config, if any, over config.
// Keys missing from the file leave the current value in place.
// If the file cannot be read or contains invalid JSON, the function panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.LogFormat, c.LogFormat)
	setString(&config.DatabaseDriver, c.DatabaseDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.DatasetsDir, c.DatasetsDir)
	setString(&config.ModelsDir, c.ModelsDir)
	setString(&config.IntrudersDir, c.IntrudersDir)
	setString(&config.CascadePath, c.CascadePath)
	setValue(&config.CameraDevice, c.CameraDevice)

	setString(&config.SnapshotBackend, c.SnapshotBackend)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3Prefix, c.S3Prefix)

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.AdminPasswordHash, c.AdminPasswordHash)
	setString(&config.AdminSecretKey, c.AdminSecretKey)
	if c.AdminTokenValidity.Duration != 0 {
		config.AdminTokenValidity = c.AdminTokenValidity.Duration
	}
	setValue(&config.AdminLoginPerMin, c.AdminLoginPerMin)

	setString(&config.LockoutIdentifier, c.LockoutIdentifier)
	setValue(&config.LockoutThreshold, c.LockoutThreshold)
	if c.LockoutDuration.Duration != 0 {
		config.LockoutDuration = c.LockoutDuration.Duration
	}
	if c.SessionValidity.Duration != 0 {
		config.SessionValidity = c.SessionValidity.Duration
	}

	setValue(&config.LivenessMaxFrames, c.LivenessMaxFrames)
	setValue(&config.RequiredBlinks, c.RequiredBlinks)
	setValue(&config.ClosedRatio, c.ClosedRatio)
	setValue(&config.ConsecClosed, c.ConsecClosed)
	setValue(&config.SmoothingWindow, c.SmoothingWindow)
	setValue(&config.RecognitionMaxFrames, c.RecognitionMaxFrames)
	setValue(&config.ConfidenceThreshold, c.ConfidenceThreshold)
	setValue(&config.PINTries, c.PINTries)
	setValue(&config.EnrollSamples, c.EnrollSamples)
	setValue(&config.EnrollStride, c.EnrollStride)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setValue[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
