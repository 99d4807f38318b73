package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/faceguard/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-l string     log format: json, text or zap
//	-driver string database driver: sqlite or pgx
//	-d string     database DSN
//	-a string     gRPC bind address (e.g., ":50051")
//	-s string     admin JWT secret key
//	-camera int   capture device id
//	-cascade string  Haar cascade file
//	-snapshots string  snapshot backend: fs or s3
//	-u string     S3 access key
//	-p string     S3 secret key
//	-b string     S3 bucket name
//	-g string     S3 region
//	-e string     S3 base endpoint
//	-lockout-threshold int  failures before lockout
//	-lockout-duration duration  lockout length (e.g. "30s")
//	-confidence float  maximum accepted match distance
//
// Notes:
//   - os.Args is filtered with flagx.FilterArgs first, so -c/-config and
//     flags owned by other components do not collide.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-l", "-driver", "-d", "-a", "-s", "-camera", "-cascade", "-snapshots",
		"-u", "-p", "-b", "-g", "-e",
		"-lockout-threshold", "-lockout-duration", "-confidence",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.LogFormat, "l", config.LogFormat, "log format (json, text, zap)")
	fs.StringVar(&config.DatabaseDriver, "driver", config.DatabaseDriver, "database driver (sqlite, pgx)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.AdminSecretKey, "s", config.AdminSecretKey, "admin token secret key")
	fs.IntVar(&config.CameraDevice, "camera", config.CameraDevice, "camera device id")
	fs.StringVar(&config.CascadePath, "cascade", config.CascadePath, "face cascade file")
	fs.StringVar(&config.SnapshotBackend, "snapshots", config.SnapshotBackend, "snapshot backend (fs, s3)")

	fs.StringVar(&config.S3AccessKey, "u", config.S3AccessKey, "S3 access key")
	fs.StringVar(&config.S3SecretKey, "p", config.S3SecretKey, "S3 secret key")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.IntVar(&config.LockoutThreshold, "lockout-threshold", config.LockoutThreshold, "failed attempts before lockout")
	fs.DurationVar(&config.LockoutDuration, "lockout-duration", config.LockoutDuration, "lockout duration")
	fs.Float64Var(&config.ConfidenceThreshold, "confidence", config.ConfidenceThreshold, "maximum accepted match distance")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
