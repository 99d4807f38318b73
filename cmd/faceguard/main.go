package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/faceguard/internal/adminclient"
	"github.com/dmitrijs2005/faceguard/internal/bootstrap"
	"github.com/dmitrijs2005/faceguard/internal/buildinfo"
	"github.com/dmitrijs2005/faceguard/internal/cli"
	"github.com/dmitrijs2005/faceguard/internal/config"
	"github.com/dmitrijs2005/faceguard/internal/logging"
	"github.com/dmitrijs2005/faceguard/internal/services"
	"github.com/dmitrijs2005/faceguard/internal/vision/opencv"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	if err := run(context.Background()); err != nil {
		log.Fatalf("%v", err)
	}

}

func run(ctx context.Context) error {
	cfg := config.LoadConfig()

	// stdout belongs to the console
	logger, err := logging.New(cfg.LogFormat, os.Stderr)
	if err != nil {
		return err
	}

	cv, err := opencv.NewStack(cfg.CameraDevice, cfg.CascadePath, cfg.ModelsDir)
	if err != nil {
		return err
	}
	defer cv.Close()

	st, err := bootstrap.New(ctx, cfg, logger, services.Vision{
		OpenCamera: cv.Opener,
		Liveness:   cv.Liveness,
		Faces:      cv.Faces,
		Recognizer: cv.Recognizer,
	})
	if err != nil {
		return err
	}
	defer st.Close()

	var remote cli.Remote
	if cfg.EndpointAddrGRPC != "" {
		c, err := adminclient.New(cfg.EndpointAddrGRPC)
		if err != nil {
			return err
		}
		defer c.Close()
		remote = c
	}

	cli.NewApp(st.Login, st.Enroll, st.Admin, remote, os.Stdin, os.Stdout).Run(ctx)
	return nil
}
