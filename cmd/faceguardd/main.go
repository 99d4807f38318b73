package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/faceguard/internal/bootstrap"
	"github.com/dmitrijs2005/faceguard/internal/buildinfo"
	"github.com/dmitrijs2005/faceguard/internal/config"
	"github.com/dmitrijs2005/faceguard/internal/cryptox"
	"github.com/dmitrijs2005/faceguard/internal/logging"
	"github.com/dmitrijs2005/faceguard/internal/server"
	"github.com/dmitrijs2005/faceguard/internal/services"
	"github.com/dmitrijs2005/faceguard/internal/vision/opencv"
	"golang.org/x/term"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	if len(os.Args) > 1 && os.Args[1] == "hash-password" {
		if err := hashPassword(); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}

	if err := run(context.Background()); err != nil {
		log.Fatalf("%v", err)
	}

}

func run(ctx context.Context) error {
	cfg := config.LoadConfig()

	logger, err := logging.New(cfg.LogFormat, os.Stdout)
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

	return server.NewApp(cfg, logger, st.Core.Sessions(), st.Admin).Run(ctx)
}

// hashPassword prints an argon2id hash for the admin_password_hash setting.
func hashPassword() error {
	fmt.Fprint(os.Stderr, "Admin password: ")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}
	if len(pw) == 0 {
		return fmt.Errorf("empty password")
	}
	fmt.Println(cryptox.HashPassword(pw))
	return nil
}
