// Command auth runs the tollgate token service.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/aussiebroadwan/tollgate/internal/auth/app"
	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
)

func main() {
	showVersion := flag.Bool("version", false, "print the build version and exit")
	checkConfig := flag.Bool("check-config", false, "validate the environment configuration and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(app.BuildVersion)
		return
	}

	cfg := app.LoadConfig()
	if *checkConfig {
		if err := cfg.Validate(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		fmt.Println("configuration ok")
		return
	}

	application, err := app.New(cfg)
	switch {
	case errors.Is(err, jwtx.ErrKeyUnavailable):
		log.Fatalf("no signing key available, refusing to serve: %v", err)
	case err != nil:
		log.Fatalf("startup failed: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("tollgate stopped: %v", err)
	}
}
