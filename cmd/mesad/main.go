package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/matheus3301/mesa/internal/app"
	"github.com/matheus3301/mesa/internal/config"
	"github.com/matheus3301/mesa/internal/session"
	"go.uber.org/fx"
)

func main() {
	sessionFlag := flag.String("session", "", "table session name (overrides config default)")
	listenFlag := flag.String("listen", "", "HTTP listen address (overrides config)")
	flag.Parse()

	sessionName := session.Resolve(*sessionFlag)
	if err := session.ValidateName(sessionName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(session.ConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	listen := cfg.Listen
	if *listenFlag != "" {
		listen = *listenFlag
	}

	fxApp := fx.New(
		app.Module(app.Params{
			SessionName: sessionName,
			Listen:      listen,
			Backend:     cfg.Backend,
			Firestore:   cfg.Firestore,
		}),
	)

	fxApp.Run()
}
