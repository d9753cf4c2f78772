package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"announcer/internal/app"
	"announcer/internal/command"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	var (
		cfgPath  string
		envPath  string
		noStdin  bool
		showVers bool
	)
	flag.StringVar(&cfgPath, "config", "./announcer.yaml", "path to config yaml (or json)")
	flag.StringVar(&envPath, "env", ".env", "dotenv file with secrets (optional)")
	flag.BoolVar(&noStdin, "no-stdin", false, "do not read operator commands from stdin")
	flag.BoolVar(&showVers, "version", false, "print version and exit")
	flag.Parse()

	if showVers {
		fmt.Println("announcer", version)
		return
	}

	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "fatal: load env:", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opt := app.Options{
		Info:   command.Info{Name: "Announcer", Version: version},
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
	}
	if noStdin {
		opt.Stdin = nil
	}

	a, err := app.New(cfgPath, opt)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
	if err := a.Start(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "fatal start:", err)
		os.Exit(1)
	}

	reason := app.StopSignal
	select {
	case <-ctx.Done():
	case <-a.Done():
		reason = app.StopFatalError
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer stopCancel()
	_ = a.Stop(stopCtx, reason)

	if err := a.Err(); err != nil && reason == app.StopFatalError {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}
