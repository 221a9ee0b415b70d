package main

import (
	"fmt"
	"os"

	"github.com/SSSOC-CAN/fluidd/fluidd"
	"github.com/SSSOC-CAN/fluidd/intercept"
)

// main is the entry point for the fluid manager daemon.
func main() {
	shutdownInterceptor, err := intercept.InitInterceptor()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	config, err := fluidd.InitConfig(false)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, err := fluidd.InitLogger(&config)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	shutdownInterceptor.SetLogger(log)
	server, err := fluidd.InitServer(&config, &log)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err = fluidd.Main(shutdownInterceptor, server); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
