package main

import (
	"flag"
	"testing"

	"github.com/urfave/cli"
)

// TestCommandNames ensures every command is registered under a unique name
func TestCommandNames(t *testing.T) {
	app := newApp()
	expected := []string{"stop", "start-fluidics", "stop-fluidics", "start-purge", "stop-purge", "send", "status", "health"}
	seen := make(map[string]bool)
	for _, c := range app.Commands {
		if seen[c.Name] {
			t.Errorf("Duplicate command %s", c.Name)
		}
		seen[c.Name] = true
	}
	for _, name := range expected {
		if !seen[name] {
			t.Errorf("Missing command %s", name)
		}
	}
}

// TestExtractArgs ensures the global flags are read
func TestExtractArgs(t *testing.T) {
	set := flag.NewFlagSet("fluidcli", flag.ContinueOnError)
	set.String("rpc_addr", defaultRPCAddr, "")
	set.String("rpc_port", defaultRPCPort, "")
	if err := set.Parse([]string{"--rpc_port", "9000"}); err != nil {
		t.Fatalf("Could not parse flags: %v", err)
	}
	ctx := cli.NewContext(cli.NewApp(), set, nil)
	args := extractArgs(ctx)
	if args.RPCAddr != defaultRPCAddr || args.RPCPort != "9000" {
		t.Errorf("Unexpected args: %+v", args)
	}
}
