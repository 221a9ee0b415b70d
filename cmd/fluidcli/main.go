/*
Copyright (C) 2015-2018 Lightning Labs and The Lightning Network Developers

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package main

import (
	"fmt"
	"net"
	"os"

	"github.com/SSSOC-CAN/fluidd/fluidrpc"
	"github.com/urfave/cli"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

var (
	defaultRPCAddr = "localhost"
	defaultRPCPort = "7777"
)

type Args struct {
	RPCAddr string
	RPCPort string
}

// fatal exits the process and prints out error information
func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[fluidcli] %v\n", err)
	os.Exit(1)
}

// getClientConn dials the daemon from the global flags
func getClientConn(ctx *cli.Context) *grpc.ClientConn {
	args := extractArgs(ctx)
	conn, err := grpc.Dial(net.JoinHostPort(args.RPCAddr, args.RPCPort), grpc.WithInsecure())
	if err != nil {
		fatal(err)
	}
	return conn
}

// getFluidManagerClient returns the FluidManagerClient instance from the fluidrpc package as well as a cleanup function
func getFluidManagerClient(ctx *cli.Context) (fluidrpc.FluidManagerClient, func()) {
	conn := getClientConn(ctx)
	cleanUp := func() {
		conn.Close()
	}
	return fluidrpc.NewFluidManagerClient(conn), cleanUp
}

// getHealthClient returns a gRPC health client as well as a cleanup function
func getHealthClient(ctx *cli.Context) (healthpb.HealthClient, func()) {
	conn := getClientConn(ctx)
	cleanUp := func() {
		conn.Close()
	}
	return healthpb.NewHealthClient(conn), cleanUp
}

// extractArgs extracts the arguments inputted to the fluidcli command
func extractArgs(ctx *cli.Context) *Args {
	return &Args{
		RPCAddr: ctx.GlobalString("rpc_addr"),
		RPCPort: ctx.GlobalString("rpc_port"),
	}
}

// newApp builds the fluidcli application
func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "fluidcli"
	app.Usage = "Control panel for the fluid manager daemon (fluidd)"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rpc_addr",
			Value: defaultRPCAddr,
			Usage: "The host address of the fluid manager daemon (exclude the port)",
		},
		cli.StringFlag{
			Name:  "rpc_port",
			Value: defaultRPCPort,
			Usage: "The host port of the fluid manager daemon",
		},
	}
	app.Commands = []cli.Command{
		stopCommand,
		startFluidicsCommand,
		stopFluidicsCommand,
		startPurgeCommand,
		stopPurgeCommand,
		sendCommand,
		statusCommand,
		healthCommand,
	}
	return app
}

// main is the entrypoint for fluidcli
func main() {
	if err := newApp().Run(os.Args); err != nil {
		fatal(err)
	}
}
