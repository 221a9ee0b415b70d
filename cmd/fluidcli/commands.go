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
	"context"
	"fmt"
	"os"

	"github.com/SSSOC-CAN/fluidd/command"
	"github.com/SSSOC-CAN/fluidd/intercept"
	"github.com/urfave/cli"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// getContext spins up a go routine to monitor for shutdown requests and returns a context object
func getContext() context.Context {
	shutdownInterceptor, err := intercept.InitInterceptor()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	ctxc, _ := shutdownInterceptor.Context()
	return ctxc
}

// printRespJSON will convert a proto response as a string and print it
func printRespJSON(resp proto.Message) {
	jsonMarshaler := &protojson.MarshalOptions{
		Multiline:     true,
		UseProtoNames: true,
		Indent:        "    ",
	}
	fmt.Println(jsonMarshaler.Format(resp))
}

var stopCommand = cli.Command{
	Name:  "stop",
	Usage: "Stop and shutdown the daemon",
	Description: `
	Gracefully stop the control loop, drive all outputs to their safe state and stop the daemon. This is equivalent to stopping it using CTRL-C.`,
	Action: stopDaemon,
}

// stopDaemon is the proxy command between fluidcli and the gRPC equivalent
func stopDaemon(ctx *cli.Context) error {
	ctxc := getContext()
	client, cleanUp := getFluidManagerClient(ctx)
	defer cleanUp()
	_, err := client.StopDaemon(ctxc, &emptypb.Empty{})
	return err
}

// newSysCommand returns a command which sends a system command verb to the daemon
func newSysCommand(name, verb, usage, description string) cli.Command {
	return cli.Command{
		Name:        name,
		Usage:       usage,
		Description: description,
		Action: func(ctx *cli.Context) error {
			return sendText(ctx, command.Format(verb))
		},
	}
}

var (
	startFluidicsCommand = newSysCommand("start-fluidics", command.StartFluidics, "Start pressurizing to the configured operating pressure", `
	Reads the operating pressure from the fluidics capability configuration and starts pressurizing the reservoirs.`)
	stopFluidicsCommand = newSysCommand("stop-fluidics", command.StopFluidics, "Stop pressure control", `
	Stops pressure control. The module becomes inoperative and awaits configuration.`)
	startPurgeCommand = newSysCommand("start-purge", command.StartPurge, "Vent the reservoirs", `
	Vents the reservoirs and then reopens the air supply. Refused while the air supply is above 0.5 psi.`)
	stopPurgeCommand = newSysCommand("stop-purge", command.StopPurge, "End a purge", `
	Ends a running purge.`)
)

var sendCommand = cli.Command{
	Name:      "send",
	Usage:     "Send a raw command string",
	ArgsUsage: "command",
	Description: `
	Send a raw command string to the daemon, for example "[SYS]START_FLUIDICS". Unknown commands are ignored by the daemon.`,
	Action: send,
}

// send is the proxy command between fluidcli and the gRPC equivalent
func send(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.ShowCommandHelp(ctx, "send")
	}
	return sendText(ctx, ctx.Args().First())
}

// sendText sends text with the SendCommand RPC
func sendText(ctx *cli.Context, text string) error {
	ctxc := getContext()
	client, cleanUp := getFluidManagerClient(ctx)
	defer cleanUp()
	_, err := client.SendCommand(ctxc, wrapperspb.String(text))
	return err
}

var statusCommand = cli.Command{
	Name:  "status",
	Usage: "Show the module status",
	Description: `
	Returns the module status, the reservoir statuses and the latest control loop snapshot.`,
	Action: getStatus,
}

// getStatus is the proxy command between fluidcli and the gRPC equivalent
func getStatus(ctx *cli.Context) error {
	ctxc := getContext()
	client, cleanUp := getFluidManagerClient(ctx)
	defer cleanUp()
	resp, err := client.GetStatus(ctxc, &emptypb.Empty{})
	if err != nil {
		return err
	}
	printRespJSON(resp)
	return nil
}

var healthCommand = cli.Command{
	Name:  "health",
	Usage: "Check the serving status of the daemon",
	Description: `
	Queries the gRPC health service. Without --service the module level status is returned.`,
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "service",
			Usage: "One of fluidics, blood_supply, clear_supply, rpc or control_loop",
		},
	},
	Action: checkHealth,
}

// checkHealth is the proxy command between fluidcli and the gRPC health service
func checkHealth(ctx *cli.Context) error {
	ctxc := getContext()
	client, cleanUp := getHealthClient(ctx)
	defer cleanUp()
	resp, err := client.Check(ctxc, &healthpb.HealthCheckRequest{Service: ctx.String("service")})
	if err != nil {
		return err
	}
	printRespJSON(resp)
	return nil
}
