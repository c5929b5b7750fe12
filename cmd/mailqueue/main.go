package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mqcmd "github.com/telekom/mailqueue/pkg/mailqueue/cmd"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := mqcmd.DefaultConfig()
	cfg.BaseContext = ctx

	root := mqcmd.NewRootCommand(cfg)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
