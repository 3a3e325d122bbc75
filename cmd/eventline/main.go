package main

import (
	"context"
	"os"

	"github.com/mikaelhatanpaa/eventline/internal/cli"
	"github.com/mikaelhatanpaa/eventline/internal/config"
)

func main() {
	cfg := config.DefaultConfig()
	r := cli.NewRunner(cfg, os.Stdout, os.Stderr)
	os.Exit(r.Run(context.Background(), os.Args[1:]))
}
