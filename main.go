package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"bmp24/config"
	"bmp24/convert"
	"bmp24/inspect"
	"bmp24/parallel"
)

type cli struct {
	Config    kong.ConfigFlag `help:"YAML file with flag defaults"`
	LogLevel  string          `help:"Log level" enum:"debug,info,warn,error" default:"info"`
	LogFormat string          `help:"Log output format" enum:"text,json" default:"text"`
	Workers   int             `help:"Files converted in parallel; 0 for one per CPU" default:"0"`

	Encode convert.EncodeCmd `cmd:"" help:"Convert images to 24-bit bitmaps"`
	Decode convert.DecodeCmd `cmd:"" help:"Convert 24-bit bitmaps to other formats"`
	Info   inspect.CLICmd    `cmd:"" help:"Describe 24-bit bitmaps"`
}

func (c *cli) AfterApply() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch c.LogFormat {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

func main() {
	var c cli
	kctx := kong.Parse(&c,
		kong.Name("bmp24"),
		kong.Description("Read and write uncompressed 24-bit Windows bitmaps."),
		kong.UsageOnError(),
		kong.Configuration(config.Loader, config.Paths...),
	)

	if c.Workers < 0 {
		kctx.Fatalf("invalid workers: %d", c.Workers)
	}

	slog.Debug("running", "command", kctx.Command(), "workers", c.Workers)
	pool := parallel.Start(c.Workers)
	if err := kctx.Run(pool); err != nil {
		slog.Error("command failed", "command", kctx.Command(), "error", err)
		os.Exit(1)
	}
}
