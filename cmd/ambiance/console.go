package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"ambiance/internal/logger"
	"ambiance/pkg/engine"
)

// runConsole reads operator commands until quit, EOF or interrupt, then
// cancels the engine context
func runConsole(ctx context.Context, cancel context.CancelFunc, eng *engine.Engine, log *logger.Logger) {
	defer cancel()

	rl, err := readline.NewEx(&readline.Config{
		Prompt: "ambiance> ",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("status"),
			readline.PcItem("play"),
			readline.PcItem("stop"),
			readline.PcItem("start"),
			readline.PcItem("music", readline.PcItem("stop")),
			readline.PcItem("volume",
				readline.PcItem("master"),
				readline.PcItem("music"),
				readline.PcItem("ambiance"),
			),
			readline.PcItem("quit"),
		),
	})
	if err != nil {
		log.Errorf("Failed to open console: %v", err)
		return
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			log.Errorf("Console read failed: %v", err)
			return
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "quit", "exit":
			return
		}

		out, err := eng.Exec(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			fmt.Fprintf(rl.Stderr(), "error: %v\n", err)
			continue
		}
		if out != "" {
			fmt.Fprintln(rl.Stdout(), out)
		}
	}
}
