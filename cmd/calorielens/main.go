// Command calorielens estimates calories and macros of a meal photo from the terminal.
//
//	calorielens [flags] <image path | http(s) URL | s3://bucket/key>
//	calorielens -i
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/chzyer/readline"

	"github.com/bububa/calorielens/agents"
	"github.com/bububa/calorielens/components"
	"github.com/bububa/calorielens/config"
	"github.com/bububa/calorielens/internal/bootstrap"
	"github.com/bububa/calorielens/presenter"
	"github.com/bububa/calorielens/server"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitConfigError = 2
)

type options struct {
	configPath  string
	envFile     string
	provider    string
	model       string
	mode        string
	hint        string
	json        bool
	interactive bool
	verbose     bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout io.Writer, stderr io.Writer) int {
	var opts options
	fs := flag.NewFlagSet("calorielens", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&opts.envFile, "env", ".env", "dotenv file preloaded into the environment")
	fs.StringVar(&opts.provider, "provider", "", "vision provider: gemini, openai or anthropic")
	fs.StringVar(&opts.model, "model", "", "model name, provider default when empty")
	fs.StringVar(&opts.mode, "mode", "", "structured or lookup")
	fs.StringVar(&opts.hint, "hint", "", "optional hint about the meal")
	fs.BoolVar(&opts.json, "json", false, "print the result as JSON")
	fs.BoolVar(&opts.interactive, "i", false, "interactive console")
	fs.BoolVar(&opts.verbose, "v", false, "debug logging")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: calorielens [flags] <image path | http(s) URL | s3://bucket/key>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitConfigError
	}
	if !opts.interactive && fs.NArg() != 1 {
		fs.Usage()
		return exitConfigError
	}

	if err := config.LoadEnvFile(opts.envFile); err != nil {
		fmt.Fprintln(stderr, err)
		return exitConfigError
	}
	cfg, err := config.Load(opts.configPath,
		config.WithProvider(opts.provider),
		config.WithModel(opts.model),
		config.WithMode(opts.mode),
	)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitConfigError
	}
	if opts.verbose {
		cfg.LogLevel = "debug"
	}
	logger := cfg.Logger(stderr)
	app, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitConfigError
	}
	defer app.Close()

	if opts.interactive {
		if err := console(ctx, app, &opts, stdout); err != nil {
			fmt.Fprintln(stderr, err)
			return exitFailure
		}
		return exitOK
	}
	ret := estimate(ctx, app, fs.Arg(0), opts.hint)
	if err := render(stdout, ret, opts.json); err != nil {
		fmt.Fprintln(stderr, err)
		return exitFailure
	}
	if !ret.OK() {
		return exitFailure
	}
	return exitOK
}

func estimate(ctx context.Context, app *bootstrap.App, ref string, hint string) *agents.Result {
	req, err := app.Load(ctx, ref, hint)
	if err != nil {
		return &agents.Result{Mode: app.Config.Mode, Err: err, Kind: components.KindOf(err)}
	}
	return app.Run(ctx, req)
}

func render(w io.Writer, ret *agents.Result, asJSON bool) error {
	if !asJSON {
		return presenter.Text(w, ret)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(server.NewResponse(ret))
}

// console reads one image reference per line. A line starting with ":" sets the hint
// used by the following estimates, ":" alone clears it.
func console(ctx context.Context, app *bootstrap.App, opts *options, stdout io.Writer) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "image> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdout:          stdout,
	})
	if err != nil {
		return err
	}
	defer rl.Close()
	hint := opts.hint
	fmt.Fprintf(rl.Stdout(), "%s (%s, %s mode). Enter an image path or URL, :hint to set a hint, exit to quit.\n", app.Config.Provider, app.Config.Model, app.Config.Mode)
	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case line == "exit" || line == "quit":
			return nil
		case strings.HasPrefix(line, ":"):
			hint = strings.TrimSpace(line[1:])
			continue
		}
		if ctx.Err() != nil {
			return nil
		}
		ret := estimate(ctx, app, line, hint)
		if err := render(rl.Stdout(), ret, opts.json); err != nil {
			return err
		}
	}
}
