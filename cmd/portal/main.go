package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/cirota-portal/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	global := flag.NewFlagSet("portal", flag.ContinueOnError)
	global.SetOutput(stderr)
	configPath := global.String("config", os.Getenv("CONFIG_PATH"), "YAML configuration file")
	quiet := global.Bool("q", false, "do not print the banner")
	showMetrics := global.Bool("metrics", false, "print request metrics to stderr on exit")
	global.Usage = func() { usage(global) }
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		global.Usage()
		return flag.ErrHelp
	}

	c, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	setupLogging(stderr, c.GetLogLevel())
	if !*quiet {
		displayAppname(stderr, c.GetAppName())
	}

	a, err := newApp(c, stdout, stderr)
	if err != nil {
		return err
	}
	defer a.close()
	if *showMetrics {
		defer a.dumpMetrics()
	}

	return a.dispatch(ctx, global.Arg(0), global.Args()[1:])
}

func setupLogging(w io.Writer, level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()
}

func displayAppname(w io.Writer, appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	fmt.Fprintln(w, myFigure.String())
}

func usage(fs *flag.FlagSet) {
	out := fs.Output()
	fmt.Fprintln(out, "usage: portal [-config file] [-q] [-metrics] <command> [args]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "commands:")
	for _, cmd := range commands {
		fmt.Fprintf(out, "  %-34s %s\n", cmd.usage, cmd.help)
	}
	fmt.Fprintln(out)
	fs.PrintDefaults()
}
