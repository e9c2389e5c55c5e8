package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"repeatbot/internal/app"
	"repeatbot/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./config.json", "path to config json or yaml")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-config path] [command words...]\n\n", os.Args[0])
		fmt.Fprintln(flag.CommandLine.Output(), "With command words, runs one command and prints the reply.")
		fmt.Fprintln(flag.CommandLine.Output(), "Without, reads one command per line from stdin.")
		fmt.Fprintln(flag.CommandLine.Output())
		flag.PrintDefaults()
	}
	flag.Parse()

	if _, err := config.LoadDotEnv(""); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		return 1
	}
	defer a.Close()

	if args := flag.Args(); len(args) > 0 {
		if reply := a.Exec(ctx, strings.Join(args, " "), "args"); reply != "" {
			fmt.Println(reply)
		}
		return 0
	}

	if err := a.Serve(ctx, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		return 1
	}
	return 0
}
