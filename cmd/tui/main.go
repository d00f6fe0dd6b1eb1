package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/taskline-app/taskline/internal/tui"
)

func main() {
	configPath := flag.String("config", tui.DefaultConfigPath(), "path to the TOML config file")
	serverURL := flag.String("server", "", "API base URL (overrides config)")
	flag.Parse()

	cfg, err := tui.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *serverURL != "" {
		cfg.ServerURL = *serverURL
	}

	if err := tui.Run(context.Background(), cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
