package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"spellsync/internal/config"
	"spellsync/internal/daemonrun"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	flag.Parse()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	if err := daemonrun.Run(context.Background(), cfg); err != nil {
		fmt.Fprintf(os.Stderr, "spellsyncd: %v\n", err)
		os.Exit(1)
	}
}
