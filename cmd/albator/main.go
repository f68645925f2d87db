package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/albator-sec/albator/internal/config"
	"github.com/albator-sec/albator/internal/logger"
	"github.com/albator-sec/albator/internal/provider"
)

func main() {
	log, err := logger.New(logger.Options{Level: "info", Format: os.Getenv(config.EnvLogFormat)})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}

	registry := provider.NewRegistry(log)
	if err := registerProviders(registry); err != nil {
		fmt.Fprintf(os.Stderr, "failed to register providers: %v\n", err)
		os.Exit(1)
	}

	setAppRegistry(registry)

	if err := newRootCmd().Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			if exitErr.msg != "" {
				fmt.Fprintln(os.Stderr, exitErr.msg)
			}
			os.Exit(exitErr.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
