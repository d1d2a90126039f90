package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/TYPOWERS/fermprofile"
)

func main() {
	flow, err := fermprofile.Conf("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	profiles, err := flow.Run(ctx, nil)
	if err != nil {
		log.Fatalf("analysis failed: %v", err)
	}
	for _, p := range profiles {
		fmt.Printf("%s: %d segments\n", p.Parameter, len(p.Segments))
	}
}
