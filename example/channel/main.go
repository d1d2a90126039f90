package main

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/TYPOWERS/fermprofile"
)

func main() {
	flow, err := fermprofile.Conf("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	sink, batches, closeBatches := fermprofile.NewChannelSink("fanout", 4)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		summarize(batches)
	}()

	_, err = flow.Run(context.Background(), sink)
	closeBatches()
	wg.Wait()
	if err != nil {
		log.Fatalf("analysis failed: %v", err)
	}
}

func summarize(batches <-chan []*fermprofile.Profile) {
	for batch := range batches {
		for _, p := range batch {
			pids := 0
			for _, seg := range p.Segments {
				if _, ok := seg.(fermprofile.Pid); ok {
					pids++
				}
			}
			fmt.Printf("%s: %d segments, %d regulated\n", p.Parameter, len(p.Segments), pids)
		}
	}
}
