package main

import (
	"context"
	"fmt"
	"log"

	"github.com/TYPOWERS/fermprofile/pkg/fermprofile"
)

func main() {
	flow, err := fermprofile.Conf("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	callback := func(batch []*fermprofile.Profile) error {
		for _, p := range batch {
			data, err := fermprofile.Export(p.ProcessType, p.Segments)
			if err != nil {
				return err
			}
			fmt.Printf("# %s\n%s\n", p.Parameter, data)
		}
		return nil
	}

	if _, err := flow.Run(context.Background(), fermprofile.NewCallbackSink("stdout", callback)); err != nil {
		log.Fatalf("analysis failed: %v", err)
	}
}
