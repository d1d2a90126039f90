package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/TYPOWERS/fermprofile"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	var err error

	switch cmd {
	case "analyze":
		err = analyzeCommand(os.Args[2:])
	case "validate":
		err = validateCommand(os.Args[2:])
	case "serve":
		err = serveCommand(os.Args[2:])
	case "timeline":
		err = timelineCommand(os.Args[2:])
	case "draft":
		err = draftCommand(os.Args[2:])
	case "stats":
		err = statsCommand(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		printUsage()
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		log.Fatalf("fermprofile %s: %v", cmd, err)
	}
}

func loadConfig(path string) (*fermprofile.Config, error) {
	if path == "" {
		return fermprofile.DefaultConfig(), nil
	}
	return fermprofile.LoadConfig(path)
}

func analyzeCommand(args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to configuration file (defaults apply when empty)")
	dataDir := fs.String("data", "", "Run folder with *_SP*.csv exports (overrides source.data_dir)")
	outDir := fs.String("out", "", "Directory for <parameter>_profile.json files (stdout when empty)")
	detector := fs.String("detector", "", "Detector to use: triplet or gradient")
	processType := fs.String("process", "", "Process type used to name the exported profile")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *dataDir != "" {
		cfg.Source.DataDir = *dataDir
	}
	if *detector != "" {
		cfg.Analysis.Detector = *detector
	}
	if *processType != "" {
		cfg.ProcessType = *processType
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	flow, err := fermprofile.ConfFromConfig(cfg)
	if err != nil {
		return err
	}
	profiles, err := flow.Run(ctx, nil)
	if err != nil {
		return err
	}

	for _, p := range profiles {
		data, err := fermprofile.Export(p.ProcessType, p.Segments)
		if err != nil {
			return err
		}
		if *outDir == "" {
			fmt.Printf("# %s (%s)\n%s\n", p.Parameter, p.SourceFile, data)
			continue
		}
		if err := os.MkdirAll(*outDir, 0o755); err != nil {
			return err
		}
		path := filepath.Join(*outDir, fileSafe(p.Parameter)+"_profile.json")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
		fmt.Printf("%s: %d segments -> %s\n", p.Parameter, len(p.Segments), path)
	}
	return nil
}

func fileSafe(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, name)
}

func validateCommand(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to configuration file to validate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := fermprofile.LoadConfig(*cfgPath); err != nil {
		return err
	}
	fmt.Printf("config %s looks good\n", *cfgPath)
	return nil
}

func serveCommand(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to configuration file (defaults apply when empty)")
	addr := fs.String("addr", "", "Listen address (overrides http.addr)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *addr != "" {
		cfg.HTTP.Addr = *addr
	}

	a, err := fermprofile.NewAnalyzer(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	srv, err := fermprofile.NewServer(a)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}

func timelineCommand(args []string) error {
	fs := flag.NewFlagSet("timeline", flag.ExitOnError)
	in := fs.String("in", "", "Exported profile JSON file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("-in is required")
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		return err
	}
	_, segs, err := fermprofile.ParseExport(data)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	fmt.Fprintln(w, "time_hours,value")
	for _, pt := range fermprofile.Timeline(segs) {
		fmt.Fprintf(w, "%g,%g\n", pt.Hours, pt.Value)
	}
	return nil
}

func draftCommand(args []string) error {
	fs := flag.NewFlagSet("draft", flag.ExitOnError)
	in := fs.String("in", "", "Hand-written segment list (export object or bare array)")
	runtime := fs.Float64("runtime", 0, "Planned run length in hours")
	processType := fs.String("process", "", "Process type used to name the exported profile")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *runtime <= 0 {
		return fmt.Errorf("-in and a positive -runtime are required")
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		return err
	}
	_, segs, err := fermprofile.ParseExport(data)
	if err != nil {
		return err
	}
	d, err := fermprofile.BuildDraft(*runtime, segs)
	if err != nil {
		return err
	}

	out, err := fermprofile.Export(*processType, d.Segments)
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", out)
	fmt.Fprintf(os.Stderr, "used %.2fh of %.2fh, %.2fh unallocated\n", d.Used(), d.TotalRuntime, d.Remaining())
	return nil
}

func statsCommand(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	url := fs.String("url", "http://localhost:9100/metrics", "Prometheus metrics endpoint")
	interval := fs.Duration("interval", 2*time.Second, "Refresh interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	fmt.Printf("Streaming metrics from %s (Ctrl+C to stop)\n", *url)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := printMetricsSnapshot(*url); err != nil {
				fmt.Fprintf(os.Stderr, "stats error: %v\n", err)
			}
		}
	}
}

func printMetricsSnapshot(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	targets := map[string]float64{
		"fermprofile_series_analyzed_total":  0,
		"fermprofile_segments_emitted_total": 0,
		"fermprofile_pid_promotions_total":   0,
		"fermprofile_cache_entries":          0,
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		for key := range targets {
			if strings.HasPrefix(line, key+" ") {
				var value float64
				if _, err := fmt.Sscanf(line, key+" %f", &value); err == nil {
					targets[key] = value
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	fmt.Printf("[%s] series=%.0f segments=%.0f pid=%.0f cached=%.0f\n",
		time.Now().Format(time.RFC3339),
		targets["fermprofile_series_analyzed_total"],
		targets["fermprofile_segments_emitted_total"],
		targets["fermprofile_pid_promotions_total"],
		targets["fermprofile_cache_entries"],
	)
	return nil
}

func printUsage() {
	fmt.Printf(`fermprofile CLI

Usage:
  fermprofile <command> [flags]

Commands:
  analyze    Profile every setpoint export of a run folder
  validate   Load and validate a config file
  serve      Run the profile HTTP API
  timeline   Print an exported profile as plottable time,value rows
  draft      Assemble a hand-written profile, filling open durations
  stats      Poll the Prometheus metrics endpoint and print live counters

Examples:
  fermprofile analyze -data ./runs/R042 -process Temperature -out ./profiles
  fermprofile validate -config ./data/config.yaml
  fermprofile serve -config ./data/config.yaml
  fermprofile timeline -in ./profiles/Temperature_profile.json
  fermprofile draft -in ./plan.json -runtime 120 -process Temperature
  fermprofile stats -url http://localhost:9100/metrics -interval 1s
`)
}
