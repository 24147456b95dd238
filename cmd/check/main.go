// Command check resolves a coordinate and evaluates it against the live IPMA
// warnings feed once, then exits. Intended for operators and smoke tests:
//
//	check -lat 38.72 -lon -9.14
//
// Exit code 1 means the evaluation could not run; an unsafe verdict still
// exits 0 (the verdict is the output, not an error).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/meteopt/aviso/internal/adapter/ipma"
	"github.com/meteopt/aviso/internal/config"
	"github.com/meteopt/aviso/internal/monitor"
	"github.com/meteopt/aviso/internal/observability"
)

func main() {
	lat := flag.Float64("lat", 0, "latitude (WGS-84 degrees)")
	lon := flag.Float64("lon", 0, "longitude (WGS-84 degrees)")
	timeout := flag.Duration("timeout", 15*time.Second, "overall timeout")
	flag.Parse()

	if err := run(*lat, *lon, *timeout); err != nil {
		fmt.Fprintln(os.Stderr, "check:", err)
		os.Exit(1)
	}
}

func run(lat, lon float64, timeout time.Duration) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := observability.NewLogger("error", "text")
	metrics := observability.NewMetrics()
	gateway := ipma.NewClient(cfg.IPMABaseURL, cfg.IPMATimeout, metrics, logger)
	m := monitor.New(gateway, monitor.NopNotifier{}, logger, metrics, clockwork.NewRealClock(), cfg.RefreshInterval)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := m.Refresh(ctx); err != nil {
		return fmt.Errorf("refresh warnings: %w", err)
	}

	a := m.EvaluateAt(lat, lon)

	district := a.District
	if district == "" {
		district = "(outside all districts)"
	}
	verdict := "SAFE"
	if !a.Safe {
		verdict = "UNSAFE"
	}

	fmt.Printf("district: %s\n", district)
	fmt.Printf("area:     %s\n", a.AreaID)
	fmt.Printf("verdict:  %s (%s)\n", verdict, a.LevelName)
	fmt.Printf("reason:   %s\n", a.Reason)
	return nil
}
