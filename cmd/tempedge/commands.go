package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/lox/tempedge/internal/api"
	"github.com/lox/tempedge/internal/market"
	"github.com/lox/tempedge/internal/polymarket"
	"github.com/lox/tempedge/internal/scan"
	sig "github.com/lox/tempedge/internal/signal"
)

type ServeCmd struct {
	Port      string `help:"Override server.port."`
	Autostart bool   `help:"Start scanning immediately instead of waiting for /api/start."`
}

func (c *ServeCmd) Run(g *Globals) error {
	a, err := newApp(g)
	if err != nil {
		return err
	}
	defer a.Close()

	port := a.cfg.Server.Port
	if c.Port != "" {
		port = c.Port
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	server := api.NewServer(a.sched, port)
	if a.store != nil {
		server.SetHistory(a.store)
	}

	if c.Autostart {
		a.sched.Start(ctx)
	} else {
		log.Info().Msg("scheduler: idle until POST /api/start")
	}

	err = server.Run(ctx)
	cancel()
	a.sched.Wait()
	return err
}

type OnceCmd struct{}

func (c *OnceCmd) Run(g *Globals) error {
	a, err := newApp(g)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sum := a.sched.RunCycle(ctx)
	printBoard(a.sched.Board().Snapshot())
	fmt.Printf("\n%d evaluated, %d failed in %s\n", sum.Evaluated, sum.Failed, sum.Duration.Round(time.Millisecond))
	return nil
}

func printBoard(decisions []scan.Decision) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TARGET\tSIGNAL\tREACH\tBREAK\tNOW\tTREND\tMAX\tDEV\tBUCKET\tPRICE\tSTAKE\tCLOSES")
	for _, d := range decisions {
		bucket := d.Market.Bucket
		if bucket == "" {
			bucket = d.Market.Status
		}
		fmt.Fprintf(w, "%s\t%s\t%d%%\t%d%%\t%.1f\t%s\t%s\t%s\t%s\t%s\t%.2f\t%s\n",
			d.ID, sig.ANSI(d.Signal), d.Reach, d.Break, d.Current, d.Trend.Arrow(),
			d.TempDisplay(d.Target), d.DeviationDisplay(), bucket, d.PriceDisplay(), d.Stake, d.Timer)
	}
	w.Flush()
}

type ScanEventCmd struct {
	Event string `arg:"" help:"Event slug or polymarket.com event URL."`
}

func (c *ScanEventCmd) Run(g *Globals) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	client := polymarket.NewClient(cfg.Polymarket.GammaAPIURL, newFetcher(cfg))

	slug := polymarket.CleanSlug(c.Event)
	ev, err := client.FetchEvent(context.Background(), slug)
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s)\n\n", ev.Title, ev.Slug)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LABEL\tRANGE\tPRICE\tCLOSED\tTOKEN")
	for _, m := range ev.Markets {
		rng := "?"
		if r, ok := market.ParseLabel(m.Label()); ok {
			rng = formatRange(r)
		}
		price := "--"
		if p, ok := m.YesPrice(); ok {
			price = fmt.Sprintf("%.3f", p)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%s\n", m.Label(), rng, price, m.Closed, m.YesTokenID())
	}
	return w.Flush()
}

func formatRange(r market.Range) string {
	switch {
	case r.Min == market.OpenLow:
		return fmt.Sprintf("<= %d", r.Max)
	case r.Max == market.OpenHigh:
		return fmt.Sprintf(">= %d", r.Min)
	case r.Min == r.Max:
		return fmt.Sprintf("%d", r.Min)
	}
	return fmt.Sprintf("%d..%d", r.Min, r.Max)
}

type TargetsCmd struct{}

func (c *TargetsCmd) Run(g *Globals) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	targets, err := cfg.ResolveTargets()
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]any{"targets": targets}); err != nil {
		return err
	}
	return enc.Close()
}
