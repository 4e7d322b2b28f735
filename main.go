package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"time"

	"github.com/push04/FlowForge/experiment"
	flow "github.com/push04/FlowForge/flow-engine"
	"github.com/push04/FlowForge/terminal"
	"github.com/push04/FlowForge/websocket"
)

func main() {
	ui := flag.String("ui", "term", "frontend to run (term or web)")
	addr := flag.String("a", ":5000", "address to serve (host:port)")
	prefix := flag.String("p", "/", "prefix path under")
	root := flag.String("r", "./web", "root path to serve")
	catalogFile := flag.String("c", "", "TOML experiment catalog overriding the built-in one")
	key := flag.String("x", "uniform", "experiment to start with")
	count := flag.Int("n", 0, "particle count override")
	flag.Parse()

	catalog := experiment.Default()
	if *catalogFile != "" {
		var err error
		catalog, err = experiment.Load(*catalogFile)
		if err != nil {
			log.Fatalln(err)
		}
	}
	exp, err := catalog.Find(*key)
	if err != nil {
		log.Fatalln(err)
	}
	params := exp.Preset
	if *count > 0 {
		params.ParticleCount = *count
	}

	sim := flow.NewSimulation(flow.DefaultWidth, flow.DefaultHeight, params,
		rand.NewSource(time.Now().UnixNano()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	switch *ui {
	case "web":
		srv := websocket.NewServer(sim, catalog)
		go sim.Run(ctx)
		err = srv.Serve(&websocket.HttpParams{
			Address: *addr,
			Prefix:  *prefix,
			Root:    *root,
		})
	case "term":
		term := terminal.New(sim)
		go sim.Run(ctx)
		err = term.Render()
	default:
		log.Fatalf("unknown ui %q (want term or web)", *ui)
	}
	if err != nil {
		log.Fatalln(err)
	}
}
