package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/avezina/dmhub/internal/client"
	"github.com/avezina/dmhub/internal/config"
	"github.com/avezina/dmhub/internal/play"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadClient()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	var (
		serverURL   = flag.String("server", cfg.ServerURL, "dmhub server base URL")
		apiKey      = flag.String("key", cfg.APIKey, "API key (also DMHUB_API_KEY)")
		campaignID  = flag.Int64("campaign", cfg.CampaignID, "campaign id to play in")
		worldID     = flag.Int64("world", cfg.WorldID, "world id for narrator context")
		wait        = flag.Duration("wait", cfg.StartupWait, "how long to wait for the server to come up")
		targetsPath = flag.String("targets", "", "optional TOML targets file")
		targetName  = flag.String("target", "", "named target from the targets file")
	)
	flag.Parse()

	// Precedence: explicit flags beat the targets file, which beats the
	// environment defaults the flags were seeded with.
	if *targetsPath != "" {
		targets, err := config.LoadTargets(*targetsPath)
		if err != nil {
			log.Fatalf("targets error: %v", err)
		}
		target, err := targets.Resolve(*targetName)
		if err != nil {
			log.Fatalf("targets error: %v", err)
		}
		explicit := map[string]bool{}
		flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
		if !explicit["server"] && target.ServerURL != "" {
			*serverURL = target.ServerURL
		}
		if !explicit["key"] && target.APIKey != "" {
			*apiKey = target.APIKey
		}
		if !explicit["campaign"] && target.CampaignID > 0 {
			*campaignID = target.CampaignID
		}
		if !explicit["world"] && target.WorldID > 0 {
			*worldID = target.WorldID
		}
	}

	cli, err := client.New(client.Options{
		ServerURL:    *serverURL,
		APIKey:       *apiKey,
		PollInterval: cfg.PollInterval,
		StartupWait:  *wait,
	})
	if err != nil {
		log.Fatalf("client error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Println("Checking server connection...")
	if !cli.ProbeOnce(ctx) {
		fmt.Printf("Server not responding yet, waiting up to %s...\n", wait.Round(time.Second))
		if !cli.WaitUntilAvailable(ctx, *wait) {
			log.Fatalf("server at %s did not become available", *serverURL)
		}
	}

	in := bufio.NewScanner(os.Stdin)
	if err := play.PickSession(ctx, cli, *campaignID, *worldID, in, os.Stdout); err != nil {
		log.Fatalf("could not establish a session: %v", err)
	}

	if ref, ok := cli.Session(); ok {
		fmt.Printf("\nSession %d ready. Type your actions; 'exit' or 'quit' ends the session.\n", ref.SessionID)
	}

	if err := play.NewLoop(cli, in, os.Stdout).Run(ctx); err != nil {
		log.Fatalf("session loop failed: %v", err)
	}
}
