// Command gateproof-solve is the client side of the gateproof protocol:
// it takes a challenge, searches for a solution with as many workers as
// the machine offers, and prints or redeems the resulting response.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/facebookgo/flagenv"
	_ "github.com/joho/godotenv/autoload"

	"github.com/GateproofHQ/gateproof"
	"github.com/GateproofHQ/gateproof/internal"
	"github.com/GateproofHQ/gateproof/lib/challenge"
	"github.com/GateproofHQ/gateproof/lib/issuer"
	"github.com/GateproofHQ/gateproof/lib/pow"
)

var (
	challengeHeader = flag.String("challenge", "", "challenge as a Base64URL header value")
	challengeFname  = flag.String("challenge-fname", "", "path of a JSON file containing the challenge")
	serverURL       = flag.String("server-url", "", "base URL of a gateproof server to fetch the challenge from and redeem the response against")
	workers         = flag.Int("workers", 0, "number of search workers, 0 means every available CPU")
	maxNonce        = flag.Int64("max-nonce", gateproof.DefaultMaxNonce, "candidate nonce bound before the search gives up")
	skipSigCheck    = flag.Bool("skip-signature-check", false, "solve even when the challenge signature does not verify")
	showProgress    = flag.Bool("progress", false, "log candidate counts while searching")
	slogLevel       = flag.String("slog-level", "INFO", "logging level (see https://pkg.go.dev/log/slog#hdr-Levels)")
	versionFlag     = flag.Bool("version", false, "print gateproof version")
)

func loadChallenge(ctx context.Context) (challenge.Challenge, error) {
	switch {
	case *challengeHeader != "":
		return challenge.DecodeChallengeHeader(*challengeHeader)

	case *challengeFname != "":
		data, err := os.ReadFile(*challengeFname)
		if err != nil {
			return challenge.Challenge{}, err
		}
		var c challenge.Challenge
		if err := json.Unmarshal(data, &c); err != nil {
			return challenge.Challenge{}, err
		}
		if err := c.Valid(); err != nil {
			return challenge.Challenge{}, err
		}
		return c, nil

	case *serverURL != "":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(*serverURL, "/")+"/challenge", nil)
		if err != nil {
			return challenge.Challenge{}, err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return challenge.Challenge{}, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return challenge.Challenge{}, fmt.Errorf("server returned status %d", resp.StatusCode)
		}
		return challenge.DecodeChallengeHeader(resp.Header.Get(gateproof.ChallengeHeader))

	default:
		return challenge.Challenge{}, fmt.Errorf("one of -challenge, -challenge-fname or -server-url is required")
	}
}

func redeem(ctx context.Context, resp challenge.Response) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSuffix(*serverURL, "/")+"/redeem", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set(gateproof.ResponseHeader, resp.EncodeHeader())

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("server refused the response with status %d", res.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return "", err
	}
	return body["token"], nil
}

func main() {
	flagenv.Parse()
	flag.Parse()

	if *versionFlag {
		fmt.Println("gateproof", gateproof.Version)
		return
	}

	internal.InitSlog(*slogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c, err := loadChallenge(ctx)
	if err != nil {
		log.Fatalf("can't load challenge: %v", err)
	}

	if !issuer.VerifySignature(c) {
		if !*skipSigCheck {
			log.Fatal("challenge signature does not verify, refusing to burn work on it (override with -skip-signature-check)")
		}
		slog.Warn("challenge signature does not verify, solving anyways")
	}

	caps := pow.DetectCapabilities()
	cfg := pow.Config{
		Workers:  *workers,
		MaxNonce: *maxNonce,
	}
	if cfg.Workers == 0 {
		cfg.Workers = int(caps.MaxWorkers)
	}

	slog.Info("solving challenge",
		"websiteId", c.WebsiteID,
		"expires", c.ExpirationTime,
		"workers", cfg.Workers,
		"parallel", caps.ParallelSearchAvailable,
	)

	if *showProgress {
		obs := pow.NewChanObserver(256)
		cfg.Observer = obs
		go func() {
			for report := range obs.C {
				slog.Info("search progress", "worker", report.Worker, "tested", report.Tested)
			}
		}()
	}

	resp, err := pow.Solve(ctx, c, cfg)
	if err != nil {
		log.Fatalf("search failed: %v", err)
	}

	slog.Info("solution found", "solution", resp.Solution)
	fmt.Println(resp.EncodeHeader())

	if *serverURL != "" {
		token, err := redeem(ctx, resp)
		if err != nil {
			log.Fatalf("can't redeem response: %v", err)
		}
		fmt.Println(token)
	}
}
