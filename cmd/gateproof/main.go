// Command gateproof is the server side of the gateproof protocol: it
// hands out signed proof-of-work challenges and redeems solved responses
// for pass tokens.
package main

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/facebookgo/flagenv"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GateproofHQ/gateproof"
	"github.com/GateproofHQ/gateproof/internal"
	"github.com/GateproofHQ/gateproof/lib/gate"
	"github.com/GateproofHQ/gateproof/lib/issuer"
)

var (
	bind                     = flag.String("bind", ":8923", "network address to bind HTTP to")
	challengeDifficulty      = flag.Int64("difficulty", gateproof.DefaultDifficulty, "difficulty of the challenge, as expected hash attempts")
	challengeTTL             = flag.Duration("challenge-ttl", gateproof.ChallengeDefaultTTL, "how long an issued challenge stays solvable")
	configFname              = flag.String("config-fname", "", "full path to the gateproof config file (defaults to an in-memory store)")
	ed25519PrivateKeyHex     = flag.String("ed25519-private-key-hex", "", "private key used to sign challenges and pass tokens, if not set a random one will be assigned")
	ed25519PrivateKeyHexFile = flag.String("ed25519-private-key-hex-file", "", "file name containing value for ed25519-private-key-hex")
	metricsBind              = flag.String("metrics-bind", ":9090", "network address to bind metrics to")
	passTTL                  = flag.Duration("pass-ttl", gateproof.PassDefaultTTL, "how long a minted pass token stays valid")
	slogLevel                = flag.String("slog-level", "INFO", "logging level (see https://pkg.go.dev/log/slog#hdr-Levels)")
	websiteID                = flag.String("website-id", "", "identifier of the issuing context embedded in challenges")
	versionFlag              = flag.Bool("version", false, "print gateproof version")
)

func loadKey() (ed25519.PrivateKey, error) {
	switch {
	case *ed25519PrivateKeyHex != "" && *ed25519PrivateKeyHexFile != "":
		return nil, fmt.Errorf("do not specify both ED25519_PRIVATE_KEY_HEX and ED25519_PRIVATE_KEY_HEX_FILE")
	case *ed25519PrivateKeyHex != "":
		return issuer.KeyFromHex(*ed25519PrivateKeyHex)
	case *ed25519PrivateKeyHexFile != "":
		data, err := os.ReadFile(*ed25519PrivateKeyHexFile)
		if err != nil {
			return nil, fmt.Errorf("can't read ED25519_PRIVATE_KEY_HEX_FILE %s: %w", *ed25519PrivateKeyHexFile, err)
		}
		return issuer.KeyFromHex(string(bytes.TrimSpace(data)))
	default:
		seed := make([]byte, ed25519.SeedSize)
		if _, err := rand.Read(seed); err != nil {
			return nil, err
		}
		slog.Warn("generating random key, challenges will not survive a restart, set ED25519_PRIVATE_KEY_HEX", "seed", hex.EncodeToString(seed))
		return ed25519.NewKeyFromSeed(seed), nil
	}
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

	cfg := gate.DefaultFileConfig()
	if *configFname != "" {
		var err error
		cfg, err = gate.LoadFile(*configFname)
		if err != nil {
			log.Fatalf("can't load config file: %v", err)
		}
	}

	if *websiteID != "" {
		cfg.WebsiteID = *websiteID
	}
	if cfg.Difficulty == 0 {
		cfg.Difficulty = *challengeDifficulty
	}

	priv, err := loadKey()
	if err != nil {
		log.Fatalf("can't load signing key: %v", err)
	}

	st, err := cfg.Store.Build(ctx)
	if err != nil {
		log.Fatalf("can't build store backend %q: %v", cfg.Store.Backend, err)
	}

	iss, err := issuer.New(issuer.Options{
		PrivateKey: priv,
		WebsiteID:  cfg.WebsiteID,
		Difficulty: cfg.Difficulty,
		TTL:        *challengeTTL,
	})
	if err != nil {
		log.Fatalf("can't build issuer: %v", err)
	}

	srv, err := gate.New(gate.Options{
		Issuer:       iss,
		PrivateKey:   priv,
		Store:        st,
		ChallengeTTL: *challengeTTL,
		PassTTL:      *passTTL,
	})
	if err != nil {
		log.Fatalf("can't build server: %v", err)
	}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		slog.Debug("metrics server listening", "bind", *metricsBind)
		if err := http.ListenAndServe(*metricsBind, mux); err != nil && err != http.ErrServerClosed {
			log.Fatalf("metrics server failed: %v", err)
		}
	}()

	h := &http.Server{
		Addr:    *bind,
		Handler: srv,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := h.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown failed", "err", err)
		}
	}()

	slog.Info("gateproof listening",
		"version", gateproof.Version,
		"bind", *bind,
		"websiteId", cfg.WebsiteID,
		"difficulty", cfg.Difficulty,
		"store", cfg.Store.Backend,
		"publicKey", iss.PublicKey().Hex(),
	)

	if err := h.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
