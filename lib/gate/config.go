package gate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/GateproofHQ/gateproof/lib/store"
	_ "github.com/GateproofHQ/gateproof/lib/store/all"
)

var (
	ErrNoStoreBackend      = errors.New("gate.StoreConfig: no backend defined")
	ErrUnknownStoreBackend = errors.New("gate.StoreConfig: unknown backend")
)

// StoreConfig selects and configures a storage backend by registry name.
type StoreConfig struct {
	Backend    string         `json:"backend" yaml:"backend"`
	Parameters map[string]any `json:"parameters" yaml:"parameters"`
}

func (s StoreConfig) rawParameters() (json.RawMessage, error) {
	if s.Parameters == nil {
		return json.RawMessage(`{}`), nil
	}
	return json.Marshal(s.Parameters)
}

func (s StoreConfig) Valid() error {
	var errs []error

	if len(s.Backend) == 0 {
		errs = append(errs, ErrNoStoreBackend)
	}

	fac, ok := store.Get(s.Backend)
	switch ok {
	case true:
		raw, err := s.rawParameters()
		if err != nil {
			errs = append(errs, err)
			break
		}
		if err := fac.Valid(raw); err != nil {
			errs = append(errs, err)
		}
	case false:
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownStoreBackend, s.Backend))
	}

	if len(errs) != 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Build constructs the configured backend.
func (s StoreConfig) Build(ctx context.Context) (store.Interface, error) {
	fac, ok := store.Get(s.Backend)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStoreBackend, s.Backend)
	}

	raw, err := s.rawParameters()
	if err != nil {
		return nil, err
	}

	return fac.Build(ctx, raw)
}

// FileConfig is the server configuration file, parsed as YAML. JSON files
// work too since YAML is a superset of JSON.
type FileConfig struct {
	WebsiteID  string      `json:"website_id" yaml:"website_id"`
	Difficulty int64       `json:"difficulty" yaml:"difficulty"`
	Store      StoreConfig `json:"store" yaml:"store"`
}

func (c FileConfig) Valid() error {
	return c.Store.Valid()
}

// DefaultFileConfig is used when no configuration file is given: a purely
// in-memory store with the built-in difficulty.
func DefaultFileConfig() FileConfig {
	return FileConfig{
		Store: StoreConfig{Backend: "memory"},
	}
}

// LoadFile reads and validates a configuration file.
func LoadFile(fname string) (FileConfig, error) {
	fin, err := os.Open(fname)
	if err != nil {
		return FileConfig{}, fmt.Errorf("can't open config file %s: %w", fname, err)
	}
	defer fin.Close()

	var result FileConfig
	if err := yaml.NewDecoder(fin).Decode(&result); err != nil {
		return FileConfig{}, fmt.Errorf("can't parse config file %s: %w", fname, err)
	}

	if err := result.Valid(); err != nil {
		return FileConfig{}, err
	}

	return result, nil
}
