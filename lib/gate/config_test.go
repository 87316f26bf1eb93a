package gate

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/GateproofHQ/gateproof/lib/store"
)

func TestStoreConfigValid(t *testing.T) {
	for _, tt := range []struct {
		name string
		cfg  StoreConfig
		err  error
	}{
		{
			name: "no backend",
			cfg:  StoreConfig{},
			err:  ErrNoStoreBackend,
		},
		{
			name: "unknown backend",
			cfg:  StoreConfig{Backend: "punchcards"},
			err:  ErrUnknownStoreBackend,
		},
		{
			name: "memory",
			cfg:  StoreConfig{Backend: "memory"},
			err:  nil,
		},
		{
			name: "bbolt without path",
			cfg:  StoreConfig{Backend: "bbolt"},
			err:  store.ErrBadConfig,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Valid(); !errors.Is(err, tt.err) {
				t.Errorf("got wrong error from Valid, got %v but wanted %v", err, tt.err)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "config.yaml")
	doc := `
website_id: example.com
difficulty: 512
store:
  backend: bbolt
  parameters:
    path: ` + filepath.Join(t.TempDir(), "db") + `
`
	if err := os.WriteFile(fname, []byte(doc), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(fname)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.WebsiteID != "example.com" {
		t.Errorf("wrong website_id: %q", cfg.WebsiteID)
	}
	if cfg.Difficulty != 512 {
		t.Errorf("wrong difficulty: %d", cfg.Difficulty)
	}
	if cfg.Store.Backend != "bbolt" {
		t.Errorf("wrong store backend: %q", cfg.Store.Backend)
	}
}

func TestLoadFileRejectsBadStore(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(fname, []byte("store:\n  backend: punchcards\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFile(fname); !errors.Is(err, ErrUnknownStoreBackend) {
		t.Errorf("wanted ErrUnknownStoreBackend, got: %v", err)
	}
}

func TestBuildMemoryStore(t *testing.T) {
	st, err := StoreConfig{Backend: "memory"}.Build(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if st == nil {
		t.Fatal("Build returned a nil store")
	}
}
