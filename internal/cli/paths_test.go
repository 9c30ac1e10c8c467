package cli

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/matzehuels/energyatlas/pkg/config"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, ".cache", appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestCacheDirXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/custom-cache")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if want := filepath.Join("/tmp/custom-cache", appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestResolveCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")

	tests := []struct {
		name string
		cfg  config.Cache
		want string
	}{
		{"configured", config.Cache{Dir: "/var/cache/atlas"}, "/var/cache/atlas"},
		{"default", config.Cache{}, filepath.Join("/tmp/xdg", appName)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveCacheDir(tt.cfg)
			if err != nil {
				t.Fatalf("resolveCacheDir() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("resolveCacheDir() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"svg"}},
		{"png", []string{"png"}},
		{"svg, json,,dot ", []string{"svg", "json", "dot"}},
	}
	for _, tt := range tests {
		if got := parseFormats(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseList(t *testing.T) {
	if got := parseList(""); got != nil {
		t.Errorf("parseList(\"\") = %v, want nil", got)
	}
	want := []string{"gdp", "population"}
	if got := parseList(" gdp ,population,"); !reflect.DeepEqual(got, want) {
		t.Errorf("parseList() = %v, want %v", got, want)
	}
}
