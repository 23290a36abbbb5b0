package store

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/maloquacious/tdb/internal/dataset"
)

func writeTable(t *testing.T, dir string, tbl *dataset.Table) {
	t.Helper()
	if err := dataset.WriteFile(TablePath(dir, tbl.Name()), tbl, dataset.CompressionNone); err != nil {
		t.Fatalf("failed to write %s: %v", tbl.Name(), err)
	}
}

func TestCheckExists(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name      string
		setup     func(string) error
		wantExist bool
		wantError bool
	}{
		{
			name: "dataset exists",
			setup: func(dir string) error {
				f, err := os.Create(TablePath(dir, "tpp"))
				if err != nil {
					return err
				}
				return f.Close()
			},
			wantExist: true,
			wantError: false,
		},
		{
			name: "dataset does not exist",
			setup: func(dir string) error {
				return nil
			},
			wantExist: false,
			wantError: false,
		},
		{
			name: "dataset path is directory",
			setup: func(dir string) error {
				return os.Mkdir(TablePath(dir, "tpp"), 0755)
			},
			wantExist: false,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testDir := filepath.Join(tmpDir, tt.name)
			if err := os.Mkdir(testDir, 0755); err != nil {
				t.Fatalf("failed to create test dir: %v", err)
			}

			if err := tt.setup(testDir); err != nil {
				t.Fatalf("setup failed: %v", err)
			}

			exists, err := CheckExists(testDir, "tpp")

			if tt.wantError && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.wantError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if exists != tt.wantExist {
				t.Errorf("got exists=%v, want %v", exists, tt.wantExist)
			}
		})
	}
}

func TestGetDataRoot(t *testing.T) {
	t.Setenv("SKA", "/opt/ska")
	if got, want := GetDataRoot(), filepath.Join("/opt/ska", "data", "Ska.tdb"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	t.Setenv("SKA", "")
	if got, want := GetDataRoot(), filepath.Join(DefaultSKA, "data", "Ska.tdb"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestVersionDir(t *testing.T) {
	if got, want := VersionDir("/data", 14), filepath.Join("/data", "p014"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestListVersions(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{"p014", "p008", "p1000", "px12", "014", "p010"} {
		if err := os.Mkdir(filepath.Join(root, d), 0755); err != nil {
			t.Fatal(err)
		}
	}
	// a file with a version-like name is not a version
	if err := os.WriteFile(filepath.Join(root, "p009"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	got, err := ListVersions(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []int{8, 10, 14}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if _, err := ListVersions(filepath.Join(root, "missing")); err == nil {
		t.Error("expected error for missing root")
	}
}

func TestStoreStateString(t *testing.T) {
	if StateReady.String() != "ready" || StateMissing.String() != "missing" {
		t.Errorf("unexpected state names %q %q", StateReady, StateMissing)
	}
}
