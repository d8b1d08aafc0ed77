package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDir(t *testing.T) {
	home, _ := os.UserHomeDir()
	got := Dir("table-1")
	want := filepath.Join(home, ".mesa", "tables", "table-1")
	if got != want {
		t.Errorf("Dir(table-1) = %q, want %q", got, want)
	}
}

func TestStateDBPath(t *testing.T) {
	got := StateDBPath("table-2")
	if !strings.HasSuffix(got, filepath.Join("tables", "table-2", "state.db")) {
		t.Errorf("StateDBPath(table-2) = %q, want suffix tables/table-2/state.db", got)
	}
}

func TestLockPath(t *testing.T) {
	got := LockPath("table-1")
	if !strings.HasSuffix(got, filepath.Join("tables", "table-1", "LOCK")) {
		t.Errorf("LockPath(table-1) = %q, want suffix tables/table-1/LOCK", got)
	}
}
