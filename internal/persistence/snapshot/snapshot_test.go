package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"

	"liquidsands.ai/internal/game"
)

func TestSaveAndRead(t *testing.T) {
	dir := t.TempDir()
	s := game.Snapshot{
		GameID: "4",
		Player: "ann",
		Turn:   12,
		Fog:    "dynamic",
		Winner: "ann",
		Units:  []game.UnitView{{ID: 1, Owner: "ann", Type: "Camel", I: 2, J: 3, Movement: 1}},
		Chat:   []string{"bob> gg"},
		Fogmap: []string{".#"},

		UpdatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	path, err := Save(dir, s)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Base(path) != "game-4-t00012.snap.zst" {
		t.Fatalf("path=%s", path)
	}

	h, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("header: %v", err)
	}
	if h.Version != Version || h.GameID != "4" || h.Turn != 12 || h.Player != "ann" {
		t.Fatalf("header=%+v", h)
	}

	f, err := Read(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if f.State.Winner != "ann" || len(f.State.Units) != 1 || f.State.Units[0].J != 3 || f.State.Fogmap[0] != ".#" {
		t.Fatalf("state=%+v", f.State)
	}
	if !f.State.UpdatedAt.Equal(s.UpdatedAt) {
		t.Fatalf("updated_at=%v", f.State.UpdatedAt)
	}
}

func TestRead_RejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.snap.zst")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	enc, _ := zstd.NewWriter(f)
	_, _ = enc.Write([]byte("{\"version\":1}\nnot gob"))
	_ = enc.Close()
	_ = f.Close()

	if _, err := Read(path); err == nil {
		t.Fatalf("expected decode error")
	}
	if _, err := Read(filepath.Join(dir, "missing")); !os.IsNotExist(err) {
		t.Fatalf("err=%v want not-exist", err)
	}
}
