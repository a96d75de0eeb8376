package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"liquidsands.ai/internal/visibility"
)

func TestLoad_ClientYAML(t *testing.T) {
	cfg, err := Load("../../configs/client.yaml")
	if err != nil {
		t.Fatalf("load client.yaml: %v", err)
	}
	if cfg.Server.Addr() != "localhost:1504" {
		t.Fatalf("addr=%s", cfg.Server.Addr())
	}
	if cfg.Server.Timeout != 10*time.Second || cfg.Server.MaxRPS != 20 {
		t.Fatalf("server=%+v", cfg.Server)
	}
	if cfg.Player.Name != "sandwalker" || cfg.Game.Map != "desert" {
		t.Fatalf("player=%+v game=%+v", cfg.Player, cfg.Game)
	}
	if cfg.Game.FogMode() != visibility.ModeDynamic {
		t.Fatalf("fog=%v", cfg.Game.FogMode())
	}
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != DefaultPort || cfg.Server.Transport != TransportTCP {
		t.Fatalf("server=%+v", cfg.Server)
	}
	if cfg.Game.PollInterval != DefaultPollInterval || cfg.Game.Players != 2 {
		t.Fatalf("game=%+v", cfg.Game)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !os.IsNotExist(err) {
		t.Fatalf("err=%v want not-exist", err)
	}
}

func TestParse_NormalizesPartialDocument(t *testing.T) {
	cfg, err := Parse([]byte(`
server:
  transport: ws
  host: example.org
player:
  name: "ann smith!"
game:
  fog: "off"
  poll_interval: 250ms
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Server.Transport != TransportWS || cfg.Server.WSURL != "ws://example.org:8080/ws" {
		t.Fatalf("server=%+v", cfg.Server)
	}
	if cfg.Player.Name != "ann_smith_" {
		t.Fatalf("name=%q", cfg.Player.Name)
	}
	if cfg.Game.FogMode() != visibility.ModeOff || cfg.Game.PollInterval != 250*time.Millisecond {
		t.Fatalf("game=%+v", cfg.Game)
	}
	if cfg.Server.Port != DefaultPort {
		t.Fatalf("port default not applied: %d", cfg.Server.Port)
	}
}

func TestParse_SchemaRejects(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown key", "serverr:\n  host: x\n", "additionalProperties"},
		{"bad port", "server:\n  port: 70000\n", "maximum"},
		{"port as string", "server:\n  port: \"1504\"\n", "integer"},
		{"bad fog", "game:\n  fog: sometimes\n", "fog"},
		{"bad transport", "server:\n  transport: udp\n", "transport"},
		{"negative rps", "server:\n  max_rps: -1\n", "minimum"},
	}
	for _, tc := range cases {
		_, err := Parse([]byte(tc.doc))
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: err=%v want mention of %q", tc.name, err, tc.want)
		}
	}
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	cfg.Normalize()

	bad := cfg
	bad.Server.Transport = TransportWS
	bad.Server.WSURL = "http://x"
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected ws_url error")
	}

	bad = cfg
	bad.Journal.Dir = ""
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected journal.dir error")
	}
	bad.Journal.Disabled = true
	if err := bad.Validate(); err != nil {
		t.Fatalf("disabled journal needs no dir: %v", err)
	}
}
