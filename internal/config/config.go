// Package config loads the YAML configuration shared by the client, gateway
// and tooling binaries.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"liquidsands.ai/internal/protocol"
	"liquidsands.ai/internal/visibility"
)

//go:embed config.schema.json
var schemaJSON []byte

const (
	TransportTCP = "tcp"
	TransportWS  = "ws"

	DefaultPort         = 1504
	DefaultTimeout      = 10 * time.Second
	DefaultPollInterval = time.Second
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Player  PlayerConfig  `yaml:"player"`
	Game    GameConfig    `yaml:"game"`
	Journal JournalConfig `yaml:"journal"`
	Stats   StatsConfig   `yaml:"stats"`
	// Snapshot.Dir receives the final session snapshot; empty disables it.
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Status   StatusConfig   `yaml:"status"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	Debug    bool           `yaml:"debug"`
}

type ServerConfig struct {
	Host      string        `yaml:"host"`
	Port      int           `yaml:"port"`
	Transport string        `yaml:"transport"`
	WSURL     string        `yaml:"ws_url"`
	Timeout   time.Duration `yaml:"timeout"`
	MaxRPS    float64       `yaml:"max_rps"`
}

type PlayerConfig struct {
	Name string `yaml:"name"`
}

type GameConfig struct {
	// ID joins an existing game instead of creating one.
	ID           string        `yaml:"id"`
	Name         string        `yaml:"name"`
	Map          string        `yaml:"map"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Fog          string        `yaml:"fog"`
	// Players is how many players must have joined before the owner starts
	// the game.
	Players int `yaml:"players"`
}

type JournalConfig struct {
	Dir      string `yaml:"dir"`
	Disabled bool   `yaml:"disabled"`
}

type StatsConfig struct {
	DB string `yaml:"db"`
}

type SnapshotConfig struct {
	Dir string `yaml:"dir"`
}

type StatusConfig struct {
	Addr string `yaml:"addr"`
}

type GatewayConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Addr is the host:port of the game server.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// FogMode parses Game.Fog; Validate guarantees it succeeds.
func (g GameConfig) FogMode() visibility.Mode {
	m, _ := visibility.ParseMode(g.Fog)
	return m
}

func Load(path string) (Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	return Parse(b)
}

// Parse validates b against the config schema and decodes it over the
// defaults.
func Parse(b []byte) (Config, error) {
	cfg := Defaults()
	if err := validateSchema(b); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:      "localhost",
			Port:      DefaultPort,
			Transport: TransportTCP,
			Timeout:   DefaultTimeout,
		},
		Player: PlayerConfig{Name: "player"},
		Game: GameConfig{
			Name:         "game",
			PollInterval: DefaultPollInterval,
			Fog:          visibility.ModeDynamic.String(),
			Players:      2,
		},
		Journal:  JournalConfig{Dir: "data/journal"},
		Stats:    StatsConfig{DB: "data/stats.db"},
		Snapshot: SnapshotConfig{Dir: "data/snapshots"},
		Gateway:  GatewayConfig{Addr: ":8080"},
	}
}

// Normalize fills zero values with defaults and sanitizes names the server
// would reject.
func (c *Config) Normalize() {
	d := Defaults()
	c.Server.Host = strings.TrimSpace(c.Server.Host)
	if c.Server.Host == "" {
		c.Server.Host = d.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	c.Server.Transport = strings.ToLower(strings.TrimSpace(c.Server.Transport))
	if c.Server.Transport == "" {
		c.Server.Transport = d.Server.Transport
	}
	if c.Server.Transport == TransportWS && c.Server.WSURL == "" {
		c.Server.WSURL = "ws://" + c.Server.Host + ":8080/ws"
	}
	if c.Server.Timeout <= 0 {
		c.Server.Timeout = d.Server.Timeout
	}
	c.Player.Name = protocol.Sanitize(strings.TrimSpace(c.Player.Name))
	if c.Player.Name == "" {
		c.Player.Name = d.Player.Name
	}
	c.Game.Name = protocol.Sanitize(strings.TrimSpace(c.Game.Name))
	if c.Game.Name == "" {
		c.Game.Name = d.Game.Name
	}
	if c.Game.PollInterval <= 0 {
		c.Game.PollInterval = d.Game.PollInterval
	}
	c.Game.Fog = strings.ToLower(strings.TrimSpace(c.Game.Fog))
	if c.Game.Fog == "" {
		c.Game.Fog = d.Game.Fog
	}
	if c.Game.Players <= 0 {
		c.Game.Players = d.Game.Players
	}
}

func (c Config) Validate() error {
	switch c.Server.Transport {
	case TransportTCP, TransportWS:
	default:
		return fmt.Errorf("server.transport: unknown transport %q", c.Server.Transport)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port: out of range: %d", c.Server.Port)
	}
	if c.Server.Transport == TransportWS && !strings.HasPrefix(c.Server.WSURL, "ws://") && !strings.HasPrefix(c.Server.WSURL, "wss://") {
		return fmt.Errorf("server.ws_url: must be a ws:// or wss:// url")
	}
	if c.Server.MaxRPS < 0 {
		return fmt.Errorf("server.max_rps: must be >= 0")
	}
	if _, err := visibility.ParseMode(c.Game.Fog); err != nil {
		return fmt.Errorf("game.fog: %w", err)
	}
	if !c.Journal.Disabled && strings.TrimSpace(c.Journal.Dir) == "" {
		return fmt.Errorf("journal.dir: required unless journal.disabled")
	}
	return nil
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource("config.schema.json", bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = c.Compile("config.schema.json")
	})
	return schema, schemaErr
}

func validateSchema(b []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return err
	}
	var doc any
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return err
	}
	if doc == nil {
		return nil
	}
	// Round-trip through JSON so the validator sees JSON types only.
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return s.Validate(v)
}
