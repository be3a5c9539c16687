// Package profile manages the specialist agent roster: which agents vote and
// how much each vote counts. Profiles live in a YAML file and hot-reload on
// change, so the roster can be retuned without restarting open sessions.
package profile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"paperdesk/internal/logger"
	"paperdesk/internal/types"
)

// AgentProfile configures one specialist agent's participation.
type AgentProfile struct {
	Enabled bool    `mapstructure:"enabled" yaml:"enabled"`
	Weight  float64 `mapstructure:"weight" yaml:"weight"`
}

// FileConfig maps the agents section of the profile file.
type FileConfig struct {
	Agents map[string]AgentProfile `mapstructure:"agents" yaml:"agents"`
}

// Snapshot is an immutable view of the roster at one load.
type Snapshot struct {
	Version  int64
	LoadedAt time.Time
	Agents   map[types.AgentType]AgentProfile
}

// Weight returns the tally weight for an agent: its configured weight when
// enabled, 0 when disabled, and 1 for agents the file does not mention.
func (s Snapshot) Weight(agent types.AgentType) float64 {
	p, ok := s.Agents[agent]
	if !ok {
		return 1
	}
	if !p.Enabled {
		return 0
	}
	if p.Weight <= 0 {
		return 1
	}
	return p.Weight
}

// ChangeListener fires after a successful reload.
type ChangeListener func(Snapshot)

// Registry owns the profile file and its watch loop.
type Registry struct {
	path string
	v    *viper.Viper

	mu        sync.RWMutex
	snapshot  Snapshot
	listeners []ChangeListener
}

// NewRegistry reads the profile file and starts watching it for changes.
func NewRegistry(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("profile registry requires a path")
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read profile config failed: %w", err)
	}
	r := &Registry{path: path, v: v}
	if err := r.reload(); err != nil {
		return nil, err
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		if err := r.reload(); err != nil {
			logger.Errorf("profile reload failed: %v", err)
			return
		}
		r.notifyListeners()
	})
	v.WatchConfig()
	return r, nil
}

// Defaults builds a registry-free snapshot where every known agent votes
// with weight 1. Used when no profile file is configured.
func Defaults() Snapshot {
	agents := make(map[types.AgentType]AgentProfile, len(types.KnownAgentTypes()))
	for _, a := range types.KnownAgentTypes() {
		agents[a] = AgentProfile{Enabled: true, Weight: 1}
	}
	return Snapshot{Version: 0, LoadedAt: time.Now(), Agents: agents}
}

// Snapshot returns the current roster.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneSnapshot(r.snapshot)
}

// WeightFunc adapts the live roster for the aggregator. Each call reads the
// current snapshot, so a hot reload takes effect on the next evaluation turn.
func (r *Registry) WeightFunc() func(types.AgentType) float64 {
	return func(agent types.AgentType) float64 {
		return r.Snapshot().Weight(agent)
	}
}

// OnChange registers a listener invoked after every successful reload.
func (r *Registry) OnChange(fn ChangeListener) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

func (r *Registry) reload() error {
	cfg, err := readProfileFile(r.path)
	if err != nil {
		return err
	}
	agents := make(map[types.AgentType]AgentProfile, len(cfg.Agents))
	for name, p := range cfg.Agents {
		key := types.AgentType(strings.ToLower(strings.TrimSpace(name)))
		if key == "" {
			continue
		}
		agents[key] = p
	}
	r.mu.Lock()
	r.snapshot = Snapshot{
		Version:  r.snapshot.Version + 1,
		LoadedAt: time.Now(),
		Agents:   agents,
	}
	r.mu.Unlock()
	logger.Infof("Profile registry loaded %d agents from %s", len(agents), filepath.Base(r.path))
	return nil
}

func (r *Registry) notifyListeners() {
	r.mu.RLock()
	snap := cloneSnapshot(r.snapshot)
	listeners := append([]ChangeListener(nil), r.listeners...)
	r.mu.RUnlock()
	for _, fn := range listeners {
		go func(cb ChangeListener) {
			defer safeRecover("profile listener")
			cb(snap)
		}(fn)
	}
}

func cloneSnapshot(src Snapshot) Snapshot {
	dst := Snapshot{
		Version:  src.Version,
		LoadedAt: src.LoadedAt,
		Agents:   make(map[types.AgentType]AgentProfile, len(src.Agents)),
	}
	for k, v := range src.Agents {
		dst.Agents[k] = v
	}
	return dst
}

func safeRecover(tag string) {
	if rec := recover(); rec != nil {
		logger.Errorf("%s panic: %v", tag, rec)
	}
}

func readProfileFile(path string) (FileConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return FileConfig{}, fmt.Errorf("read profile config failed: %w", err)
	}
	var cfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return FileConfig{}, fmt.Errorf("parse profile config failed: %w", err)
	}
	return cfg, nil
}
