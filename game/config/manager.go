package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/mcp-training/warehouse/game/engine"
	"github.com/wricardo/mcp-training/warehouse/game/puzzle"
	"github.com/wricardo/mcp-training/warehouse/game/service"
)

var (
	ErrConfigNotFound = errors.New("configuration not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// DefaultConfigName is the scenario used when a session names none
const DefaultConfigName = "small"

// Supported scenario formats, in lookup order
var formats = []string{".json", ".hcl", ".txt"}

// Manager handles scenario loading and caching
type Manager struct {
	configDir     string
	defaultConfig *engine.ScenarioConfig
	configs       map[string]*engine.ScenarioConfig
	mu            sync.RWMutex
}

// NewManager creates a new configuration manager
func NewManager(configDir string) (*Manager, error) {
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		configs:   make(map[string]*engine.ScenarioConfig),
	}

	if err := m.loadDefaultConfig(); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	return m, nil
}

// configID strips a known scenario extension from name
func configID(name string) string {
	ext := filepath.Ext(name)
	for _, f := range formats {
		if ext == f {
			return strings.TrimSuffix(name, ext)
		}
	}
	return name
}

// checkName rejects ids that would resolve outside the config directory
func checkName(name string) error {
	id := configID(name)
	if id == "" || id == "." || strings.Contains(id, "..") || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: bad config name %q", ErrInvalidConfig, name)
	}
	return nil
}

// resolve maps a scenario id to the file it loads from. The id may carry its
// extension; without one, .json, .hcl and .txt files are tried in that order.
func (m *Manager) resolve(name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}

	candidates := []string{name}
	if id := configID(name); id == name {
		candidates = candidates[:0]
		for _, f := range formats {
			candidates = append(candidates, name+f)
		}
	}

	for _, filename := range candidates {
		if _, err := os.Stat(filepath.Join(m.configDir, filename)); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", fmt.Errorf("failed to read config file: %w", err)
		}
		return filename, nil
	}

	return "", ErrConfigNotFound
}

// LoadConfig loads a scenario by id. Scenarios are cached by the file they
// resolve to, so "small" and "small.hcl" never shadow each other.
func (m *Manager) LoadConfig(name string) (*engine.ScenarioConfig, error) {
	filename, err := m.resolve(name)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	if config, exists := m.configs[filename]; exists {
		m.mu.RUnlock()
		return config, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if config, exists := m.configs[filename]; exists {
		return config, nil
	}

	config, err := decodeFile(filepath.Join(m.configDir, filename))
	if err != nil {
		return nil, err
	}

	m.configs[filename] = config
	return config, nil
}

// LoadFile reads and validates a scenario file outside any managed directory
func LoadFile(path string) (*engine.ScenarioConfig, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, err
	}
	return decodeFile(path)
}

// decodeFile reads one scenario file according to its extension and validates it
func decodeFile(path string) (*engine.ScenarioConfig, error) {
	var config *engine.ScenarioConfig

	switch filepath.Ext(path) {
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		config = &engine.ScenarioConfig{}
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case ".hcl":
		var err error
		if config, err = decodeHCLFile(path); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	case ".txt":
		p, err := puzzle.ParseFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		config = p.Config()
	default:
		return nil, fmt.Errorf("%w: unsupported scenario format %q", ErrInvalidConfig, filepath.Ext(path))
	}

	if err := engine.ValidateScenarioConfig(config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return config, nil
}

// ListConfigs returns information about all loadable scenarios
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var configs []*service.ConfigInfo
	seen := make(map[string]bool)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id := configID(entry.Name())
		if id == entry.Name() || seen[id] {
			continue
		}
		seen[id] = true

		// list what LoadConfig(id) would actually serve
		filename, err := m.resolve(id)
		if err != nil {
			continue
		}
		config, err := m.LoadConfig(filename)
		if err != nil {
			// Skip invalid configs
			continue
		}

		info := &service.ConfigInfo{
			Filename:     filename,
			ConfigID:     id,
			Name:         config.Name,
			Description:  config.Description,
			Format:       strings.TrimPrefix(filepath.Ext(filename), "."),
			Height:       len(config.Layout),
			ScriptLength: len(engine.ParseMoves(config.Moves)),
			Wide:         config.Wide,
		}
		if grid, err := engine.NewGrid(config.Layout); err == nil {
			info.Width = grid.Width()
			info.Crates = len(grid.Crates())
			info.Wide = info.Wide || grid.IsWide()
		}
		configs = append(configs, info)
	}

	sort.Slice(configs, func(i, j int) bool { return configs[i].ConfigID < configs[j].ConfigID })
	return configs, nil
}

// GetDefault returns the default scenario
func (m *Manager) GetDefault() *engine.ScenarioConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultConfig
}

// SetDefault sets the default scenario by id
func (m *Manager) SetDefault(name string) error {
	config, err := m.LoadConfig(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultConfig = config
	return nil
}

// RefreshCache drops every cached scenario and reloads the default from disk
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.configs = make(map[string]*engine.ScenarioConfig)
	m.mu.Unlock()

	return m.loadDefaultConfig()
}

// ReloadConfig re-reads a single scenario from disk
func (m *Manager) ReloadConfig(name string) error {
	filename, err := m.resolve(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.configs, filename)
	m.mu.Unlock()

	_, err = m.LoadConfig(name)
	return err
}

// Count returns the number of cached scenarios
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.configs)
}

// loadDefaultConfig picks small.* as default, else the first loadable scenario, else the built-in one
func (m *Manager) loadDefaultConfig() error {
	config, err := m.LoadConfig(DefaultConfigName)
	if err != nil {
		configs, listErr := m.ListConfigs()
		if listErr != nil || len(configs) == 0 {
			config = engine.DefaultScenario()
		} else if config, err = m.LoadConfig(configs[0].Filename); err != nil {
			config = engine.DefaultScenario()
		}
	}

	m.mu.Lock()
	m.defaultConfig = config
	m.mu.Unlock()
	return nil
}

// SaveConfig writes a scenario to disk as JSON
func (m *Manager) SaveConfig(name string, config *engine.ScenarioConfig) error {
	if err := engine.ValidateScenarioConfig(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := checkName(name); err != nil {
		return err
	}
	id := configID(name)

	configPath := filepath.Join(m.configDir, id+".json")

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	m.mu.Lock()
	m.configs[id+".json"] = config
	m.mu.Unlock()

	return nil
}
