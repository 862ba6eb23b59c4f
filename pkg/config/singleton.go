package config

import "sync"

// global is the configuration the curator command loaded at startup.
var global struct {
	once sync.Once
	mu   sync.RWMutex
	cfg  *Config
	path string
	err  error
}

// Initialize loads path with environment overrides into the process-wide
// configuration. Only the first call loads. Later calls return the first
// call's error.
func Initialize(path string) error {
	global.once.Do(func() {
		cfg, err := LoadConfigWithEnvOverrides(path)

		global.mu.Lock()
		defer global.mu.Unlock()
		global.err = err
		if err == nil {
			global.cfg, global.path = cfg, path
		}
	})

	global.mu.RLock()
	defer global.mu.RUnlock()
	return global.err
}

// GetConfig returns the configuration loaded by Initialize, or nil.
func GetConfig() *Config {
	global.mu.RLock()
	defer global.mu.RUnlock()
	return global.cfg
}

// LoadedPath returns the file Initialize read. It is empty when the
// configuration came from defaults and environment only.
func LoadedPath() string {
	global.mu.RLock()
	defer global.mu.RUnlock()
	return global.path
}
