package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/aleister1102/downtime/internal/common/errorwrapper"
	"gopkg.in/yaml.v3"
)

// maxConfigFileSize caps how much of a config file is read.
const maxConfigFileSize = 10 * 1024 * 1024

// defaultConfigNames are tried, in order, in each search directory.
var defaultConfigNames = []string{"config.yaml", "config.yml", "config.json"}

// GetConfigPath returns the first existing config file, searching
// the -config flag, then $DOWNTIME_CONFIG_PATH, then the working directory and
// finally the executable's directory. It returns "" when nothing is found.
func GetConfigPath(configFilePathFlag string) string {
	for _, candidate := range configCandidates(configFilePathFlag) {
		if fileExists(candidate) {
			return candidate
		}
	}
	return ""
}

func configCandidates(flagPath string) []string {
	var candidates []string
	if flagPath != "" {
		candidates = append(candidates, flagPath)
	}
	if envPath := os.Getenv(ConfigPathEnv); envPath != "" {
		candidates = append(candidates, envPath)
	}

	var dirs []string
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, cwd)
	}
	if exe, err := os.Executable(); err == nil {
		if exeDir := filepath.Dir(exe); len(dirs) == 0 || dirs[0] != exeDir {
			dirs = append(dirs, exeDir)
		}
	}
	for _, dir := range dirs {
		for _, name := range defaultConfigNames {
			candidates = append(candidates, filepath.Join(dir, name))
		}
	}
	return candidates
}

func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	return err == nil && !info.IsDir()
}

// readConfigFile reads path and decodes it into cfg, as YAML for .yaml/.yml
// and JSON otherwise. Keys missing from the file keep the values already in cfg.
func readConfigFile(path string, cfg *GlobalConfig) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() > maxConfigFileSize {
		return errorwrapper.NewError("config file '%s' exceeds %d bytes", path, maxConfigFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return errorwrapper.NewError("failed to unmarshal YAML from '%s': %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return errorwrapper.NewError("failed to unmarshal JSON from '%s': %w", path, err)
		}
	}
	return nil
}
