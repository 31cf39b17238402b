package process

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/overlord/pkg/domain"
	"gopkg.in/yaml.v3"
)

// maxLineSize bounds a single command line read from text input.
const maxLineSize = 1 << 20

// CommandFile represents the structure of a YAML or JSON command list.
type CommandFile struct {
	Commands []string `yaml:"commands" json:"commands"`
}

// ParseCommands reads one command per line. Lines are trimmed; empty lines
// and lines starting with '#' are skipped.
func ParseCommands(r io.Reader) ([]domain.CommandSpec, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to read commands: %w", domain.ErrConfig, err)
	}
	return CommandsFromLines(lines), nil
}

// CommandsFromLines applies the same filtering as ParseCommands to an
// in-memory list and assigns 1-based IDs in order.
func CommandsFromLines(lines []string) []domain.CommandSpec {
	specs := make([]domain.CommandSpec, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		specs = append(specs, domain.CommandSpec{ID: len(specs) + 1, Line: trimmed})
	}
	return specs
}

// LoadCommands reads a command list from path. Files ending in .yaml, .yml
// or .json are decoded as CommandFile; anything else is plain text.
func LoadCommands(path string) ([]domain.CommandSpec, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" && ext != ".json" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to open commands: %w", domain.ErrConfig, err)
		}
		defer f.Close()
		return ParseCommands(f)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read commands: %w", domain.ErrConfig, err)
	}

	var file CommandFile
	if ext == ".json" {
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("%w: failed to parse %s: %w", domain.ErrConfig, filepath.Base(path), err)
		}
	} else {
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("%w: failed to parse %s: %w", domain.ErrConfig, filepath.Base(path), err)
		}
	}
	return CommandsFromLines(file.Commands), nil
}
