package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MemePool lists pre-generated images; entry i celebrates a streak of i.
type MemePool struct {
	Images []string `yaml:"images"`
}

// LoadMemePool reads a YAML meme pool file.
func LoadMemePool(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read meme pool %s: %w", path, err)
	}
	var pool MemePool
	if err := yaml.Unmarshal(content, &pool); err != nil {
		return nil, fmt.Errorf("failed to parse meme pool %s: %w", path, err)
	}
	if len(pool.Images) == 0 {
		return nil, fmt.Errorf("meme pool %s has no images", path)
	}
	for i, img := range pool.Images {
		if img == "" {
			return nil, fmt.Errorf("meme pool %s: image %d is empty", path, i)
		}
	}
	return pool.Images, nil
}
