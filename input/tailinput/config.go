package tailinput

import (
	"fmt"

	"github.com/gobwas/glob"
)

// Config defines one group of log files to follow
type Config struct {
	Paths         []string `yaml:"paths"`         // files to follow; rotation is handled by re-opening
	Exclude       []string `yaml:"exclude"`       // glob patterns of paths to skip
	FromBeginning bool     `yaml:"fromBeginning"` // read existing contents instead of starting at the end
}

// Validate checks the file list and compiles the exclusion patterns
func (cfg *Config) Validate() ([]glob.Glob, error) {
	if len(cfg.Paths) == 0 {
		return nil, fmt.Errorf(".paths is empty")
	}
	excludes := make([]glob.Glob, 0, len(cfg.Exclude))
	for index, pattern := range cfg.Exclude {
		compiled, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf(".exclude[%d]: %w", index, err)
		}
		excludes = append(excludes, compiled)
	}
	return excludes, nil
}
