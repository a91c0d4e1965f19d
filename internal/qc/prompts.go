package qc

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// RequiredPrompts lists the check names the engine expects to find in
// the prompt catalog.
var RequiredPrompts = []string{
	"formatting",
	"plausibility",
	"single correct answer",
	"structure",
	"depth",
	"precision",
	"textual evidence",
}

// promptEntry is one record of the prompt catalog file.
type promptEntry struct {
	Name   string `json:"name"`
	Prompt string `json:"prompt"`
}

// Catalog holds the quality-control prompt templates keyed by check
// name. A missing catalog file is fatal; individual missing prompts are
// tolerated at load time and fail their check at call time.
type Catalog struct {
	prompts map[string]string
}

// LoadCatalog reads the prompt catalog from path.
func LoadCatalog(path string, log *zap.Logger) (*Catalog, error) {
	if log == nil {
		log = zap.NewNop()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("quality control prompts file not found: %s", path)
	}

	var entries []promptEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("invalid JSON in quality control prompts file: %w", err)
	}

	c := &Catalog{prompts: make(map[string]string, len(entries))}
	for _, e := range entries {
		if e.Name == "" || e.Prompt == "" {
			log.Warn("skipping prompt with missing name or content")
			continue
		}
		c.prompts[e.Name] = e.Prompt
	}
	log.Info("loaded quality control prompts", zap.Int("count", len(c.prompts)))

	var missing []string
	for _, name := range RequiredPrompts {
		if _, ok := c.prompts[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		log.Warn("missing required quality control prompts",
			zap.String("missing", strings.Join(missing, ", ")))
	}

	return c, nil
}

// Get returns the template for a check name.
func (c *Catalog) Get(name string) (string, bool) {
	p, ok := c.prompts[name]
	return p, ok
}

// Len returns the number of loaded prompts.
func (c *Catalog) Len() int { return len(c.prompts) }

var placeholderRe = regexp.MustCompile(`\{[A-Z_]+\}`)

// unfilledPlaceholders returns any uppercase placeholders left in a
// rendered prompt, indicating a template/engine mismatch.
func unfilledPlaceholders(prompt string) []string {
	return placeholderRe.FindAllString(prompt, -1)
}
