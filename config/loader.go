package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JonesHong/phonofix"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [Parse].
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML config from data and validates the result. Unknown
// fields are rejected so misspelled keys fail loudly instead of silently
// keeping a built-in rule table unmodified.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			// An empty file is an empty config.
			return cfg, nil
		}
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.FailPolicy != "" && !cfg.FailPolicy.IsValid() {
		errs = append(errs, fmt.Errorf("fail_policy %q is invalid; valid values: raise, degrade", cfg.FailPolicy))
	}
	if cfg.Mode != "" && !cfg.Mode.IsValid() {
		errs = append(errs, fmt.Errorf("mode %q is invalid; valid values: production, evaluation", cfg.Mode))
	}
	if cfg.Mode == phonofix.ModeEvaluation && cfg.FailPolicy == phonofix.FailDegrade {
		slog.Warn("mode evaluation forces fail_policy raise; the configured degrade will not apply")
	}
	if cfg.MaxInputRunes < 0 {
		errs = append(errs, fmt.Errorf("max_input_runes %d is negative", cfg.MaxInputRunes))
	}

	for surf, canonical := range cfg.CrossLingual {
		if surf == "" {
			errs = append(errs, errors.New("cross_lingual has an empty surface key"))
			continue
		}
		if surf == canonical {
			slog.Warn("cross_lingual maps a surface to itself; the rule is a no-op", "surface", surf)
		}
	}

	for lang, rules := range cfg.Languages {
		prefix := "languages." + string(lang)
		if !lang.IsValid() {
			errs = append(errs, fmt.Errorf("%s is not a supported language; valid values: zh, en, ja", prefix))
			continue
		}
		errs = append(errs, validatePairs(prefix+".phoneme_pairs", rules.PhonemePairs)...)
		errs = append(errs, validatePairs(prefix+".romaji_variants", rules.RomajiVariants)...)
		errs = append(errs, validateRuleMap(prefix+".special_syllables", rules.SpecialSyllables)...)
		errs = append(errs, validateRuleMap(prefix+".sticky_phrases", rules.StickyPhrases)...)
		errs = append(errs, validateRuleMap(prefix+".regional_aliases", rules.RegionalAliases)...)
		errs = append(errs, validateRuleMap(prefix+".mishear_splits", rules.MishearSplits)...)
		errs = append(errs, validateRuleMap(prefix+".kanji_homophones", rules.KanjiHomophones)...)
	}

	for canonical, entry := range cfg.Terms {
		if strings.TrimSpace(canonical) == "" {
			errs = append(errs, errors.New("terms has a blank canonical"))
			continue
		}
		prefix := "terms." + canonical
		if entry.Weight < 0 || entry.Weight > 1 {
			errs = append(errs, fmt.Errorf("%s.weight %v is out of range [0, 1]", prefix, entry.Weight))
		}
		if entry.MaxVariants < 0 {
			errs = append(errs, fmt.Errorf("%s.max_variants %d is negative", prefix, entry.MaxVariants))
		}
		for i, alias := range entry.Aliases {
			if strings.TrimSpace(alias) == "" {
				errs = append(errs, fmt.Errorf("%s.aliases[%d] is blank", prefix, i))
			}
		}
	}

	return errors.Join(errs...)
}

// validatePairs rejects rewrite pairs with an empty match side. Empty
// replacement sides are allowed: they delete the matched letters during key
// normalisation.
func validatePairs(field string, pairs [][2]string) []error {
	var errs []error
	for i, p := range pairs {
		if p[0] == "" {
			errs = append(errs, fmt.Errorf("%s[%d] has an empty match side", field, i))
		}
	}
	return errs
}

// validateRuleMap rejects rule-map entries with blank keys or blank values.
func validateRuleMap(field string, m map[string][]string) []error {
	var errs []error
	for key, values := range m {
		if strings.TrimSpace(key) == "" {
			errs = append(errs, fmt.Errorf("%s has a blank key", field))
			continue
		}
		for i, v := range values {
			if strings.TrimSpace(v) == "" {
				errs = append(errs, fmt.Errorf("%s.%s[%d] is blank", field, key, i))
			}
		}
	}
	return errs
}
