// Package config provides the YAML configuration schema, loader, and file
// watcher for Phonofix rule overrides, correction policies, and term
// dictionaries.
//
// The core library is configured in code; this package serves deployments
// that manage dictionaries and rule tables as files. Records map one-to-one
// onto library options: load a [Config], feed [Config.Rules] fields into the
// language EngineConfigs, and pass [Config.TermDict] and
// [Config.CorrectorOptions] to NewCorrector.
package config

import "github.com/JonesHong/phonofix"

// Config is the root configuration record. It is typically loaded from a
// YAML file using [Load] or from bytes using [Parse].
type Config struct {
	// FailPolicy controls whether backend and build failures propagate or
	// degrade. Empty keeps the library default (degrade).
	FailPolicy phonofix.FailPolicy `yaml:"fail_policy"`

	// Mode selects the diagnostic level. Evaluation mode emits warning
	// events for rejected near-miss candidates and forces fail_policy to
	// raise.
	Mode phonofix.Mode `yaml:"mode"`

	// MaxInputRunes bounds the length of a single Correct input. Zero
	// keeps the library default.
	MaxInputRunes int `yaml:"max_input_runes"`

	// ProtectedTerms lists surface substrings no rewrite may touch.
	ProtectedTerms []string `yaml:"protected_terms"`

	// CrossLingual maps surfaces that span scripts to their canonical
	// replacements, applied by the router before language segmentation.
	CrossLingual map[string]string `yaml:"cross_lingual"`

	// Languages carries per-language rule-table overrides keyed by BCP 47
	// primary subtag (zh, en, ja).
	Languages map[phonofix.Lang]LanguageRules `yaml:"languages"`

	// Terms is the term dictionary, keyed by canonical surface form.
	Terms map[string]TermEntry `yaml:"terms"`
}

// LanguageRules is one language's rule-table overrides. Overrides merge
// into the engine's built-in tables at engine construction; fields that
// belong to another language are ignored.
type LanguageRules struct {
	// SurfaceVariants toggles generated fuzzy variants for dictionary
	// terms. Nil keeps the language default: on for Chinese and Japanese,
	// off for English, where every variant costs a subprocess round trip.
	SurfaceVariants *bool `yaml:"surface_variants"`

	// RepresentativeVariants enables aggressive spelling and letter-number
	// confusions in the generator. English only.
	RepresentativeVariants bool `yaml:"representative_variants"`

	// SpecialSyllables adds one-way syllable confusion edges on top of the
	// built-in Pinyin table. Keys are observed syllables, values intended
	// ones. Chinese only.
	SpecialSyllables map[string][]string `yaml:"special_syllables"`

	// StickyPhrases adds whole-phrase slur rules. Keys are canonical
	// phrases, values slurred renditions. Chinese only.
	StickyPhrases map[string][]string `yaml:"sticky_phrases"`

	// RegionalAliases adds whole-word shorthand rules. Keys are canonical
	// names, values shorthands. Chinese only.
	RegionalAliases map[string][]string `yaml:"regional_aliases"`

	// PhonemePairs adds bidirectional IPA confusion pairs on top of the
	// built-in voicing and vowel-length tables. English only.
	PhonemePairs [][2]string `yaml:"phoneme_pairs"`

	// MishearSplits adds whole-word split rules. Keys are lowercase words,
	// values misheard renditions. English only.
	MishearSplits map[string][]string `yaml:"mishear_splits"`

	// RomajiVariants adds romanisation rewrite pairs, each
	// {variant, standard}, applied during key normalisation. Japanese only.
	RomajiVariants [][2]string `yaml:"romaji_variants"`

	// KanjiHomophones adds same-reading wrong spellings keyed by canonical
	// term. Japanese only.
	KanjiHomophones map[string][]string `yaml:"kanji_homophones"`
}

// TermEntry is one canonical term's dictionary record. Zero values defer to
// the library's normalisation defaults.
type TermEntry struct {
	// Aliases are known alternative surfaces rewritten to the canonical.
	Aliases []string `yaml:"aliases"`

	// Keywords require context before the term may match.
	Keywords []string `yaml:"keywords"`

	// ExcludeWhen rejects the term when any listed word is in context.
	ExcludeWhen []string `yaml:"exclude_when"`

	// Weight in [0, 1] shifts candidate scores in the term's favour.
	Weight float64 `yaml:"weight"`

	// MaxVariants caps generated fuzzy variants. Zero means the library
	// default.
	MaxVariants int `yaml:"max_variants"`
}

// Rules returns lang's override record, the zero record when none is
// configured.
func (c *Config) Rules(lang phonofix.Lang) LanguageRules {
	return c.Languages[lang]
}

// TermDict converts the configured terms into the dictionary form accepted
// by NewCorrector.
func (c *Config) TermDict() phonofix.TermDict {
	dict := make(phonofix.TermDict, len(c.Terms))
	for canonical, e := range c.Terms {
		dict[canonical] = phonofix.TermConfig{
			Aliases:     e.Aliases,
			Keywords:    e.Keywords,
			ExcludeWhen: e.ExcludeWhen,
			Weight:      e.Weight,
			MaxVariants: e.MaxVariants,
		}
	}
	return dict
}

// CorrectorOptions maps the policy fields onto corrector options. Unset
// fields are skipped so the library defaults apply.
func (c *Config) CorrectorOptions() []phonofix.CorrectorOption {
	var opts []phonofix.CorrectorOption
	if len(c.ProtectedTerms) > 0 {
		opts = append(opts, phonofix.WithProtectedTerms(c.ProtectedTerms...))
	}
	if c.FailPolicy != "" {
		opts = append(opts, phonofix.WithFailPolicy(c.FailPolicy))
	}
	if c.Mode != "" {
		opts = append(opts, phonofix.WithMode(c.Mode))
	}
	if c.MaxInputRunes > 0 {
		opts = append(opts, phonofix.WithMaxInputRunes(c.MaxInputRunes))
	}
	return opts
}
