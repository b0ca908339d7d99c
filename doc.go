// Package phonofix corrects proper-noun misspellings introduced by speech
// recognition, LLM output, or human typing by matching candidate spans in a
// phonetic domain rather than a surface-orthographic one.
//
// Callers supply a dictionary of canonical proper nouns with optional
// aliases, context keywords, exclusion keywords, and per-term weights. A
// language engine transforms the input text and every known alias into a
// language-specific phonetic key (Mandarin Pinyin, English IPA, or Japanese
// Romaji), searches for phonetically similar spans with a sliding window,
// and rewrites them to the canonical surface form.
//
// The runtime is layered bottom-up:
//
//  1. Backend (one per language, process-wide) wraps the grapheme-to-phonetic
//     conversion behind a bounded LRU cache. Construction is expensive;
//     conversion is cheap once warm.
//  2. Engine (one per language, long-lived) owns the Backend, tokenizer,
//     fuzzy variant generator, and rule tables, and builds correctors.
//  3. Corrector (one per dictionary, cheap to build) owns the normalized
//     term map, generated variants, and search indices, and exposes Correct.
//
// Language engines live in the chinese, english, and japanese subpackages.
// The router subpackage segments mixed-script input and dispatches each
// segment to the matching corrector.
//
// This package holds the shared vocabulary: term dictionaries and their
// normalisation, correction events, error sentinels, and the fail-policy and
// mode enums. It has no language knowledge of its own.
//
// Correctors, engines, and backends are safe for concurrent use once built.
package phonofix
