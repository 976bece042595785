package config

import "strings"

// SuffixMode controls the filenames the merged markdown mirrors are written
// under (relative to the primary output tree).
type SuffixMode string

const (
	SuffixModeAuto       SuffixMode = "auto"        // write every applicable spelling
	SuffixModeFileSuffix SuffixMode = "file-suffix" // page.html -> page.html.md
	SuffixModeURLSuffix  SuffixMode = "url-suffix"  // page/ -> page.md
	SuffixModeReplace    SuffixMode = "replace"     // page.html -> page.md
)

// NormalizeSuffixMode canonicalizes user input returning empty string if unknown.
// "both" is accepted as a legacy spelling of auto.
func NormalizeSuffixMode(raw string) SuffixMode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(SuffixModeAuto), "both":
		return SuffixModeAuto
	case string(SuffixModeFileSuffix):
		return SuffixModeFileSuffix
	case string(SuffixModeURLSuffix):
		return SuffixModeURLSuffix
	case string(SuffixModeReplace):
		return SuffixModeReplace
	default:
		return ""
	}
}

// Flavor is the primary builder's path convention.
type Flavor string

const (
	FlavorHTML    Flavor = "html"    // flat: one name.html per document
	FlavorDirHTML Flavor = "dirhtml" // directory URLs: one name/index.html per document
)

// NormalizeFlavor canonicalizes user input returning empty string if unknown.
func NormalizeFlavor(raw string) Flavor {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(FlavorHTML):
		return FlavorHTML
	case string(FlavorDirHTML):
		return FlavorDirHTML
	default:
		return ""
	}
}
