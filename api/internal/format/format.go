// Package format turns free-form analysis text into display blocks.
package format

import (
	"regexp"
	"strings"
)

type Kind string

const (
	SectionHeader Kind = "section_header"
	LabeledField  Kind = "labeled_field"
	BulletItem    Kind = "bullet_item"
	Paragraph     Kind = "paragraph"
)

// Block is one rendered unit of an analysis. Label and Value are set only for LabeledField.
type Block struct {
	Kind  Kind   `json:"kind"`
	Text  string `json:"text,omitempty"`
	Label string `json:"label,omitempty"`
	Value string `json:"value,omitempty"`
}

var (
	reNumbered   = regexp.MustCompile(`^\d+\.`)
	// RE2's \s is ASCII only, so Unicode spaces and the BOM are listed explicitly
	reNumberLead = regexp.MustCompile(`^\d+\.[\s\p{Zs}\x{2028}\x{2029}\x{FEFF}]*`)
	markup       = strings.NewReplacer("*", "", "_", "", "#", "", "`", "")
)

// Analysis splits text into lines and classifies each one. Never returns nil.
func Analysis(text string) []Block {
	lines := strings.Split(text, "\n")
	out := make([]Block, 0, len(lines))
	for _, line := range lines {
		if b, ok := Line(line); ok {
			out = append(out, b)
		}
	}
	return out
}

// Line classifies a single line; ok is false when nothing is left after cleanup.
func Line(line string) (Block, bool) {
	clean := strings.TrimSpace(markup.Replace(line))
	if clean == "" {
		return Block{}, false
	}

	if reNumbered.MatchString(clean) {
		return Block{Kind: SectionHeader, Text: reNumberLead.ReplaceAllString(clean, "")}, true
	}

	// dash+colon is checked first, so a bullet with a colon in its text becomes a field
	if strings.HasPrefix(clean, "-") && strings.Contains(clean, ":") {
		label, value, _ := strings.Cut(clean[1:], ":")
		return Block{
			Kind:  LabeledField,
			Label: strings.TrimSpace(label),
			Value: strings.TrimSpace(value),
		}, true
	}

	if strings.HasPrefix(clean, "-") {
		return Block{Kind: BulletItem, Text: strings.TrimSpace(clean[1:])}, true
	}

	return Block{Kind: Paragraph, Text: clean}, true
}
