package render

import (
	"html"
	"strings"
	"unicode/utf8"

	"jewelry-identifier/api/internal/format"
)

// TelegramLimit stays under the 4096-character cap of a single message.
const TelegramLimit = 3900

// TelegramHTML renders blocks for ParseMode "HTML" and splits the result into
// messages on block boundaries. A block too long for one message is cut on its
// plain text, so every part keeps balanced tags and whole entities.
func TelegramHTML(title string, blocks []format.Block) []string {
	var lines []string
	if title != "" {
		lines = append(lines, wrap("", "<b>", title, "</b>", TelegramLimit)...)
		lines = append(lines, "")
	}
	for i, blk := range blocks {
		switch blk.Kind {
		case format.SectionHeader:
			if i > 0 {
				lines = append(lines, "")
			}
			lines = append(lines, wrap("", "<b>", blk.Text, "</b>", TelegramLimit)...)
		case format.LabeledField:
			label := "<b>" + html.EscapeString(blk.Label) + ":</b> "
			if utf8.RuneCountInString(label) <= TelegramLimit/2 {
				lines = append(lines, wrap(label, "", blk.Value, "", TelegramLimit)...)
				break
			}
			lines = append(lines, wrap("", "<b>", blk.Label+":", "</b>", TelegramLimit)...)
			lines = append(lines, wrap("", "", blk.Value, "", TelegramLimit)...)
		case format.BulletItem:
			lines = append(lines, wrap("• ", "", blk.Text, "", TelegramLimit)...)
		default:
			lines = append(lines, wrap("", "", blk.Text, "", TelegramLimit)...)
		}
	}
	return split(lines, TelegramLimit)
}

// wrap escapes text and encloses it in open/close, cutting it into lines of at
// most limit runes. lead prefixes the first line only.
func wrap(lead, open, text, close string, limit int) []string {
	var (
		out []string
		cur strings.Builder
	)
	pre := lead + open
	room := limit - utf8.RuneCountInString(pre) - utf8.RuneCountInString(close)
	n := 0
	for _, r := range text {
		esc := html.EscapeString(string(r))
		w := utf8.RuneCountInString(esc)
		if n > 0 && n+w > room {
			out = append(out, pre+cur.String()+close)
			cur.Reset()
			n = 0
			pre = open
			room = limit - utf8.RuneCountInString(open) - utf8.RuneCountInString(close)
		}
		cur.WriteString(esc)
		n += w
	}
	return append(out, pre+cur.String()+close)
}

// split packs lines into chunks of at most limit runes. Lines must already fit.
func split(lines []string, limit int) []string {
	var (
		out []string
		cur strings.Builder
		n   int
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
		n = 0
	}
	for _, line := range lines {
		ln := utf8.RuneCountInString(line) + 1
		if n+ln > limit {
			flush()
		}
		cur.WriteString(line)
		cur.WriteString("\n")
		n += ln
	}
	flush()
	return out
}
