package render

import (
	"html"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jewelry-identifier/api/internal/format"
	"jewelry-identifier/api/internal/jewel"
)

func TestTerminal(t *testing.T) {
	out := Terminal("Analysis", format.Analysis("1. Basic\n- Type: Ring\n- shiny\nplain text"))

	assert.Contains(t, out, "Analysis")
	assert.Contains(t, out, "Basic")
	assert.Contains(t, out, "Type:")
	assert.Contains(t, out, "Ring")
	assert.Contains(t, out, "•")
	assert.Contains(t, out, "plain text")
	assert.NotContains(t, out, "1.")
}

func TestTerminalEmpty(t *testing.T) {
	assert.Equal(t, "", Terminal("", nil))
}

func TestTelegramHTMLEscapes(t *testing.T) {
	msgs := TelegramHTML("", []format.Block{
		{Kind: format.SectionHeader, Text: "Gold & <Silver>"},
		{Kind: format.LabeledField, Label: "Metal", Value: "18k <rose>"},
		{Kind: format.BulletItem, Text: "a&b"},
		{Kind: format.Paragraph, Text: "x > y"},
	})
	require.Len(t, msgs, 1)
	assert.Equal(t,
		"<b>Gold &amp; &lt;Silver&gt;</b>\n<b>Metal:</b> 18k &lt;rose&gt;\n• a&amp;b\nx &gt; y",
		msgs[0])
}

func TestTelegramHTMLDefaultAnalysisFitsOneMessage(t *testing.T) {
	msgs := TelegramHTML(jewel.Title, format.Analysis(jewel.DefaultAnalysis))
	require.Len(t, msgs, 1)
	assert.True(t, strings.HasPrefix(msgs[0], "<b>"))
}

func TestSplit(t *testing.T) {
	line := strings.Repeat("a", 40)
	lines := make([]string, 10)
	for i := range lines {
		lines[i] = line
	}

	msgs := split(lines, 100)
	require.Len(t, msgs, 5)
	for _, m := range msgs {
		assert.LessOrEqual(t, utf8.RuneCountInString(m), 100)
	}
	assert.Equal(t, strings.Join(lines, ""), strings.ReplaceAll(strings.Join(msgs, ""), "\n", ""))
}

func TestWrap(t *testing.T) {
	assert.Equal(t, []string{"<b>a&amp;b</b>"}, wrap("", "<b>", "a&b", "</b>", 100))
	assert.Equal(t, []string{"• xy", "z"}, wrap("• ", "", "xyz", "", 4))
	assert.Equal(t, []string{"<b></b>"}, wrap("", "<b>", "", "</b>", 10))
}

func TestTelegramHTMLLongBlocksKeepMarkupBalanced(t *testing.T) {
	msgs := TelegramHTML("", []format.Block{
		{Kind: format.SectionHeader, Text: strings.Repeat("Gold & Silver ", 400)},
		{Kind: format.LabeledField, Label: "Notes", Value: strings.Repeat("я&", 3000)},
		{Kind: format.Paragraph, Text: strings.Repeat("<p>", 2000)},
	})
	require.Greater(t, len(msgs), 3)
	for i, m := range msgs {
		assert.LessOrEqual(t, utf8.RuneCountInString(m), TelegramLimit, "part %d", i)
		assert.Equal(t, strings.Count(m, "<b>"), strings.Count(m, "</b>"), "part %d", i)

		plain := strings.NewReplacer("<b>", "", "</b>", "").Replace(m)
		assert.NotContains(t, plain, "<", "part %d", i)
		assert.Equal(t, html.EscapeString(html.UnescapeString(plain)), plain, "part %d", i)
	}
	assert.True(t, strings.HasPrefix(msgs[0], "<b>Gold &amp; Silver"))
}
