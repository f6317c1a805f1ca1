package sanitize

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// formatReadability drops empty paragraphs and flattens stray line
// breaks inside paragraphs.
func formatReadability(region *goquery.Selection) {
	region.Find("p br").Each(func(_ int, br *goquery.Selection) {
		br.ReplaceWithHtml(" ")
	})

	region.Find("p").Each(func(_ int, p *goquery.Selection) {
		if p.Find("img, iframe, blockquote").Length() > 0 {
			return
		}
		text := strings.TrimSpace(strings.ReplaceAll(p.Text(), " ", " "))
		if text == "" {
			p.Remove()
		}
	})
}

// splitSentenceParagraphs breaks multi-sentence paragraphs into one
// paragraph per sentence. Paragraphs holding media are left alone.
func splitSentenceParagraphs(region *goquery.Selection) {
	region.Find("p").Each(func(_ int, p *goquery.Selection) {
		if p.Find("img, iframe, blockquote").Length() > 0 {
			return
		}
		html, err := p.Html()
		if err != nil {
			return
		}
		sentences := splitHTMLSentences(html)
		if len(sentences) < 2 {
			return
		}
		var b strings.Builder
		for _, s := range sentences {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			b.WriteString("<p>")
			b.WriteString(s)
			b.WriteString("</p>")
		}
		p.ReplaceWithHtml(b.String())
	})
}

// splitHTMLSentences splits paragraph HTML on sentence-ending periods.
// Periods inside tags do not end a sentence, and a period only counts
// when followed by whitespace, a tag, or the end of the text.
func splitHTMLSentences(html string) []string {
	var sentences []string
	var current strings.Builder
	inTag := false

	runes := []rune(html)
	for i, r := range runes {
		current.WriteRune(r)

		switch r {
		case '<':
			inTag = true
		case '>':
			inTag = false
		}

		if r == '.' && !inTag {
			next := rune(0)
			if i+1 < len(runes) {
				next = runes[i+1]
			}
			if next == 0 || next == ' ' || next == '\t' || next == '<' {
				sentences = append(sentences, current.String())
				current.Reset()
			}
		}
	}
	if strings.TrimSpace(current.String()) != "" {
		sentences = append(sentences, current.String())
	}
	return sentences
}
