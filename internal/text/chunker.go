package text

import (
	"regexp"
	"strings"
)

var headerRe = regexp.MustCompile(`(?m)^#{1,6}\s`)

// ChunkDocument splits extracted document text into embedding-sized pieces.
// Structure is respected top-down: markdown headers first, then blank-line
// paragraphs, then sentences, then words as a last resort. Low-value noise
// chunks are filtered out.
func ChunkDocument(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = 1000
	}

	var chunks []string
	for _, section := range splitSections(text) {
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}
		if len(section) <= maxChars {
			chunks = append(chunks, section)
			continue
		}
		chunks = append(chunks, chunkParagraphs(section, maxChars)...)
	}

	filtered := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if !IsNoiseChunk(c) {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// splitSections cuts the text at markdown headers so a chunk never straddles
// two sections.
func splitSections(text string) []string {
	indices := headerRe.FindAllStringIndex(text, -1)

	var sections []string
	last := 0
	for _, loc := range indices {
		if loc[0] > last {
			sections = append(sections, text[last:loc[0]])
		}
		last = loc[0]
	}
	if last < len(text) {
		sections = append(sections, text[last:])
	}
	return sections
}

func chunkParagraphs(section string, maxChars int) []string {
	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, para := range strings.Split(section, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if current.Len()+len(para)+2 <= maxChars {
			if current.Len() > 0 {
				current.WriteString("\n\n")
			}
			current.WriteString(para)
			continue
		}

		flush()

		if len(para) <= maxChars {
			current.WriteString(para)
			continue
		}

		chunks = append(chunks, chunkSentences(para, maxChars)...)
	}

	flush()
	return chunks
}

// chunkSentences packs sentences up to maxChars; a single oversized sentence
// falls through to a word split.
func chunkSentences(para string, maxChars int) []string {
	var chunks []string
	var current strings.Builder

	for _, sentence := range strings.Split(para, ". ") {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}

		if current.Len()+len(sentence)+2 > maxChars && current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}

		if len(sentence) > maxChars {
			chunks = append(chunks, chunkWords(sentence, maxChars)...)
			continue
		}

		if current.Len() > 0 {
			current.WriteString(". ")
		}
		current.WriteString(sentence)
	}

	if current.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}
	return chunks
}

func chunkWords(s string, maxChars int) []string {
	var chunks []string
	var current strings.Builder

	for _, word := range strings.Fields(s) {
		if current.Len()+len(word)+1 > maxChars && current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

// IsNoiseChunk identifies chunks that are too low-value to embed.
// The heuristics are conservative: a borderline chunk passes through
// rather than risk filtering useful content.
func IsNoiseChunk(content string) bool {
	trimmed := strings.TrimSpace(content)
	if len(trimmed) == 0 {
		return true
	}

	// Ultra-short labels (e.g., "Overview", "Introduction")
	words := strings.Fields(trimmed)
	if len(trimmed) < 30 && len(words) <= 3 && !strings.Contains(trimmed, "\n") {
		return true
	}

	// Copyright/legal boilerplate, unless it is a longer document the user
	// intentionally uploaded
	lower := strings.ToLower(trimmed)
	if strings.Contains(lower, "©") || strings.Contains(lower, "all rights reserved") {
		if len(trimmed) < 200 {
			return true
		}
	}

	return false
}
