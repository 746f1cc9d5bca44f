package summarizer

import (
	"strings"
	"unicode"
)

// DefaultChunkSize is the chunk budget in words.
const DefaultChunkSize = 900

var abbreviations = []string{
	"Mr.", "Mrs.", "Ms.", "Dr.", "Prof.",
	"Inc.", "Ltd.", "Co.", "Corp.",
	"i.e.", "e.g.", "etc.",
	"vs.", "a.m.", "p.m.",
	"U.S.", "U.K.", "E.U.",
}

// Stands in for the periods of known abbreviations while splitting.
const periodMark = '\uE000'

var (
	protect = newProtector()
	restore = strings.NewReplacer(string(periodMark), ".")
)

func newProtector() *strings.Replacer {
	pairs := make([]string, 0, 2*len(abbreviations))
	for _, abbr := range abbreviations {
		pairs = append(pairs, abbr, strings.ReplaceAll(abbr, ".", string(periodMark)))
	}
	return strings.NewReplacer(pairs...)
}

// ChunkText packs whole sentences into chunks of at most chunkSize words.
// Line breaks become spaces. A sentence longer than chunkSize forms its own
// chunk.
func ChunkText(text string, chunkSize int) []string {
	if chunkSize < 1 {
		chunkSize = DefaultChunkSize
	}
	text = strings.ReplaceAll(text, "\r\n", " ")
	text = strings.ReplaceAll(text, "\n", " ")

	var (
		chunks  []string
		current []string
		words   int
	)
	for _, sentence := range SplitSentences(text) {
		n := len(strings.Fields(sentence))
		if words > 0 && words+n > chunkSize {
			chunks = append(chunks, strings.Join(current, " "))
			current, words = current[:0], 0
		}
		current = append(current, sentence)
		words += n
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}

// SplitSentences splits on '.', '!' or '?' followed by whitespace or the end
// of text. Common abbreviations do not end a sentence.
func SplitSentences(text string) []string {
	runes := []rune(protect.Replace(text))

	var (
		sentences []string
		start     int
	)
	emit := func(end int) {
		s := strings.TrimSpace(string(runes[start:end]))
		if s != "" {
			sentences = append(sentences, restore.Replace(s))
		}
		start = end
	}
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i == len(runes)-1 || unicode.IsSpace(runes[i+1]) {
			emit(i + 1)
		}
	}
	emit(len(runes))
	return sentences
}

// TargetWords is the word budget for a chunk at ratio, at least one.
func TargetWords(chunk string, ratio float64) int {
	target := int(float64(len(strings.Fields(chunk)))*ratio + 0.5)
	if target < 1 {
		return 1
	}
	return target
}
