package memory

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// ChunkerConfig bounds chunk sizes in tokens.
type ChunkerConfig struct {
	ChunkSize    int
	ChunkOverlap int
}

// Chunker splits prose into token-bounded chunks along paragraph seams.
type Chunker struct {
	config   ChunkerConfig
	encoding *tiktoken.Tiktoken
}

// NewChunker builds a chunker using the cl100k_base encoding.
func NewChunker(config ChunkerConfig) (*Chunker, error) {
	if config.ChunkSize == 0 {
		config.ChunkSize = 512
	}
	if config.ChunkOverlap == 0 {
		config.ChunkOverlap = 50
	}
	encoding, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("get encoding: %w", err)
	}
	return &Chunker{config: config, encoding: encoding}, nil
}

// CountTokens returns the token count for text.
func (c *Chunker) CountTokens(text string) int {
	return len(c.encoding.Encode(text, nil, nil))
}

// Split breaks text into chunks of at most ChunkSize tokens. Paragraphs stay
// intact when they fit; oversized paragraphs are split on sentence ends. The
// tail of each chunk is repeated as overlap at the head of the next.
func (c *Chunker) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var pieces []string
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if c.CountTokens(para) <= c.config.ChunkSize {
			pieces = append(pieces, para)
			continue
		}
		pieces = append(pieces, c.splitLongParagraph(para)...)
	}

	var chunks []string
	var current []string
	currentTokens := 0
	for _, piece := range pieces {
		tokens := c.CountTokens(piece)
		if currentTokens+tokens > c.config.ChunkSize && len(current) > 0 {
			chunk := strings.Join(current, "\n\n")
			chunks = append(chunks, chunk)
			overlap := c.overlapTail(chunk)
			current = current[:0]
			currentTokens = 0
			if overlap != "" {
				current = append(current, overlap)
				currentTokens = c.CountTokens(overlap)
			}
		}
		current = append(current, piece)
		currentTokens += tokens
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, "\n\n"))
	}
	return chunks
}

// splitLongParagraph cuts a paragraph that alone exceeds the chunk size,
// preferring sentence boundaries and falling back to token windows.
func (c *Chunker) splitLongParagraph(para string) []string {
	sentences := splitSentences(para)

	var out []string
	var current strings.Builder
	currentTokens := 0
	for _, sentence := range sentences {
		tokens := c.CountTokens(sentence)
		if tokens > c.config.ChunkSize {
			if current.Len() > 0 {
				out = append(out, strings.TrimSpace(current.String()))
				current.Reset()
				currentTokens = 0
			}
			out = append(out, c.splitByTokens(sentence)...)
			continue
		}
		if currentTokens+tokens > c.config.ChunkSize && current.Len() > 0 {
			out = append(out, strings.TrimSpace(current.String()))
			current.Reset()
			currentTokens = 0
		}
		current.WriteString(sentence)
		current.WriteString(" ")
		currentTokens += tokens
	}
	if current.Len() > 0 {
		out = append(out, strings.TrimSpace(current.String()))
	}
	return out
}

func (c *Chunker) splitByTokens(text string) []string {
	tokens := c.encoding.Encode(text, nil, nil)
	var out []string
	for start := 0; start < len(tokens); start += c.config.ChunkSize {
		end := min(start+c.config.ChunkSize, len(tokens))
		out = append(out, c.encoding.Decode(tokens[start:end]))
	}
	return out
}

// overlapTail returns the final sentences of chunk up to ChunkOverlap tokens.
func (c *Chunker) overlapTail(chunk string) string {
	sentences := splitSentences(chunk)
	var tail []string
	tokens := 0
	for i := len(sentences) - 1; i >= 0; i-- {
		t := c.CountTokens(sentences[i])
		if tokens+t > c.config.ChunkOverlap {
			break
		}
		tail = append([]string{sentences[i]}, tail...)
		tokens += t
	}
	return strings.TrimSpace(strings.Join(tail, " "))
}

func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?', '\n':
			end := i + 1
			s := strings.TrimSpace(text[start:end])
			if s != "" {
				sentences = append(sentences, s)
			}
			start = end
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
