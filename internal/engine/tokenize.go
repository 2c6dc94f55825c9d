package engine

import "strings"

// TokenCounter abstracts how a document's token count is derived. The
// default WhitespaceTokenCounter is deliberately simple; the interface
// exists so a real tokenizer can be swapped in without touching the
// pipeline.
type TokenCounter interface {
	Count(text string) uint32
}

// WhitespaceTokenCounter counts whitespace-delimited fields, matching
// the original engine's baseline counter.
type WhitespaceTokenCounter struct{}

func (WhitespaceTokenCounter) Count(text string) uint32 {
	return uint32(len(strings.Fields(text)))
}
