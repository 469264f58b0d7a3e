package services

import (
	"github.com/tmc/langchaingo/textsplitter"
)

// Splitter cuts text into chunks of at most chunkSize characters, with
// chunkOverlap characters shared between neighbours. It tries paragraph,
// line and word boundaries before cutting mid-word.
type Splitter struct {
	splitter textsplitter.RecursiveCharacter
}

func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	return &Splitter{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
			textsplitter.WithSeparators([]string{"\n\n", "\n", " ", ""}),
		),
	}
}

func (s *Splitter) Split(text string) ([]string, error) {
	return s.splitter.SplitText(text)
}
