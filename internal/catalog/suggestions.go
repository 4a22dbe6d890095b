package catalog

import (
	"context"
	"log"
)

// Suggestions is a fixed popular-search list
type Suggestions []string

func (s Suggestions) PopularSuggestions() []string {
	return append([]string{}, s...)
}

var DefaultSuggestions = Suggestions{"lamp", "chair", "desk", "rug"}

type popularSource interface {
	PopularSearches(ctx context.Context, limit int) ([]string, error)
}

// LoadSuggestions reads the curated list once at startup, falling back to DefaultSuggestions
func LoadSuggestions(ctx context.Context, source popularSource, limit int) Suggestions {
	terms, err := source.PopularSearches(ctx, limit)
	if err != nil {
		log.Printf("load popular searches error, using defaults: %v \n", err)
		return DefaultSuggestions
	}
	if len(terms) == 0 {
		return DefaultSuggestions
	}
	return Suggestions(terms)
}
