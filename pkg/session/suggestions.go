package session

import "slices"

var suggestions = []string{
	"リスクを下げたい",
	"もっと詳しく教えて",
	"他の戦略は？",
	"初心者向けに説明して",
}

// Suggestions returns canned prompts offered while the transcript is empty.
func Suggestions() []string {
	return slices.Clone(suggestions)
}
