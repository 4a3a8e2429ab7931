// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the medsft pipeline.
// Implements: acquisition output (NormalizedRecord, PubDate);
//
//	sft output (TrainingPair);
//	raw source view (RawRecord).
//
// See DESIGN.md § Data Model.
package types

// Field defaults applied when a source record omits a date component.
const (
	DefaultYear  = "2024"
	DefaultMonth = "01"
	DefaultDay   = "01"

	// DefaultTitle is used when a record carries no article title.
	DefaultTitle = "No Title"
)

// PubDate is a publication date kept as the source strings. Month may be
// numeric ("05") or abbreviated ("May") depending on the source record.
type PubDate struct {
	Year  string `json:"year" yaml:"year"`
	Month string `json:"month" yaml:"month"`
	Day   string `json:"day" yaml:"day"`
}

// DefaultPubDate returns a PubDate with every component defaulted.
func DefaultPubDate() PubDate {
	return PubDate{Year: DefaultYear, Month: DefaultMonth, Day: DefaultDay}
}

// NormalizedRecord is the fixed-shape article produced by field extraction.
// ArticleAbstract is never empty for records emitted by the extractor.
type NormalizedRecord struct {
	// ArticleTitle is the article title, or DefaultTitle when the element is
	// absent. An empty element gives "".
	ArticleTitle string `json:"article_title" yaml:"article_title"`

	// ArticleAbstract is the abstract with fragments joined by single spaces.
	ArticleAbstract string `json:"article_abstract" yaml:"article_abstract"`

	// PubDate is the best available publication date.
	PubDate PubDate `json:"pub_date" yaml:"pub_date"`
}

// TrainingPair is one instruction-tuning example.
type TrainingPair struct {
	Instruction string `json:"instruction" yaml:"instruction"`
	Input       string `json:"input" yaml:"input"`
	Output      string `json:"output" yaml:"output"`
}
