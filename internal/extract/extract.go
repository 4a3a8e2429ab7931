// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns one raw PubMed article into a NormalizedRecord.
//
// Each field is read through an ordered chain of strategies over the
// record's element tree: the first strategy whose path is present wins and
// later ones are not consulted. A record without a usable abstract is
// reported as unusable instead of producing a partial record.
package extract

import (
	"strings"

	"github.com/pdiddy/medsft/pkg/types"
)

// Reasons attached to unusable results.
const (
	ReasonNilRecord  = "nil record"
	ReasonNoArticle  = "missing MedlineCitation/Article"
	ReasonNoAbstract = "missing abstract"
)

// articlePath locates the Article element under a PubmedArticle root.
var articlePath = []string{"MedlineCitation", "Article"}

// Result is the outcome of extracting one record. OK is false for unusable
// records, in which case Record is the zero value and Reason says why.
type Result struct {
	Record types.NormalizedRecord
	OK     bool
	Reason string
}

func unusable(reason string) Result {
	return Result{Reason: reason}
}

// Extract reads the title, abstract, and publication date from raw.
func Extract(raw *types.RawRecord) Result {
	if raw == nil {
		return unusable(ReasonNilRecord)
	}
	article := raw.Find(articlePath...)
	if article == nil {
		return unusable(ReasonNoArticle)
	}

	abstract, ok := extractAbstract(article)
	if !ok {
		return unusable(ReasonNoAbstract)
	}

	return Result{
		Record: types.NormalizedRecord{
			ArticleTitle:    extractTitle(article),
			ArticleAbstract: abstract,
			PubDate:         extractDate(article),
		},
		OK: true,
	}
}

// extractTitle returns the ArticleTitle text. The default applies only when
// the element is missing; an empty element yields "" so the record is later
// dropped by the training-pair length filter.
func extractTitle(article *types.RawRecord) string {
	title := article.Find("ArticleTitle")
	if title == nil {
		return types.DefaultTitle
	}
	return title.InnerText()
}

// extractAbstract joins every AbstractText fragment with a single space in
// document order. Fragments are joined as found and only the result is
// trimmed. It reports false when there are no fragments or all of them are
// blank.
func extractAbstract(article *types.RawRecord) (string, bool) {
	fragments := article.FindAll("Abstract", "AbstractText")
	if len(fragments) == 0 {
		return "", false
	}

	parts := make([]string, 0, len(fragments))
	for _, f := range fragments {
		parts = append(parts, f.RawText())
	}
	abstract := strings.TrimSpace(strings.Join(parts, " "))
	if abstract == "" {
		return "", false
	}
	return abstract, true
}
