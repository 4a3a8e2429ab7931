// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import "github.com/pdiddy/medsft/pkg/types"

// DateSource names the element a publication date was read from.
type DateSource string

const (
	SourceArticleDate  DateSource = "article_date"
	SourceJournalIssue DateSource = "journal_issue"
	SourceDefault      DateSource = "default"
)

// dateStrategy reads a PubDate from the node at path, relative to Article.
type dateStrategy struct {
	source DateSource
	path   []string
	read   func(node *types.RawRecord) types.PubDate
}

// dateStrategies is the fallback chain for publication dates. Find returns
// the first matching element, so only the first ArticleDate entry is read.
// The journal issue date never supplies a day.
var dateStrategies = []dateStrategy{
	{
		source: SourceArticleDate,
		path:   []string{"ArticleDate"},
		read: func(n *types.RawRecord) types.PubDate {
			return types.PubDate{
				Year:  n.Lookup(types.DefaultYear, "Year"),
				Month: n.Lookup(types.DefaultMonth, "Month"),
				Day:   n.Lookup(types.DefaultDay, "Day"),
			}
		},
	},
	{
		source: SourceJournalIssue,
		path:   []string{"Journal", "JournalIssue", "PubDate"},
		read: func(n *types.RawRecord) types.PubDate {
			return types.PubDate{
				Year:  n.Lookup(types.DefaultYear, "Year"),
				Month: n.Lookup(types.DefaultMonth, "Month"),
				Day:   types.DefaultDay,
			}
		},
	},
}

func extractDate(article *types.RawRecord) types.PubDate {
	date, _ := ResolveDate(article)
	return date
}

// ResolveDate applies the date chain to an Article element and reports
// which source supplied the date.
func ResolveDate(article *types.RawRecord) (types.PubDate, DateSource) {
	for _, s := range dateStrategies {
		if node := article.Find(s.path...); node != nil {
			return s.read(node), s.source
		}
	}
	return types.DefaultPubDate(), SourceDefault
}
