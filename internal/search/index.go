// Package search provides an in-memory full-text index over article text.
//
// Matching is case-insensitive and forward: a query word matches every
// indexed word it is a prefix of, so "read" finds "reader" and "reading".
// The index is rebuilt from the article list rather than updated in place.
package search

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// Document is one searchable article.
type Document struct {
	ID   string
	Text string
}

// Index maps words to the documents containing them.
type Index struct {
	ids      []string
	terms    []string
	postings map[string][]int
}

var folder = cases.Fold()

// Build indexes docs in order. Documents with empty text are skipped.
func Build(docs []Document) *Index {
	idx := &Index{postings: make(map[string][]int)}

	for _, doc := range docs {
		if strings.TrimSpace(doc.Text) == "" {
			continue
		}
		pos := len(idx.ids)
		idx.ids = append(idx.ids, doc.ID)

		seen := make(map[string]struct{})
		for _, word := range Tokenize(doc.Text) {
			if _, dup := seen[word]; dup {
				continue
			}
			seen[word] = struct{}{}
			idx.postings[word] = append(idx.postings[word], pos)
		}
	}

	idx.terms = make([]string, 0, len(idx.postings))
	for term := range idx.postings {
		idx.terms = append(idx.terms, term)
	}
	sort.Strings(idx.terms)
	return idx
}

// Len returns the number of indexed documents.
func (idx *Index) Len() int {
	return len(idx.ids)
}

// Search returns up to limit document IDs matching query. Documents matching
// more query words rank first; ties keep indexing order. A blank query
// returns nothing and limit <= 0 means no limit.
func (idx *Index) Search(query string, limit int) []string {
	words := Tokenize(query)
	if len(words) == 0 || len(idx.ids) == 0 {
		return []string{}
	}

	scores := make(map[int]int)
	counted := make(map[string]struct{}, len(words))
	for _, word := range words {
		if _, dup := counted[word]; dup {
			continue
		}
		counted[word] = struct{}{}

		matched := make(map[int]struct{})
		for _, term := range idx.termsWithPrefix(word) {
			for _, pos := range idx.postings[term] {
				matched[pos] = struct{}{}
			}
		}
		for pos := range matched {
			scores[pos]++
		}
	}

	hits := make([]int, 0, len(scores))
	for pos := range scores {
		hits = append(hits, pos)
	}
	sort.Slice(hits, func(i, j int) bool {
		if scores[hits[i]] != scores[hits[j]] {
			return scores[hits[i]] > scores[hits[j]]
		}
		return hits[i] < hits[j]
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	ids := make([]string, len(hits))
	for i, pos := range hits {
		ids[i] = idx.ids[pos]
	}
	return ids
}

func (idx *Index) termsWithPrefix(prefix string) []string {
	start := sort.SearchStrings(idx.terms, prefix)
	end := start
	for end < len(idx.terms) && strings.HasPrefix(idx.terms[end], prefix) {
		end++
	}
	return idx.terms[start:end]
}

// Tokenize splits text into case-folded words of letters and digits.
func Tokenize(text string) []string {
	return strings.FieldsFunc(folder.String(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
