// Package query turns query text into weighted analyzed terms and loads query
// files, one query per line.
package query

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/ranking-lab/internal/index/tokenizer"
)

// Term is one distinct analyzed query term and how often it occurred.
type Term struct {
	Text   string
	Weight int
}

// Query is a parsed text query. ID is the zero-based line number when the
// query came from a file.
type Query struct {
	ID    int
	Text  string
	Terms []Term
}

// Length is the total query term count, repeats included.
func (q Query) Length() int {
	n := 0
	for _, t := range q.Terms {
		n += t.Weight
	}
	return n
}

// Empty reports whether the query produced no indexable terms.
func (q Query) Empty() bool {
	return len(q.Terms) == 0
}

// Parse analyzes text with the index tokenizer. Terms are sorted so that
// iteration order, and therefore floating-point summation order, is stable.
func Parse(text string) Query {
	q := Query{Text: text}
	counts := tokenizer.Counts(text)
	if len(counts) == 0 {
		return q
	}
	q.Terms = make([]Term, 0, len(counts))
	for term, n := range counts {
		q.Terms = append(q.Terms, Term{Text: term, Weight: n})
	}
	sort.Slice(q.Terms, func(i, j int) bool {
		return q.Terms[i].Text < q.Terms[j].Text
	})
	return q
}

// Load reads one query per line. Blank lines keep their id but carry no terms.
func Load(path string) ([]Query, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening query file %s: %w", path, err)
	}
	defer f.Close()

	var queries []Query
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		q := Parse(strings.TrimSpace(scanner.Text()))
		q.ID = len(queries)
		queries = append(queries, q)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading query file %s: %w", path, err)
	}
	return queries, nil
}
