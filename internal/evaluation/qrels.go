package evaluation

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Qrels maps query id -> document id -> graded relevance. Grades <= 0 are
// treated as non-relevant and not stored.
type Qrels struct {
	judgements map[int]map[uint64]int
}

func NewQrels() *Qrels {
	return &Qrels{judgements: make(map[int]map[uint64]int)}
}

// LoadQrels reads "query_id doc_id relevance" lines. Blank lines are skipped.
func LoadQrels(path string) (*Qrels, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening qrels %s: %w", path, err)
	}
	defer f.Close()

	q := NewQrels()
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 3 {
			return nil, fmt.Errorf("qrels %s line %d: expected 3 fields, got %d", path, lineNo, len(fields))
		}
		qid, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("qrels %s line %d: query id: %w", path, lineNo, err)
		}
		docID, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("qrels %s line %d: doc id: %w", path, lineNo, err)
		}
		grade, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("qrels %s line %d: relevance: %w", path, lineNo, err)
		}
		q.Add(qid, docID, grade)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading qrels %s: %w", path, err)
	}
	return q, nil
}

func (q *Qrels) Add(queryID int, docID uint64, grade int) {
	if grade <= 0 {
		return
	}
	docs, ok := q.judgements[queryID]
	if !ok {
		docs = make(map[uint64]int)
		q.judgements[queryID] = docs
	}
	docs[docID] = grade
}

// Grade returns the relevance of docID for queryID, 0 when unjudged.
func (q *Qrels) Grade(queryID int, docID uint64) int {
	return q.judgements[queryID][docID]
}

func (q *Qrels) NumRelevant(queryID int) int {
	return len(q.judgements[queryID])
}

// Grades returns every positive grade judged for queryID.
func (q *Qrels) Grades(queryID int) []int {
	docs := q.judgements[queryID]
	grades := make([]int, 0, len(docs))
	for _, g := range docs {
		grades = append(grades, g)
	}
	return grades
}
