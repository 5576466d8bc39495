// Package index holds a minimal in-memory inverted index built from a line
// corpus: one document per line, document ids assigned in line order.
package index

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/ranking-lab/internal/index/tokenizer"
)

const maxLineBytes = 16 * 1024 * 1024

type MemoryIndex struct {
	mu           sync.RWMutex
	postings     map[string]PostingList
	corpusCounts map[string]int64
	docLengths   []int
	uniqueTerms  []int
	names        []string
	totalTerms   int64
	digest       hash.Hash
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		postings:     make(map[string]PostingList),
		corpusCounts: make(map[string]int64),
		digest:       sha256.New(),
	}
}

// Build reads corpusPath (one document per line) and, when metadataPath is not
// empty, a parallel file of document names (one per line).
func Build(corpusPath, metadataPath string) (*MemoryIndex, error) {
	logger := slog.Default().With("component", "index")
	var names []string
	if metadataPath != "" {
		var err error
		names, err = readLines(metadataPath)
		if err != nil {
			return nil, fmt.Errorf("reading metadata: %w", err)
		}
	}

	f, err := os.Open(corpusPath)
	if err != nil {
		return nil, fmt.Errorf("opening corpus %s: %w", corpusPath, err)
	}
	defer f.Close()

	idx := NewMemoryIndex()
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		id := uint64(len(idx.docLengths))
		name := ""
		if int(id) < len(names) {
			name = strings.TrimSpace(names[id])
		}
		idx.AddDocument(name, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning corpus %s: %w", corpusPath, err)
	}
	logger.Info("index built",
		"corpus", corpusPath,
		"docs", idx.NumDocs(),
		"terms", len(idx.postings),
		"avg_doc_length", idx.AvgDocLength(),
	)
	return idx, nil
}

// AddDocument indexes text as the next document and returns its id.
func (m *MemoryIndex) AddDocument(name, text string) uint64 {
	counts := tokenizer.Counts(text)
	length := 0
	for _, n := range counts {
		length += n
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := uint64(len(m.docLengths))
	for term, freq := range counts {
		m.postings[term] = append(m.postings[term], Posting{DocID: id, Frequency: freq})
		m.corpusCounts[term] += int64(freq)
	}
	m.docLengths = append(m.docLengths, length)
	m.uniqueTerms = append(m.uniqueTerms, len(counts))
	m.names = append(m.names, name)
	m.totalTerms += int64(length)
	fmt.Fprintf(m.digest, "%d\x00%s\x00%s\n", len(name), name, text)
	return id
}

// Fingerprint identifies the indexed content: the same documents added in the
// same order give the same value.
func (m *MemoryIndex) Fingerprint() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return hex.EncodeToString(m.digest.Sum(nil)[:16])
}

// Postings returns the posting list for term. The slice is shared and must
// not be modified.
func (m *MemoryIndex) Postings(term string) PostingList {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.postings[term]
}

func (m *MemoryIndex) DocFreq(term string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.postings[term])
}

func (m *MemoryIndex) CorpusTermCount(term string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.corpusCounts[term]
}

func (m *MemoryIndex) NumDocs() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docLengths)
}

func (m *MemoryIndex) TotalTerms() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalTerms
}

func (m *MemoryIndex) AvgDocLength() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.docLengths) == 0 {
		return 0
	}
	return float64(m.totalTerms) / float64(len(m.docLengths))
}

func (m *MemoryIndex) DocLength(docID uint64) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if docID >= uint64(len(m.docLengths)) {
		return 0
	}
	return m.docLengths[docID]
}

func (m *MemoryIndex) UniqueTerms(docID uint64) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if docID >= uint64(len(m.uniqueTerms)) {
		return 0
	}
	return m.uniqueTerms[docID]
}

// Name returns the document's display name, falling back to doc-<id>.
func (m *MemoryIndex) Name(docID uint64) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if docID < uint64(len(m.names)) && m.names[docID] != "" {
		return m.names[docID]
	}
	return "doc-" + strconv.FormatUint(docID, 10)
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}
