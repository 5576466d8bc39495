package index

// Posting records how often a term occurs in one document.
type Posting struct {
	DocID     uint64
	Frequency int
}

// PostingList is ordered by ascending DocID.
type PostingList []Posting

// Reader is the read side of an index that the ranking engine scores against.
type Reader interface {
	NumDocs() int
	AvgDocLength() float64
	DocLength(docID uint64) int
	UniqueTerms(docID uint64) int
	DocFreq(term string) int
	CorpusTermCount(term string) int64
	TotalTerms() int64
	Postings(term string) PostingList
	Name(docID uint64) string
	Fingerprint() string
}
