package models

// SearchResultRecord is one forum post surfaced by a search results page.
// Link is the canonical identity: two records with the same link are the
// same post, and only the first-extracted copy survives deduplication.
type SearchResultRecord struct {
	Title   *string `json:"title"`
	Snippet *string `json:"snippet"`
	Author  *string `json:"author"`
	Posted  *string `json:"posted"`
	Link    string  `json:"link"`
}

// PostRecord is the full content of one discussion post, typically the
// thread opener. It is produced either by structured extraction or by the
// snapshot parser; consumers cannot tell the origin from the record alone.
type PostRecord struct {
	URL      string  `json:"url"`
	Title    *string `json:"title"`
	Author   *string `json:"author"`
	PostedOn *string `json:"posted_on"`
	Content  *string `json:"content"`
}

// PageBatch is the persisted output for one search results page.
type PageBatch struct {
	Query       string               `json:"query"`
	Page        int                  `json:"page"`
	ResultCount int                  `json:"result_count"`
	Results     []SearchResultRecord `json:"results"`
}

func NewPageBatch(query string, page int, results []SearchResultRecord) *PageBatch {
	if results == nil {
		results = make([]SearchResultRecord, 0)
	}
	return &PageBatch{
		Query:       query,
		Page:        page,
		ResultCount: len(results),
		Results:     results,
	}
}

// Text returns a pointer to s, or nil when s is empty. Optional record
// fields serialize as JSON null instead of "".
func Text(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
