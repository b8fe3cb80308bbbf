package domain

// IntentKind is the closed set of question categories the classifier emits.
type IntentKind string

const (
	IntentAuthorLookup   IntentKind = "author_lookup"
	IntentTopicLookup    IntentKind = "topic_lookup"
	IntentListing        IntentKind = "listing"
	IntentGeneralConcept IntentKind = "general_concept"
)

// ListTarget names what a listing question enumerates.
type ListTarget string

const (
	ListAuthors  ListTarget = "authors"
	ListKeywords ListTarget = "keywords"
)

// QueryIntent is the classified shape of one question. Exactly one of the
// payload fields is meaningful depending on Kind: Author for author lookups,
// Keyword for topic lookups, Target for listings. GeneralConcept keeps only
// the raw text.
type QueryIntent struct {
	Kind    IntentKind `json:"kind"`
	Author  string     `json:"author,omitempty"`
	Keyword string     `json:"keyword,omitempty"`
	Target  ListTarget `json:"target,omitempty"`
	// Collaboration marks author lookups phrased as co-authorship questions
	// ("who collaborated with X"), which additionally surface co-authors.
	Collaboration bool `json:"collaboration,omitempty"`
}
