package enrich

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nakshatra-tomar/docmeta/internal/models"
)

// LanguageWords is the stop-word set used to recognize one language.
type LanguageWords struct {
	Language models.Language
	Words    map[string]bool
}

// TopicKeywords maps a topic label to its dictionary terms. Terms containing a
// space are matched as substrings, the others as whole tokens.
type TopicKeywords struct {
	Name     string
	Keywords []string
}

// SubjectTerms is the fallback subject vocabulary used when no topic matched.
type SubjectTerms struct {
	Name  string
	Terms []string
}

// Lexicon holds every static table the analyzers read. A Lexicon is built once
// and shared read-only by all concurrent analyses; nothing mutates it after
// construction.
type Lexicon struct {
	// Ordered by tie-break priority.
	Languages []LanguageWords
	// Ordered: dictionary order breaks confidence ties.
	Topics []TopicKeywords
	// Ordered by tie-break priority.
	Subjects []SubjectTerms

	KeywordStopWords     map[string]bool
	PositiveWords        map[string]bool
	NegativeWords        map[string]bool
	SummaryWords         []string
	AuthorFalsePositives map[string]bool
	PersonFalsePositives map[string]bool
	ExtensionMIMETypes   map[string]string
}

// DefaultLexicon returns the built-in tables.
func DefaultLexicon() *Lexicon {
	return &Lexicon{
		Languages:            buildLanguageWords(),
		Topics:               buildTopicKeywords(),
		Subjects:             buildSubjectTerms(),
		KeywordStopWords:     toSet(buildKeywordStopWords()),
		PositiveWords:        toSet(buildPositiveWords()),
		NegativeWords:        toSet(buildNegativeWords()),
		SummaryWords:         buildSummaryWords(),
		AuthorFalsePositives: toSet([]string{"New York", "Los Angeles", "United States", "John Doe", "Jane Doe"}),
		PersonFalsePositives: toSet([]string{"New York", "Los Angeles", "United States", "North America", "South America", "Middle East"}),
		ExtensionMIMETypes:   buildExtensionMIMETypes(),
	}
}

// lexiconFile is the YAML shape of a lexicon override. Every non-empty section
// replaces the matching built-in table wholesale.
type lexiconFile struct {
	Languages []struct {
		Language string   `yaml:"language"`
		Words    []string `yaml:"words"`
	} `yaml:"languages"`
	Topics []struct {
		Name     string   `yaml:"name"`
		Keywords []string `yaml:"keywords"`
	} `yaml:"topics"`
	Subjects []struct {
		Name  string   `yaml:"name"`
		Terms []string `yaml:"terms"`
	} `yaml:"subjects"`
	KeywordStopWords     []string          `yaml:"keyword_stop_words"`
	PositiveWords        []string          `yaml:"positive_words"`
	NegativeWords        []string          `yaml:"negative_words"`
	SummaryWords         []string          `yaml:"summary_words"`
	AuthorFalsePositives []string          `yaml:"author_false_positives"`
	PersonFalsePositives []string          `yaml:"person_false_positives"`
	ExtensionMIMETypes   map[string]string `yaml:"extension_mime_types"`
}

// LoadLexicon reads a YAML override file on top of DefaultLexicon. An empty
// path returns the defaults.
func LoadLexicon(path string) (*Lexicon, error) {
	lex := DefaultLexicon()
	if path == "" {
		return lex, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon file: %w", err)
	}
	if err := lex.merge(data); err != nil {
		return nil, fmt.Errorf("parse lexicon file %s: %w", path, err)
	}
	return lex, nil
}

func (l *Lexicon) merge(data []byte) error {
	var f lexiconFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return err
	}

	if len(f.Languages) > 0 {
		langs := make([]LanguageWords, 0, len(f.Languages))
		for _, lw := range f.Languages {
			if lw.Language == "" || len(lw.Words) == 0 {
				return fmt.Errorf("language entry needs a name and words")
			}
			langs = append(langs, LanguageWords{Language: models.Language(lw.Language), Words: toSet(lw.Words)})
		}
		l.Languages = langs
	}
	if len(f.Topics) > 0 {
		topics := make([]TopicKeywords, 0, len(f.Topics))
		for _, t := range f.Topics {
			if t.Name == "" || len(t.Keywords) == 0 {
				return fmt.Errorf("topic entry needs a name and keywords")
			}
			topics = append(topics, TopicKeywords{Name: t.Name, Keywords: t.Keywords})
		}
		l.Topics = topics
	}
	if len(f.Subjects) > 0 {
		subjects := make([]SubjectTerms, 0, len(f.Subjects))
		for _, s := range f.Subjects {
			if s.Name == "" || len(s.Terms) == 0 {
				return fmt.Errorf("subject entry needs a name and terms")
			}
			subjects = append(subjects, SubjectTerms{Name: s.Name, Terms: s.Terms})
		}
		l.Subjects = subjects
	}

	replaceSet(&l.KeywordStopWords, f.KeywordStopWords)
	replaceSet(&l.PositiveWords, f.PositiveWords)
	replaceSet(&l.NegativeWords, f.NegativeWords)
	replaceSet(&l.AuthorFalsePositives, f.AuthorFalsePositives)
	replaceSet(&l.PersonFalsePositives, f.PersonFalsePositives)
	if len(f.SummaryWords) > 0 {
		l.SummaryWords = f.SummaryWords
	}
	if len(f.ExtensionMIMETypes) > 0 {
		l.ExtensionMIMETypes = f.ExtensionMIMETypes
	}
	return nil
}

func replaceSet(dst *map[string]bool, words []string) {
	if len(words) > 0 {
		*dst = toSet(words)
	}
}

func toSet(words []string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// --- data builders ---

func buildLanguageWords() []LanguageWords {
	return []LanguageWords{
		{models.LanguageEnglish, toSet([]string{
			"the", "and", "is", "in", "to", "of", "a", "for", "as", "with",
			"this", "that", "by", "from", "they", "we", "you", "or", "an", "are",
		})},
		{models.LanguageSpanish, toSet([]string{
			"el", "la", "de", "que", "y", "en", "un", "es", "se", "no",
			"te", "lo", "le", "da", "su", "por", "son", "con", "para", "al",
		})},
		{models.LanguageFrench, toSet([]string{
			"le", "de", "et", "à", "un", "il", "être", "en", "avoir", "que",
			"pour", "dans", "ce", "son", "une", "sur", "avec", "ne", "se",
		})},
	}
}

func buildTopicKeywords() []TopicKeywords {
	return []TopicKeywords{
		{"Business Strategy", []string{"strategy", "business", "market", "competitive", "growth", "revenue", "profit", "management", "planning", "objectives"}},
		{"Technology", []string{"technology", "software", "digital", "system", "development", "programming", "data", "artificial intelligence", "machine learning", "automation"}},
		{"Healthcare", []string{"health", "medical", "patient", "treatment", "healthcare", "clinical", "diagnosis", "therapy", "medicine", "hospital"}},
		{"Education", []string{"education", "learning", "student", "teacher", "training", "course", "academic", "knowledge", "skill", "development"}},
		{"Finance", []string{"finance", "financial", "investment", "budget", "cost", "expense", "accounting", "economic", "money", "capital"}},
		{"Marketing", []string{"marketing", "advertising", "brand", "customer", "campaign", "promotion", "social media", "engagement", "conversion", "analytics"}},
		{"Research", []string{"research", "study", "analysis", "data", "methodology", "findings", "results", "conclusion", "hypothesis", "experiment"}},
		{"Legal", []string{"legal", "law", "contract", "agreement", "compliance", "regulation", "policy", "terms", "conditions", "liability"}},
		{"Human Resources", []string{"human resources", "employee", "staff", "recruitment", "training", "performance", "benefits", "workplace", "team", "leadership"}},
	}
}

func buildSubjectTerms() []SubjectTerms {
	return []SubjectTerms{
		{"Business", []string{"business", "strategy", "marketing", "sales", "revenue", "profit", "management"}},
		{"Technology", []string{"technology", "software", "digital", "system", "development", "programming", "data"}},
		{"Healthcare", []string{"health", "medical", "patient", "treatment", "healthcare", "clinical", "diagnosis"}},
		{"Education", []string{"education", "training", "learning", "course", "student", "teaching", "academic"}},
	}
}

func buildKeywordStopWords() []string {
	return []string{
		"that", "this", "with", "from", "they", "been", "have", "were", "said", "each",
		"which", "their", "time", "will", "about", "would", "there", "could", "other",
		"after", "first", "well", "water", "very", "what", "know", "while", "here",
		"when", "where", "more", "some", "like", "into", "only", "over", "also",
		"back", "these", "come", "work", "life", "year", "years", "make", "made",
		"good", "much", "take", "than", "many", "most", "such", "long", "way",
		"even", "find", "right", "old", "see", "him", "two", "how", "its", "our",
		"out", "day", "get", "use", "man", "new", "now", "may", "say",
	}
}

func buildPositiveWords() []string {
	return []string{
		"excellent", "great", "amazing", "wonderful", "fantastic", "outstanding", "superb", "brilliant",
		"good", "better", "best", "perfect", "successful", "effective", "efficient", "productive",
		"positive", "optimistic", "confident", "satisfied", "pleased", "happy", "delighted",
		"improved", "enhanced", "increased", "growth", "progress", "achievement", "success",
		"beneficial", "valuable", "useful", "helpful", "advantageous", "profitable", "rewarding",
	}
}

func buildNegativeWords() []string {
	return []string{
		"terrible", "awful", "horrible", "bad", "worse", "worst", "poor", "inadequate",
		"failed", "failure", "unsuccessful", "ineffective", "inefficient", "unproductive",
		"negative", "pessimistic", "disappointed", "unsatisfied", "unhappy", "frustrated",
		"declined", "decreased", "reduced", "loss", "problem", "issue", "challenge",
		"difficult", "hard", "tough", "struggle", "concern", "risk", "threat",
	}
}

func buildSummaryWords() []string {
	return []string{
		"important", "significant", "key", "main", "primary", "essential",
		"critical", "major", "conclusion", "result", "finding",
	}
}

func buildExtensionMIMETypes() map[string]string {
	return map[string]string{
		"txt":  "text/plain",
		"pdf":  "application/pdf",
		"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"jpg":  "image/jpeg",
		"jpeg": "image/jpeg",
		"png":  "image/png",
		"gif":  "image/gif",
	}
}
