package normalizer

import (
	"regexp"
	"sort"
	"strings"
)

// Package normalizer reverses the spacing and concatenation artifacts PDF
// text extraction tends to produce: words glued together across layout
// boundaries, missing spaces after punctuation, digits fused to words.
// Clean is a pure function and is idempotent.

var (
	whitespaceRun   = regexp.MustCompile(`\s+`)
	lowerThenUpper  = regexp.MustCompile(`([a-z])([A-Z])`)
	letterThenDigit = regexp.MustCompile(`([A-Za-z])([0-9])`)
	sentencePunct   = regexp.MustCompile(`([.!?])([A-Z])`)
	clausePunct     = regexp.MustCompile(`([,;:])([A-Za-z])`)

	// Common morphological prefixes glued to a following capitalized word.
	affixThenUpper = regexp.MustCompile(`\b(pre|post|anti|multi|inter|intra|over|under|sub|semi|non)([A-Z][a-z]+)`)

	// A long lowercase stem glued to a common suffix noun.
	stemThenNoun = regexp.MustCompile(`([a-z]{6,})(system|method|model|theory|process|analysis|structure|function|algorithm|architecture|framework|network)\b`)
)

// compoundTerms maps known concatenated multi-word technical terms (and a
// few glue phrases that show up in lecture PDFs) to their spaced forms.
// Applied case-insensitively, longest entry first.
var compoundTerms = map[string]string{
	"machinelearning":           "machine learning",
	"deeplearning":              "deep learning",
	"artificialintelligence":    "artificial intelligence",
	"naturallanguageprocessing": "natural language processing",
	"computervision":            "computer vision",
	"neuralnetwork":             "neural network",
	"datascience":               "data science",
	"computerscience":           "computer science",
	"informationretrieval":      "information retrieval",
	"reinforcementlearning":     "reinforcement learning",
	"supervisedlearning":        "supervised learning",
	"unsupervisedlearning":      "unsupervised learning",
	"bigdata":                   "big data",
	"softwareengineering":       "software engineering",
	"operatingsystems":          "operating systems",
	"anddeeplearning":           "and deep learning",
	"andcomputervision":         "and computer vision",
	"isanimportantfield":        "is an important field",
	"isanimportanttopic":        "is an important topic",
	"anintroductionto":          "an introduction to",
}

// compoundPatterns is compoundTerms compiled for case-insensitive matching,
// ordered longest first so larger phrases win over embedded smaller ones.
var compoundPatterns = buildCompoundPatterns()

type compoundPattern struct {
	re          *regexp.Regexp
	replacement string
}

func buildCompoundPatterns() []compoundPattern {
	terms := make([]string, 0, len(compoundTerms))
	for term := range compoundTerms {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if len(terms[i]) != len(terms[j]) {
			return len(terms[i]) > len(terms[j])
		}
		return terms[i] < terms[j]
	})

	patterns := make([]compoundPattern, 0, len(terms))
	for _, term := range terms {
		// Pad the spaced form so a replacement never glues onto whatever
		// was adjacent to the matched span; the final whitespace collapse
		// removes the extra spaces.
		patterns = append(patterns, compoundPattern{
			re:          regexp.MustCompile(`(?i)` + term),
			replacement: " " + compoundTerms[term] + " ",
		})
	}
	return patterns
}

// Clean applies the ordered normalization heuristics to text. It never
// fails: any panic during cleaning falls back to returning the input
// unchanged.
func Clean(text string) (cleaned string) {
	if text == "" {
		return ""
	}

	defer func() {
		if r := recover(); r != nil {
			cleaned = text
		}
	}()

	s := whitespaceRun.ReplaceAllString(text, " ")
	s = lowerThenUpper.ReplaceAllString(s, "$1 $2")
	s = letterThenDigit.ReplaceAllString(s, "$1 $2")
	s = sentencePunct.ReplaceAllString(s, "$1 $2")
	s = clausePunct.ReplaceAllString(s, "$1 $2")

	for _, p := range compoundPatterns {
		s = p.re.ReplaceAllString(s, p.replacement)
	}

	s = affixThenUpper.ReplaceAllString(s, "$1 $2")
	s = stemThenNoun.ReplaceAllString(s, "$1 $2")

	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
