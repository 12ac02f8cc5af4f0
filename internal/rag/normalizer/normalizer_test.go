package normalizer

import (
	"strings"
	"testing"
)

func TestCleanCollapsesWhitespace(t *testing.T) {
	got := Clean("a  b\t\tc\n\n d ")
	want := "a b c d"
	if got != want {
		t.Errorf("Clean() = %q, want %q", got, want)
	}
}

func TestCleanWordBoundaryHeuristics(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lower to upper", "endOfSentence", "end Of Sentence"},
		{"letter to digit", "chapter3", "chapter 3"},
		{"sentence punctuation", "done.Next topic", "done. Next topic"},
		{"clause punctuation", "first,second", "first, second"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.input); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanCompoundTerms(t *testing.T) {
	got := Clean("This document covers machinelearningisanimportantfield")
	if !strings.Contains(got, "machine learning is an important field") {
		t.Errorf("Clean() = %q, expected compound terms to be re-split", got)
	}

	got = Clean("Topics include artificialintelligenceanddeeplearning")
	if !strings.Contains(got, "artificial intelligence") || !strings.Contains(got, "deep learning") {
		t.Errorf("Clean() = %q, expected both compound terms re-split", got)
	}
}

func TestCleanCompoundTermsKeepAdjacentTextSeparated(t *testing.T) {
	// Replacements must not glue onto text that touched the matched span,
	// even when a longer phrase is substituted before a shorter one
	// embedded right next to it.
	tests := []struct {
		input string
		want  string
	}{
		{
			"machinelearningisanimportantfield",
			"machine learning is an important field",
		},
		{
			"anintroductiontodeeplearningmodels",
			"an introduction to deep learning models",
		},
	}

	for _, tt := range tests {
		got := Clean(tt.input)
		if !strings.Contains(got, tt.want) {
			t.Errorf("Clean(%q) = %q, want substring %q", tt.input, got, tt.want)
		}
		if strings.Contains(got, "  ") {
			t.Errorf("Clean(%q) = %q, left a double space behind", tt.input, got)
		}
	}
}

func TestCleanSuffixNouns(t *testing.T) {
	got := Clean("The neuralnetworkarchitecture is described here")
	if !strings.Contains(got, "neural network architecture") {
		t.Errorf("Clean() = %q, want %q re-split", got, "neuralnetworkarchitecture")
	}
}

func TestCleanIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"already clean text.",
		"This document covers machinelearningisanimportantfield",
		"Also covers naturallanguageprocessingandcomputervision",
		"And discusses datascience2023applications",
		"preprocessing algorithms and postprocessing methods",
		"The neuralnetworkarchitecture is described here",
		"Including multilingual translation systems",
		"mixedCase,inline:stuff.Another3Things",
	}

	for _, in := range inputs {
		once := Clean(in)
		twice := Clean(once)
		if once != twice {
			t.Errorf("Clean not idempotent for %q:\n once: %q\ntwice: %q", in, once, twice)
		}
	}
}

func TestCleanLeavesOrdinaryPrefixWordsAlone(t *testing.T) {
	got := Clean("preprocessing algorithms and postprocessing methods")
	if !strings.Contains(got, "preprocessing") || !strings.Contains(got, "postprocessing") {
		t.Errorf("Clean() = %q, lowercase affixed words must not be split", got)
	}
}
