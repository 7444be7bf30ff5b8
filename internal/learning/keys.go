package learning

import (
	"regexp"
	"strings"
)

// patternWords is the number of significant words that make up a pattern key.
const patternWords = 5

var wordSplit = regexp.MustCompile(`[^a-z0-9&]+`)

// noiseWords carry no meaning for categorization. Most are bank rail codes
// printed on nearly every statement line.
var noiseWords = map[string]bool{
	"the": true, "and": true, "for": true, "from": true, "with": true, "via": true,
	"to": true, "of": true, "at": true, "on": true, "by": true,
	"upi": true, "neft": true, "imps": true, "rtgs": true, "ach": true, "pos": true,
	"txn": true, "trf": true, "ref": true, "dr": true, "cr": true, "purchase": true,
	"card": true, "debit": true, "credit": true,
}

// corporateSuffixes are ignored when keying vendors so that "Acme Ltd" and
// "ACME LIMITED" share a mapping.
var corporateSuffixes = map[string]bool{
	"inc": true, "llc": true, "ltd": true, "limited": true, "pvt": true,
	"co": true, "corp": true, "corporation": true, "plc": true, "gmbh": true,
}

// SignificantWords returns the lowercase words of s that can identify a
// counterparty, in order. Words with digits are dropped.
func SignificantWords(s string) []string {
	var words []string
	for _, w := range wordSplit.Split(strings.ToLower(s), -1) {
		if len(w) < 2 || noiseWords[w] || strings.ContainsAny(w, "0123456789") {
			continue
		}
		if w == "&" {
			continue
		}
		words = append(words, w)
	}
	return words
}

// VendorKey normalizes a vendor name into a mapping key. It returns "" when
// nothing meaningful is left.
func VendorKey(vendor string) string {
	words := SignificantWords(vendor)
	kept := words[:0]
	for _, w := range words {
		if !corporateSuffixes[w] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// PatternKey normalizes a description into a mapping key made of its first
// significant words.
func PatternKey(description string) string {
	words := SignificantWords(description)
	if len(words) > patternWords {
		words = words[:patternWords]
	}
	return strings.Join(words, " ")
}
