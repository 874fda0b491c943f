package inventory

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var upper = cases.Upper(language.Und)

// canonicalText trims and NFC-normalizes free text so visually identical
// input produces identical bytes.
func canonicalText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// CanonicalModel is the stored form of a model name. Only intake and edit
// apply it; the matcher compares stored values as they are.
func CanonicalModel(s string) string {
	return upper.String(canonicalText(s))
}

// CanonicalSerial is the stored form of a serial number.
func CanonicalSerial(s string) string {
	return canonicalText(s)
}

// ParseCategory maps user input onto a destination state. It accepts the
// store names used by the original forms ("inventory", "services") as well
// as the category values themselves. ok is false for anything else.
func ParseCategory(s string) (Category, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "available", "inventory":
		return CategoryAvailable, true
	case "service", "services":
		return CategoryService, true
	case "finished":
		return CategoryFinished, true
	}
	return "", false
}

func storeFor(c Category) StoreName {
	switch c {
	case CategoryService:
		return StoreService
	case CategoryFinished:
		return StoreFinished
	case CategorySold:
		return StoreSold
	}
	return StoreAvailable
}
