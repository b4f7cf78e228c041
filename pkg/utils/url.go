package utils

import (
	"errors"
	"net/url"
	"strings"
)

const appPathMarker = "/app/"

// ErrNoItemID is returned when a URL does not carry a store app id.
var ErrNoItemID = errors.New("url does not contain a store app id")

// PageKind classifies a resolved store URL.
type PageKind int

const (
	PageOther PageKind = iota
	PageProduct
	PageAgeCheck
)

func (k PageKind) String() string {
	switch k {
	case PageProduct:
		return "product"
	case PageAgeCheck:
		return "agecheck"
	default:
		return "other"
	}
}

// ItemID extracts the app id from a store URL such as
// https://store.steampowered.com/app/1234/Some_Game/.
func ItemID(rawURL string) (string, error) {
	i := strings.Index(rawURL, appPathMarker)
	if i < 0 {
		return "", ErrNoItemID
	}
	rest := rawURL[i+len(appPathMarker):]
	if j := strings.IndexAny(rest, "/?#"); j >= 0 {
		rest = rest[:j]
	}
	if rest == "" {
		return "", ErrNoItemID
	}
	return rest, nil
}

// Classify tells product pages, age-check interstitials and foreign pages apart.
func Classify(rawURL string) PageKind {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host != "store.steampowered.com" {
		return PageOther
	}
	switch {
	case strings.HasPrefix(u.Path, "/app/"):
		return PageProduct
	case strings.HasPrefix(u.Path, "/agecheck/app/"):
		return PageAgeCheck
	default:
		return PageOther
	}
}

// IsAgeCheck reports whether rawURL points at an age-check interstitial.
func IsAgeCheck(rawURL string) bool {
	return Classify(rawURL) == PageAgeCheck
}
