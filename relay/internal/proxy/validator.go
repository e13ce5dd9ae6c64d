package proxy

import (
	"fmt"
	"net/url"
	"regexp"
)

// attachmentPattern is anchored at the start only. Anything after the first
// ".html" match, including the appended is/hm pair, is accepted.
var attachmentPattern = regexp.MustCompile(
	`^https://(?:cdn|media)\.discord(?:app)?\.com/attachments/\d+/\d+/.*\.html`,
)

// BuildCandidate appends the is/hm pair to rawURL verbatim, without encoding.
func BuildCandidate(rawURL, is, hm string) string {
	return rawURL + "&is=" + is + "&hm=" + hm
}

// Validate checks a Discord attachment URL and its is/hm signature pair and
// returns the URL that should be fetched. It performs no I/O.
func Validate(rawURL, is, hm string) (*url.URL, error) {
	if is == "" {
		return nil, fmt.Errorf("%w: is", ErrMissingParameter)
	}
	if hm == "" {
		return nil, fmt.Errorf("%w: hm", ErrMissingParameter)
	}
	if rawURL == "" {
		return nil, fmt.Errorf("%w: url", ErrMissingParameter)
	}

	candidate := BuildCandidate(rawURL, is, hm)
	if !attachmentPattern.MatchString(candidate) {
		return nil, ErrPatternMismatch
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedURL, err)
	}

	return parsed, nil
}
