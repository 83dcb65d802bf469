package format

import (
	"mime"
	"strconv"
	"strings"
)

// Kind is the closed set of response shapes a client can ask for.
type Kind int

const (
	KindDefault Kind = iota
	KindHTML
	KindFeed
	KindJSON
)

const (
	MimeHTML = "text/html"
	MimeFeed = "application/rss+xml"
	MimeJSON = "application/json"
)

func (k Kind) String() string {
	switch k {
	case KindHTML:
		return MimeHTML
	case KindFeed:
		return MimeFeed
	case KindJSON:
		return MimeJSON
	default:
		return "default"
	}
}

// offers are listed in server preference order.
var offers = []struct {
	mime string
	kind Kind
}{
	{MimeHTML, KindHTML},
	{MimeFeed, KindFeed},
	{MimeJSON, KindJSON},
}

type acceptRange struct {
	typ, sub string
	q        float64
	index    int
}

// Negotiate picks the offer with the highest quality in the Accept header.
// Ties go to the range the client listed first, then to server order. An
// absent header accepts the first offer.
func Negotiate(accept string) Kind {
	accept = strings.TrimSpace(accept)
	if accept == "" {
		return offers[0].kind
	}

	ranges := parseAccept(accept)

	best := KindDefault
	bestQ := 0.0
	bestIndex := len(ranges)
	for _, o := range offers {
		q, index, ok := quality(ranges, o.mime)
		if !ok || q <= 0 {
			continue
		}
		if q > bestQ || (q == bestQ && index < bestIndex) {
			best, bestQ, bestIndex = o.kind, q, index
		}
	}
	return best
}

func parseAccept(accept string) []acceptRange {
	parts := strings.Split(accept, ",")
	ranges := make([]acceptRange, 0, len(parts))
	for i, part := range parts {
		mediaType, params, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		typ, sub, found := strings.Cut(mediaType, "/")
		if !found {
			continue
		}

		q := 1.0
		if raw, ok := params["q"]; ok {
			parsed, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				continue
			}
			q = parsed
		}
		ranges = append(ranges, acceptRange{typ: typ, sub: sub, q: q, index: i})
	}
	return ranges
}

// quality returns the q of the most specific range matching offer.
func quality(ranges []acceptRange, offer string) (float64, int, bool) {
	typ, sub, _ := strings.Cut(offer, "/")

	bestSpecificity := -1
	var q float64
	var index int
	for _, r := range ranges {
		specificity := -1
		switch {
		case r.typ == typ && r.sub == sub:
			specificity = 2
		case r.typ == typ && r.sub == "*":
			specificity = 1
		case r.typ == "*" && r.sub == "*":
			specificity = 0
		}
		if specificity > bestSpecificity {
			bestSpecificity, q, index = specificity, r.q, r.index
		}
	}
	return q, index, bestSpecificity >= 0
}
