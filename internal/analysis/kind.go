package analysis

import (
	"fmt"
	"strings"
)

// Kind identifies one analysis
type Kind string

const (
	KindVaR          Kind = "var"
	KindSemiVariance Kind = "semivariance"
	KindVariance     Kind = "variance"
	KindDescriptive  Kind = "descriptive"
	KindRates        Kind = "rates"
	KindTrade        Kind = "trade"
)

// ReportKinds are the analyses of the price report, in run order
var ReportKinds = []Kind{KindVaR, KindSemiVariance, KindVariance, KindDescriptive, KindRates}

// String returns the analysis name
func (k Kind) String() string {
	return string(k)
}

// ParseKinds parses a comma-separated list of analysis names. "all" or an
// empty string selects ReportKinds.
func ParseKinds(s string) ([]Kind, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return append([]Kind(nil), ReportKinds...), nil
	}

	var kinds []Kind
	seen := make(map[Kind]bool)
	for _, part := range strings.Split(s, ",") {
		k := Kind(strings.ToLower(strings.TrimSpace(part)))
		switch k {
		case KindVaR, KindSemiVariance, KindVariance, KindDescriptive, KindRates, KindTrade:
		default:
			return nil, fmt.Errorf("unknown analysis %q", part)
		}
		if !seen[k] {
			seen[k] = true
			kinds = append(kinds, k)
		}
	}
	return kinds, nil
}
