package authorizer

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	arnPrefix     = "arn"
	arnFieldCount = 6
)

// ARN is the parsed form of an execute-api method identifier:
// arn:partition:service:region:account:resource. The resource field keeps any
// embedded colons and slashes (api-id/stage/verb/path).
type ARN struct {
	Partition string
	Service   string
	Region    string
	AccountID string
	Resource  string
}

func ParseARN(s string) (ARN, error) {
	parts := strings.SplitN(s, ":", arnFieldCount)
	if len(parts) != arnFieldCount || parts[0] != arnPrefix {
		return ARN{}, fmt.Errorf("malformed arn %q", s)
	}

	return ARN{
		Partition: parts[1],
		Service:   parts[2],
		Region:    parts[3],
		AccountID: parts[4],
		Resource:  parts[5],
	}, nil
}

// MatchARN reports whether candidate is covered by pattern. Both sides are
// parsed and compared field by field, so a wildcard in one field can never
// bleed into another. Any parse failure is false, never a panic: the matcher
// runs on attacker-controlled input and must fail closed.
func MatchARN(candidate, pattern string) bool {
	c, err := ParseARN(candidate)
	if err != nil {
		return false
	}

	p, err := ParseARN(pattern)
	if err != nil {
		return false
	}

	return p.Covers(c)
}

// Covers reports whether every field of c matches the corresponding pattern
// field of p.
func (p ARN) Covers(c ARN) bool {
	return globMatch(p.Partition, c.Partition) &&
		globMatch(p.Service, c.Service) &&
		globMatch(p.Region, c.Region) &&
		globMatch(p.AccountID, c.AccountID) &&
		globMatch(p.Resource, c.Resource)
}

func globMatch(pattern, value string) bool {
	re, err := compileGlob(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(value)
}

// compileGlob translates a wildcard pattern into an anchored regexp. `*`
// matches any run of characters including the empty one, `?` matches exactly
// one. Everything else is literal: metacharacters such as `+`, `.` or `(`
// that appear in account ids and resource paths are quoted before
// substitution.
func compileGlob(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")

	return regexp.Compile(b.String())
}
