package shareustc

import (
	"strings"

	"github.com/google/uuid"
)

// PathMatcher decides whether a request path falls under a rule.
type PathMatcher interface {
	Match(path string) bool
}

// Prefix matches any path starting with the given string.
type Prefix string

func (p Prefix) Match(path string) bool { return strings.HasPrefix(path, string(p)) }

// Exact matches a single path.
type Exact string

func (e Exact) Match(path string) bool { return path == string(e) }

// ResourcePublicGet matches the publicly readable shapes of a resource collection:
//
//	/{root}/{collection}
//	/{root}/{collection}/search
//	/{root}/{collection}/{uuid}
//	/{root}/{collection}/{uuid}/{download|content|like|comments}
type ResourcePublicGet struct {
	Root       string
	Collection string
}

var resourcePublicSubpaths = map[string]struct{}{
	"download": {},
	"content":  {},
	"like":     {},
	"comments": {},
}

func (r ResourcePublicGet) Match(path string) bool {
	segs := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(segs) < 2 || segs[0] != r.Root || segs[1] != r.Collection {
		return false
	}

	switch len(segs) {
	case 2:
		return true
	case 3:
		return segs[2] == "search" || isUUID(segs[2])
	case 4:
		_, ok := resourcePublicSubpaths[segs[3]]
		return ok && isUUID(segs[2])
	default:
		return false
	}
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// PathRule marks matching requests as public. An empty Methods list accepts
// every method. Exclude lists path prefixes that the rule never covers.
type PathRule struct {
	Matcher PathMatcher
	Methods []string
	Exclude []string
}

func (r PathRule) allows(path, method string) bool {
	for _, ex := range r.Exclude {
		if strings.HasPrefix(path, ex) {
			return false
		}
	}

	if len(r.Methods) > 0 {
		found := false
		for _, m := range r.Methods {
			if strings.EqualFold(m, method) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return r.Matcher != nil && r.Matcher.Match(path)
}

// PathPolicy is an ordered set of public-access rules. A request is public
// when any rule allows it; everything else is protected.
type PathPolicy struct {
	rules []PathRule
}

func NewPathPolicy(rules ...PathRule) *PathPolicy {
	return &PathPolicy{rules: append([]PathRule(nil), rules...)}
}

// DefaultPathPolicy returns the platform's public routes.
func DefaultPathPolicy() *PathPolicy {
	return NewPathPolicy(
		PathRule{Matcher: Prefix("/api/auth/"), Exclude: []string{"/api/auth/logout"}},
		PathRule{Matcher: Exact("/api/health"), Methods: []string{"GET"}},
		PathRule{Matcher: Prefix("/api/courses"), Methods: []string{"GET"}},
		PathRule{Matcher: Prefix("/api/teachers"), Methods: []string{"GET"}},
		PathRule{Matcher: ResourcePublicGet{Root: "api", Collection: "resources"}, Methods: []string{"GET"}},
		PathRule{Matcher: Prefix("/api/users/"), Methods: []string{"GET"}, Exclude: []string{"/api/users/me"}},
	)
}

// IsPublic reports whether path/method may be served without credentials.
func (p *PathPolicy) IsPublic(path, method string) bool {
	for _, r := range p.rules {
		if r.allows(path, method) {
			return true
		}
	}
	return false
}
