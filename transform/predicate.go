package transform

import (
	"regexp"

	"github.com/dekarrin/parsekit/node"
)

// Predicate probes a path (root to the currently-visited node) without
// mutating it, for use by conditional operators and as a traversal guard.
type Predicate func(path node.Path) bool

// IsAnonymous reports whether the visited node's name begins with ':'.
func IsAnonymous(path node.Path) bool {
	return path.Last().IsAnonymous()
}

// IsEmpty reports whether the visited node has no content and no
// children.
func IsEmpty(path node.Path) bool {
	return path.Last().IsEmpty()
}

// IsToken reports whether the visited node is a leaf.
func IsToken(path node.Path) bool {
	return path.Last().IsLeaf()
}

// IsOneOf reports whether the visited node's name is one of names.
func IsOneOf(names ...string) Predicate {
	set := toSet(names)
	return func(path node.Path) bool {
		_, ok := set[path.Last().Name]
		return ok
	}
}

// NotOneOf is the complement of IsOneOf.
func NotOneOf(names ...string) Predicate {
	inner := IsOneOf(names...)
	return func(path node.Path) bool { return !inner(path) }
}

// NameMatches reports whether the visited node's name matches re.
func NameMatches(re *regexp.Regexp) Predicate {
	return func(path node.Path) bool { return re.MatchString(path.Last().Name) }
}

// ContentMatches reports whether the visited node's content matches re.
func ContentMatches(re *regexp.Regexp) Predicate {
	return func(path node.Path) bool { return re.MatchString(path.Last().Content()) }
}

// HasContent reports whether the visited node's content equals s exactly.
func HasContent(s string) Predicate {
	return func(path node.Path) bool { return path.Last().Content() == s }
}

// HasAttr reports whether the visited node carries the named attribute,
// optionally requiring it to equal one of value.
func HasAttr(name string, value ...string) Predicate {
	return func(path node.Path) bool {
		n := path.Last()
		if !n.HasAttrs() {
			return false
		}
		got, ok := n.Attrs().Get(name)
		if !ok {
			return false
		}
		if len(value) == 0 {
			return true
		}
		for _, v := range value {
			if got == v {
				return true
			}
		}
		return false
	}
}

// HasAncestor reports whether any ancestor of the visited node (not
// including itself) has one of the given names.
func HasAncestor(names ...string) Predicate {
	return func(path node.Path) bool { return path.HasAncestor(names...) }
}

// HasDescendant reports whether any descendant of the visited node (not
// including itself) has one of the given names.
func HasDescendant(names ...string) Predicate {
	set := toSet(names)
	return func(path node.Path) bool {
		found := false
		self := path.Last()
		node.Walk(self, func(p node.Path) {
			for _, n := range p {
				if n == self {
					continue
				}
				if _, ok := set[n.Name]; ok {
					found = true
				}
			}
		})
		return found
	}
}

// HasParent reports whether the visited node's immediate parent has one of
// the given names.
func HasParent(names ...string) Predicate {
	set := toSet(names)
	return func(path node.Path) bool {
		parent := path.Parent()
		if parent == nil {
			return false
		}
		_, ok := set[parent.Name]
		return ok
	}
}

// HasChild reports whether any immediate child of the visited node has one
// of the given names.
func HasChild(names ...string) Predicate {
	set := toSet(names)
	return func(path node.Path) bool {
		for _, c := range path.Last().Children() {
			if _, ok := set[c.Name]; ok {
				return true
			}
		}
		return false
	}
}

// HasSibling reports whether any other child of the visited node's parent
// has one of the given names.
func HasSibling(names ...string) Predicate {
	set := toSet(names)
	return func(path node.Path) bool {
		parent := path.Parent()
		if parent == nil {
			return false
		}
		self := path.Last()
		for _, c := range parent.Children() {
			if c == self {
				continue
			}
			if _, ok := set[c.Name]; ok {
				return true
			}
		}
		return false
	}
}

// AnyOf reports whether at least one of preds holds.
func AnyOf(preds ...Predicate) Predicate {
	return func(path node.Path) bool {
		for _, p := range preds {
			if p(path) {
				return true
			}
		}
		return false
	}
}

// AllOf reports whether every one of preds holds.
func AllOf(preds ...Predicate) Predicate {
	return func(path node.Path) bool {
		for _, p := range preds {
			if !p(path) {
				return false
			}
		}
		return true
	}
}

// Neg negates p.
func Neg(p Predicate) Predicate {
	return func(path node.Path) bool { return !p(path) }
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}
