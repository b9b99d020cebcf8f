package parser

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Freeze computes the disposable flag, nullability, statefulness, and
// equivalence class of every reachable parser, and locks the
// grammar against further symbol assignment or forward-reference binding.
// It returns an error - without mutating frozen state - if any forward
// reference is unset, if a Drop wraps a non-disposable child, or if a
// ZeroOrMore/OneOrMore body can match the empty string (such a repetition
// would never terminate, so it is rejected here instead of at match time).
func (g *Grammar) Freeze() error {
	if g.frozen {
		return nil
	}
	if g.root == 0 {
		return fmt.Errorf("grammar has no root parser set")
	}

	reachable := g.reachableFrom(g.root)

	for _, id := range reachable {
		p := g.Get(id)
		if p.variant == VForward && !p.forwardSet {
			return fmt.Errorf("forward reference %d (tag %s) was never set", id, p.Tag())
		}
	}

	g.computeDisposable(reachable)
	g.computeNullable(reachable)
	g.computeStateful(reachable)

	if err := g.checkDropCompatibility(reachable); err != nil {
		return err
	}
	if err := g.checkUnguardedRepetition(reachable); err != nil {
		return err
	}

	if err := g.computeEquivalenceClasses(reachable); err != nil {
		return err
	}

	g.frozen = true
	return nil
}

// PrecomputedFreeze is the per-parser result of Freeze that a cache needs
// in order to restore a grammar to frozen state without recomputing
// equivalence classes and the nullability/statefulness fixpoints.
type PrecomputedFreeze struct {
	EqClass    string
	Disposable bool
	Nullable   bool
	Stateful   bool
}

// Precomputed returns id's Freeze-computed bits, for a cache to persist.
// Only meaningful after a successful Freeze.
func (g *Grammar) Precomputed(id ID) PrecomputedFreeze {
	p := g.Get(id)
	return PrecomputedFreeze{
		EqClass:    p.eqClass,
		Disposable: p.disposable,
		Nullable:   p.nullable,
		Stateful:   p.stateful,
	}
}

// ApplyPrecomputed restores Freeze's results from data produced by
// Precomputed on a previous, structurally identical grammar (same parsers
// constructed in the same order, with the same root), skipping the
// equivalence-class hashing and the nullability/statefulness worklists.
// It only checks that data's length matches the arena size and that
// rootID matches; it trusts the caller (a cache keyed by a content hash of
// the construction description) to have verified the grammars actually
// match structurally. checkDropCompatibility and checkUnguardedRepetition
// are skipped too, since a grammar that reached this state once already
// passed them and construction is deterministic.
func (g *Grammar) ApplyPrecomputed(rootID ID, data []PrecomputedFreeze) error {
	if g.frozen {
		return nil
	}
	if g.root == 0 {
		g.root = rootID
	} else if g.root != rootID {
		return fmt.Errorf("root mismatch: grammar root is %d, precomputed data is for root %d", g.root, rootID)
	}
	if len(data) != g.Len() {
		return fmt.Errorf("precomputed freeze data has %d entries, grammar has %d parsers", len(data), g.Len())
	}
	for i, d := range data {
		p := g.arena[i+1]
		p.eqClass = d.EqClass
		p.disposable = d.Disposable
		p.nullable = d.Nullable
		p.stateful = d.Stateful
	}
	g.frozen = true
	return nil
}

func (g *Grammar) reachableFrom(root ID) []ID {
	visited := map[ID]bool{}
	order := []ID{}
	var visit func(ID)
	visit = func(id ID) {
		if id == 0 || visited[id] {
			return
		}
		visited[id] = true
		order = append(order, id)
		for _, c := range g.Get(id).children {
			visit(c)
		}
	}
	visit(root)
	return order
}

func (g *Grammar) computeDisposable(ids []ID) {
	for _, id := range ids {
		p := g.Get(id)
		if p.symbol == "" {
			p.disposable = true
			continue
		}
		p.disposable = g.disposableNameRe.MatchString(p.symbol)
	}
}

// computeNullable is a worklist fixpoint over "can this parser match the
// empty string": start with everything not-nullable, then repeatedly mark
// parsers nullable until no more changes occur.
func (g *Grammar) computeNullable(ids []ID) {
	changed := true
	for changed {
		changed = false
		for _, id := range ids {
			p := g.Get(id)
			if p.nullable {
				continue
			}
			if g.isNullableNow(p) {
				p.nullable = true
				changed = true
			}
		}
	}
}

func (g *Grammar) isNullableNow(p *Parser) bool {
	switch p.variant {
	case VLiteral, VCIText:
		return p.literal == ""
	case VWhitespace:
		return true
	case VRegex:
		return p.regex != nil && p.regex.MatchString("")
	case VCharRange, VNever:
		return false
	case VEndOfInput:
		return true
	case VSequence:
		for _, c := range p.children {
			if !g.Get(c).nullable {
				return false
			}
		}
		return true
	case VAlternative:
		for _, c := range p.children {
			if g.Get(c).nullable {
				return true
			}
		}
		return false
	case VOption, VZeroOrMore:
		return true
	case VOneOrMore, VCounted, VDrop, VSynonym, VForward, VCapture, VRequired:
		return g.Get(p.children[0]).nullable
	case VLookaheadPos, VLookaheadNeg, VLookbehind:
		return true // consumes nothing either way
	case VRetrieve, VPop:
		return false
	default:
		return false
	}
}

func (g *Grammar) computeStateful(ids []ID) {
	changed := true
	for changed {
		changed = false
		for _, id := range ids {
			p := g.Get(id)
			if p.stateful {
				continue
			}
			stateful := false
			switch p.variant {
			case VCapture, VRetrieve, VPop:
				stateful = true
			default:
				for _, c := range p.children {
					if g.Get(c).stateful {
						stateful = true
						break
					}
				}
			}
			if stateful {
				p.stateful = true
				changed = true
			}
		}
	}
}

func (g *Grammar) checkDropCompatibility(ids []ID) error {
	for _, id := range ids {
		p := g.Get(id)
		if p.variant != VDrop {
			continue
		}
		child := g.Get(p.children[0])
		if !child.disposable {
			return fmt.Errorf("drop parser %d wraps non-disposable child %d (%s); drop requires a disposable child", id, child.id, child.Tag())
		}
	}
	return nil
}

func (g *Grammar) checkUnguardedRepetition(ids []ID) error {
	for _, id := range ids {
		p := g.Get(id)
		if p.variant != VZeroOrMore && p.variant != VOneOrMore {
			continue
		}
		if g.Get(p.children[0]).nullable {
			return fmt.Errorf("repetition parser %d (%s) has a body that can match empty input; this would never terminate", id, p.Tag())
		}
	}
	return nil
}

// computeEquivalenceClasses assigns every reachable parser a structural-
// hash key, hashed bottom-up over variant + symbol + payload + children's
// classes. Symbol is folded in so that two structurally identical
// sub-parsers bound to different symbols never collapse into the same
// class - the memo table in parse/driver.go is keyed on this class and
// replays a cache hit's node verbatim, so a shared class across distinct
// symbols would let a hit for one symbol hand back a node named for the
// other. A parser currently being hashed (true cycle through a forward
// reference) falls back to its own Tag as the cycle-breaking anchor,
// rather than recursing forever - recursive non-terminals are already
// distinguished by their own symbol name, so this loses no real sharing
// opportunity.
func (g *Grammar) computeEquivalenceClasses(ids []ID) error {
	inProgress := map[ID]bool{}
	memo := map[ID]string{}

	var class func(ID) string
	class = func(id ID) string {
		if c, ok := memo[id]; ok {
			return c
		}
		if inProgress[id] {
			return "cycle:" + g.Get(id).Tag()
		}
		inProgress[id] = true
		p := g.Get(id)

		var sb strings.Builder
		sb.WriteString(p.variant.String())
		sb.WriteByte('|')
		sb.WriteString(p.symbol)
		sb.WriteByte('|')
		switch p.variant {
		case VLiteral, VCIText:
			sb.WriteString(p.literal)
		case VRegex, VWhitespace:
			if p.regex != nil {
				sb.WriteString(p.regex.String())
			}
			if p.commentRegex != nil {
				sb.WriteByte(';')
				sb.WriteString(p.commentRegex.String())
			}
		case VCharRange:
			sb.WriteString(strconv.Itoa(int(p.rangeLo)))
			sb.WriteByte('-')
			sb.WriteString(strconv.Itoa(int(p.rangeHi)))
		case VCounted:
			sb.WriteString(strconv.Itoa(p.min))
			sb.WriteByte('-')
			sb.WriteString(strconv.Itoa(p.max))
		case VCapture, VRetrieve, VPop:
			sb.WriteString(p.captureName)
		}
		for _, c := range p.children {
			sb.WriteByte(',')
			sb.WriteString(class(c))
		}

		sum := blake2b.Sum256([]byte(sb.String()))
		key := hex.EncodeToString(sum[:16])

		delete(inProgress, id)
		memo[id] = key
		p.eqClass = key
		return key
	}

	for _, id := range ids {
		class(id)
	}

	// sanity: every non-stateful reachable parser must have a class
	var missing []string
	for _, id := range ids {
		if g.Get(id).eqClass == "" {
			missing = append(missing, g.Get(id).Tag())
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("failed to compute equivalence class for: %s", strings.Join(missing, ", "))
	}
	return nil
}
