// Package catalog holds the closed vocabulary of spawnable objects and the
// visual modifiers the Dreamkeeper is allowed to use, plus fuzzy resolution
// of near-miss identifiers returned by the judgment model.
//
// The model is instructed to answer with catalog members only, but that is a
// prompt-level contract. Resolve is the code-level enforcement: an exact
// member passes through, a phonetic or string-similar near miss (e.g.
// "pizzas", "swurd") is mapped to its closest catalog entry, and anything
// else is rejected so the caller can substitute a refusal verdict.
package catalog

import (
	"slices"
	"strings"

	"github.com/antzucaro/matchr"
)

// Objects is the full set of spawnable object identifiers, exactly as they
// appear in the game client's prefab table.
var Objects = []string{
	// weapons
	"sword", "shield", "bomb", "hammer", "potion",
	// furniture
	"chair", "table", "bed", "toilet", "lamp", "door", "chest",
	// nature
	"tree", "rock", "mushroom", "flower", "cloud", "fire",
	// food
	"pizza", "burger", "banana", "cheese", "cake",
	// animals
	"duck", "spider", "fish", "cat",
	// tools
	"key", "ladder", "coin",
	// shapes
	"box", "ball",
}

// Twists are the physical modifiers a granted object may carry.
var Twists = []string{"giant", "tiny", "ceiling", "bouncy", "spinning", "none"}

// VFXTypes are the particle effects the client can attach to a spawned object.
var VFXTypes = []string{"fire", "smoke", "sparks", "none"}

const (
	// phoneticThreshold is the minimum Jaro-Winkler score for a
	// phonetically-overlapping candidate to be accepted.
	phoneticThreshold = 0.70

	// fuzzyThreshold is the minimum Jaro-Winkler score when no phonetic
	// overlap exists. Higher because pure string similarity is noisier.
	fuzzyThreshold = 0.85
)

// Contains reports whether name is an exact catalog object (case-insensitive).
func Contains(name string) bool {
	return slices.Contains(Objects, strings.ToLower(strings.TrimSpace(name)))
}

// ValidTwist reports whether t is a recognised twist modifier.
func ValidTwist(t string) bool {
	return slices.Contains(Twists, strings.ToLower(strings.TrimSpace(t)))
}

// ValidVFX reports whether v is a recognised visual effect tag.
func ValidVFX(v string) bool {
	return slices.Contains(VFXTypes, strings.ToLower(strings.TrimSpace(v)))
}

// Resolve maps name to a catalog object identifier. Exact members are
// returned as-is (lowercased). Otherwise the catalog is searched for the
// closest match using Double Metaphone overlap filtered by Jaro-Winkler
// similarity, with a pure Jaro-Winkler pass as a stricter fallback.
//
// ok is false when nothing clears the thresholds; the returned string then
// equals the (lowercased) input.
func Resolve(name string) (object string, ok bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return n, false
	}
	if slices.Contains(Objects, n) {
		return n, true
	}

	primary, secondary := matchr.DoubleMetaphone(n)

	var (
		best         string
		bestScore    float64
		bestPhonetic bool
	)
	for _, obj := range Objects {
		op, os := matchr.DoubleMetaphone(obj)
		phonetic := codeOverlap(primary, secondary, op, os)
		score := matchr.JaroWinkler(n, obj, false)

		switch {
		case phonetic && score >= phoneticThreshold:
			if !bestPhonetic || score > bestScore {
				best, bestScore, bestPhonetic = obj, score, true
			}
		case !bestPhonetic && score >= fuzzyThreshold && score > bestScore:
			best, bestScore = obj, score
		}
	}

	if best == "" {
		return n, false
	}
	return best, true
}

// codeOverlap reports whether the two Double Metaphone code pairs share at
// least one non-empty code.
func codeOverlap(a1, a2, b1, b2 string) bool {
	for _, a := range [...]string{a1, a2} {
		if a == "" {
			continue
		}
		if a == b1 || (b2 != "" && a == b2) {
			return true
		}
	}
	return false
}

// PromptList renders the catalog grouped the way the system prompt embeds it.
func PromptList() string {
	var b strings.Builder
	b.WriteString(`- WEAPONS: "sword", "shield", "bomb", "hammer", "potion"` + "\n")
	b.WriteString(`- FURNITURE: "chair", "table", "bed", "toilet", "lamp", "door", "chest"` + "\n")
	b.WriteString(`- NATURE: "tree", "rock", "mushroom", "flower", "cloud", "fire"` + "\n")
	b.WriteString(`- FOOD: "pizza", "burger", "banana", "cheese", "cake"` + "\n")
	b.WriteString(`- ANIMALS: "duck", "spider", "fish", "cat"` + "\n")
	b.WriteString(`- TOOLS: "key", "ladder", "coin"` + "\n")
	b.WriteString(`- SHAPES: "box", "ball"`)
	return b.String()
}
