// Package content defines the game-design content taxonomy the loresmith
// engine indexes, and the canonical-text extraction used to feed the
// embedding provider. It acts as the validation gate at pipeline entry points.
package content

// Kind identifies a category of game-design content. Each kind maps to its
// own vector-store collection.
type Kind string

const (
	KindLore      Kind = "lore"
	KindQuest     Kind = "quest"
	KindNPC       Kind = "npc"
	KindItem      Kind = "item"
	KindCharacter Kind = "character"
	KindManifest  Kind = "manifest"
)

// Kinds lists every supported kind in collection-creation order.
var Kinds = []Kind{KindLore, KindQuest, KindNPC, KindItem, KindCharacter, KindManifest}

// Valid reports whether k is a recognised content kind.
func (k Kind) Valid() bool {
	switch k {
	case KindLore, KindQuest, KindNPC, KindItem, KindCharacter, KindManifest:
		return true
	}
	return false
}

// Record is a piece of game-design content that can be flattened into
// canonical text for embedding. One implementation exists per Kind, so
// adding a kind is a compile-time checked change rather than a map lookup.
type Record interface {
	Kind() Kind
	ContentID() string
	// CanonicalText returns the flattened, blank-line-joined text for the
	// record. Callers must run ValidateText before embedding the result.
	CanonicalText() string
}
