package model

// SpecialKind identifies a synthetic collection computed from live queries
// instead of fetched by membership.
type SpecialKind string

const (
	SpecialDuplicates    SpecialKind = "duplicates"
	SpecialUncategorized SpecialKind = "uncategorized"
	SpecialTrash         SpecialKind = "trash"
)

// CollectionRef is a tagged reference to either a real server collection
// (by key) or a special pseudo-collection. The zero value means "none".
type CollectionRef struct {
	key     string
	special SpecialKind
}

func RealCollection(key string) CollectionRef { return CollectionRef{key: key} }

func SpecialCollection(kind SpecialKind) CollectionRef { return CollectionRef{special: kind} }

func (r CollectionRef) IsZero() bool    { return r.key == "" && r.special == "" }
func (r CollectionRef) IsSpecial() bool { return r.special != "" }

// Key returns the real collection key, empty for special/none refs.
func (r CollectionRef) Key() string { return r.key }

// Special returns the special kind, empty for real/none refs.
func (r CollectionRef) Special() SpecialKind { return r.special }

// String renders the ref the way it is persisted and shown in CLI output:
// the raw key for real collections, the kind name for special ones.
func (r CollectionRef) String() string {
	if r.special != "" {
		return string(r.special)
	}
	return r.key
}

// ParseCollectionRef is the inverse of String. The three special names are
// reserved and can never be real collection keys (the server generates
// 8-char upper-case keys).
func ParseCollectionRef(s string) CollectionRef {
	switch SpecialKind(s) {
	case SpecialDuplicates, SpecialUncategorized, SpecialTrash:
		return SpecialCollection(SpecialKind(s))
	}
	if s == "" {
		return CollectionRef{}
	}
	return RealCollection(s)
}
