// Package imagekey parses object-store keys for listing photos and maps them
// to and from the URL shapes that clients hold.
//
// Keys follow {class}/{scope}/{filename}. The scope is temp_{batchID} while a
// photo is staged and {entityID} once it has been committed to a listing.
package imagekey

import (
	"strings"
)

// Entity classes used as the first key segment.
const (
	ClassCars  = "cars"
	ClassParts = "parts"
)

const stagingScopePrefix = "temp_"

// Kind tags what a parsed key refers to.
type Kind int

const (
	// KindOpaque is a key that does not follow the {class}/{scope}/{filename} layout.
	KindOpaque Kind = iota
	// KindStaged is a key inside a temporary upload batch.
	KindStaged
	// KindPermanent is a key scoped to a committed entity.
	KindPermanent
)

func (k Kind) String() string {
	switch k {
	case KindStaged:
		return "staged"
	case KindPermanent:
		return "permanent"
	default:
		return "opaque"
	}
}

// Key is a storage key parsed once at the boundary.
type Key struct {
	Raw      string
	Kind     Kind
	Class    string
	Scope    string
	Filename string
	// BatchID is set for KindStaged.
	BatchID string
	// EntityID is set for KindPermanent.
	EntityID string
}

// Parse splits a storage key into its layout segments. Leading slashes are
// ignored. Parse never fails: keys outside the layout come back as KindOpaque.
func Parse(raw string) Key {
	raw = strings.TrimLeft(raw, "/")
	k := Key{Raw: raw, Kind: KindOpaque}

	segments := strings.Split(raw, "/")
	k.Filename = segments[len(segments)-1]
	if len(segments) < 3 || segments[0] == "" || k.Filename == "" {
		return k
	}
	k.Class = segments[0]

	// Only scope segments count. A filename that happens to start with
	// temp_ does not make the object staged.
	for _, seg := range segments[1 : len(segments)-1] {
		if strings.HasPrefix(seg, stagingScopePrefix) {
			k.Kind = KindStaged
			k.Scope = seg
			k.BatchID = strings.TrimPrefix(seg, stagingScopePrefix)
			return k
		}
	}

	k.Kind = KindPermanent
	k.Scope = segments[1]
	k.EntityID = segments[1]
	return k
}

// IsStaged reports whether the key lives in a temporary batch.
func (k Key) IsStaged() bool { return k.Kind == KindStaged }

// String returns the raw key.
func (k Key) String() string { return k.Raw }

// ValidClass reports whether class is a known entity class.
func ValidClass(class string) bool {
	return class == ClassCars || class == ClassParts
}

// ValidSegment reports whether s can be used as a single key segment.
func ValidSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, "/\\")
}

// StagingRoot is the prefix shared by every batch of a class.
func StagingRoot(class string) string {
	return class + "/" + stagingScopePrefix
}

// StagingPrefix is the prefix holding every object of one batch.
func StagingPrefix(class, batchID string) string {
	return StagingRoot(class) + batchID + "/"
}

// StagingKey composes the key of a staged object.
func StagingKey(class, batchID, filename string) string {
	return StagingPrefix(class, batchID) + filename
}

// EntityPrefix is the prefix holding the committed objects of one entity.
func EntityPrefix(class, entityID string) string {
	return class + "/" + entityID + "/"
}

// PermanentKey composes the key of a committed object.
func PermanentKey(class, entityID, filename string) string {
	return EntityPrefix(class, entityID) + filename
}
