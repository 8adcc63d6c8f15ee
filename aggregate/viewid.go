package aggregate

import (
	"fmt"

	"github.com/google/uuid"
)

// ViewID is the 16-byte identifier that ties HEADERFOOTER records to the
// custom view (USERSVIEWBEGIN) they decorate.  The zero value denotes the
// primary sheet.  Equality is byte-wise.
type ViewID [16]byte

// IsPrimary reports whether v is the all-zero primary-sheet sentinel.
func (v ViewID) IsPrimary() bool {
	return v == ViewID{}
}

// String renders v as a registry-style GUID.  The bytes are stored in the
// Windows GUID layout (first three fields little-endian).
func (v ViewID) String() string {
	return uuid.UUID(v.swap()).String()
}

// ParseViewID parses a GUID string as produced by ViewID.String.
func ParseViewID(s string) (ViewID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ViewID{}, fmt.Errorf("aggregate: parsing view id %q: %w", s, err)
	}
	return ViewID(u).swap(), nil
}

// NewViewID returns a fresh random identifier.
func NewViewID() ViewID {
	return ViewID(uuid.New()).swap()
}

// ViewIDFrom reads a ViewID from the first 16 bytes of b.
func ViewIDFrom(b []byte) (ViewID, bool) {
	var v ViewID
	if len(b) < len(v) {
		return v, false
	}
	copy(v[:], b)
	return v, true
}

// swap converts between the Windows mixed-endian layout and RFC 4122 order.
// The conversion is its own inverse.
func (v ViewID) swap() ViewID {
	o := v
	o[0], o[1], o[2], o[3] = v[3], v[2], v[1], v[0]
	o[4], o[5] = v[5], v[4]
	o[6], o[7] = v[7], v[6]
	return o
}
