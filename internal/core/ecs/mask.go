package ecs

// Mask is a set of up to MaxComponentTypes component types. One mask is kept
// per entity slot and one per query term list.
type Mask [4]uint64

func (m *Mask) set(t ComponentType) {
	m[t>>6] |= uint64(1) << (t & 63)
}

func (m *Mask) unset(t ComponentType) {
	m[t>>6] &^= uint64(1) << (t & 63)
}

// Has reports whether t is in the mask.
func (m Mask) Has(t ComponentType) bool {
	return m[t>>6]&(uint64(1)<<(t&63)) != 0
}

// Contains reports whether every type in sub is also in m.
func (m Mask) Contains(sub Mask) bool {
	return m[0]&sub[0] == sub[0] &&
		m[1]&sub[1] == sub[1] &&
		m[2]&sub[2] == sub[2] &&
		m[3]&sub[3] == sub[3]
}

// Intersects reports whether m and other share at least one type.
func (m Mask) Intersects(other Mask) bool {
	return m[0]&other[0] != 0 ||
		m[1]&other[1] != 0 ||
		m[2]&other[2] != 0 ||
		m[3]&other[3] != 0
}

func (m Mask) IsZero() bool {
	return m == Mask{}
}
