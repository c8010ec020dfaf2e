package keytable

import (
	"fmt"
	"strings"
)

// Mask is an engine modifier bitset. Each configured modifier owns the bit
// 2^index of its position in the table's modifier list.
type Mask uint32

// Null is the empty mask.
const Null Mask = 0

// Has reports whether every bit of o is set in m.
func (m Mask) Has(o Mask) bool {
	return o != 0 && m&o == o
}

// Modifier returns the mask bit of a configured modifier name.
func (t *Table) Modifier(name string) (Mask, error) {
	if m, ok := t.modMasks[name]; ok {
		return m, nil
	}
	return Null, fmt.Errorf("%w: %q", ErrUnsupportedModifier, name)
}

// MustModifier is like Modifier but panics on unknown names.
func (t *Table) MustModifier(name string) Mask {
	m, err := t.Modifier(name)
	if err != nil {
		panic(err)
	}
	return m
}

// PrefixMask resolves a chord prefix letter ("s", "c", "a", "m"), case-insensitively.
func (t *Table) PrefixMask(prefix string) (Mask, error) {
	if m, ok := t.prefixes[strings.ToLower(prefix)]; ok {
		return m, nil
	}
	return Null, fmt.Errorf("%w: prefix %q", ErrUnsupportedModifier, prefix)
}

// ModifierNames lists the modifiers set in m, in table order.
func (t *Table) ModifierNames(m Mask) []string {
	var names []string
	for i, name := range t.modifiers {
		if name != "" && m&(Mask(1)<<uint(i)) != 0 {
			names = append(names, name)
		}
	}
	return names
}

// Split returns the individual modifier bits set in m, in table order.
func (t *Table) Split(m Mask) []Mask {
	var bits []Mask
	for i, name := range t.modifiers {
		bit := Mask(1) << uint(i)
		if name != "" && m&bit != 0 {
			bits = append(bits, bit)
		}
	}
	return bits
}

// ANSIMask is the union of the modifiers an ANSI parameter can express.
func (t *Table) ANSIMask() Mask {
	var m Mask
	for _, bit := range t.ansi {
		m |= bit
	}
	return m
}

// ANSIMasks returns every combination of the ANSI modifiers, ordered by ANSI parameter.
func (t *Table) ANSIMasks() []Mask {
	masks := make([]Mask, 0, 1<<len(t.ansi))
	for v := 0; v < 1<<len(t.ansi); v++ {
		m, _ := t.FromANSIParam(v + 1)
		masks = append(masks, m)
	}
	return masks
}

// ANSIParam encodes m as an xterm modifier parameter: 1 plus 2^i for every
// set modifier at position i of the ANSI order. Bits outside that order are ignored.
func (t *Table) ANSIParam(m Mask) int {
	param := 1
	for i, bit := range t.ansi {
		if m&bit != 0 {
			param += 1 << uint(i)
		}
	}
	return param
}

// FromANSIParam decodes an xterm modifier parameter back into a mask.
func (t *Table) FromANSIParam(param int) (Mask, error) {
	v := param - 1
	if v < 0 || v >= 1<<len(t.ansi) {
		return Null, fmt.Errorf("%w: ANSI parameter %d out of range", ErrUnsupportedModifier, param)
	}
	var m Mask
	for i, bit := range t.ansi {
		if v&(1<<uint(i)) != 0 {
			m |= bit
		}
	}
	return m, nil
}
