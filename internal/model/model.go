package model

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/alan/internal/fault"
)

// Kind tags the contents of an Entry.
type Kind int

const (
	// KindDist is a distribution over a single random variable.
	KindDist Kind = iota + 1

	// KindGroup is a set of jointly drawn variables.
	KindGroup

	// KindPlate is a nested plate.
	KindPlate
)

// String returns the kind name used in error reports.
func (k Kind) String() string {
	switch k {
	case KindDist:
		return "dist"
	case KindGroup:
		return "group"
	case KindPlate:
		return "plate"
	}
	return "invalid"
}

// Support names the set of legal values of a distribution, for example
// "real", "positive" or "interval(0,1)". Supports compare as strings after
// whitespace is removed.
type Support string

// Canonical returns s without whitespace.
func (s Support) Canonical() Support {
	return Support(strings.Join(strings.Fields(string(s)), ""))
}

// Equal reports whether two supports describe the same set.
func (s Support) Equal(o Support) bool {
	return s.Canonical() == o.Canonical()
}

// Dist describes a distribution over one random variable.
type Dist struct {
	Family  string
	Support Support
}

// Group is a set of variables drawn jointly and matched as a unit.
type Group struct {
	members map[string]Dist
}

// NewGroup builds a group from its member distributions.
func NewGroup(members map[string]Dist) (*Group, error) {
	m, err := normalizeKeys(members)
	if err != nil {
		return nil, err
	}
	if len(m) == 0 {
		return nil, fault.NewShapeError("group has no members")
	}
	return &Group{members: m}, nil
}

// Names returns the member names in sorted order.
func (g *Group) Names() []string { return sortedKeys(g.members) }

// Member returns the distribution stored under name.
func (g *Group) Member(name string) (Dist, bool) {
	d, ok := g.members[Name(name)]
	return d, ok
}

// Entry is a Dist, a Group or a nested Plate. Branch on Kind.
type Entry struct {
	kind  Kind
	dist  Dist
	group *Group
	plate *Plate
}

// DistEntry wraps a single-variable distribution.
func DistEntry(d Dist) Entry { return Entry{kind: KindDist, dist: d} }

// GroupEntry wraps a group.
func GroupEntry(g *Group) Entry { return Entry{kind: KindGroup, group: g} }

// PlateEntry wraps a nested plate.
func PlateEntry(p *Plate) Entry { return Entry{kind: KindPlate, plate: p} }

// Kind returns the entry's tag.
func (e Entry) Kind() Kind { return e.kind }

// Dist returns the distribution of a KindDist entry.
func (e Entry) Dist() Dist { return e.dist }

// Group returns the group of a KindGroup entry, nil otherwise.
func (e Entry) Group() *Group { return e.group }

// Plate returns the plate of a KindPlate entry, nil otherwise.
func (e Entry) Plate() *Plate { return e.plate }

// Plate is one level of a model: named entries, each a distribution, a
// group or a sub-plate.
type Plate struct {
	entries map[string]Entry
}

// NewPlate builds a plate. Names are NFC-normalized; two names that
// normalize to the same string are rejected.
func NewPlate(entries map[string]Entry) (*Plate, error) {
	m, err := normalizeKeys(entries)
	if err != nil {
		return nil, err
	}
	for name, e := range m {
		switch {
		case e.kind == KindDist:
		case e.kind == KindGroup && e.group != nil:
		case e.kind == KindPlate && e.plate != nil:
		default:
			return nil, fault.NewShapeError("entry %q is empty or has an invalid kind", name)
		}
	}
	return &Plate{entries: m}, nil
}

// MustPlate is like NewPlate but panics on error.
func MustPlate(entries map[string]Entry) *Plate {
	p, err := NewPlate(entries)
	if err != nil {
		panic(err)
	}
	return p
}

// Names returns the entry names in sorted order.
func (p *Plate) Names() []string { return sortedKeys(p.entries) }

// Entry returns the entry stored under name.
func (p *Plate) Entry(name string) (Entry, bool) {
	e, ok := p.entries[Name(name)]
	return e, ok
}

// Len returns the number of entries.
func (p *Plate) Len() int { return len(p.entries) }

// Data lists the observed names at one plate level. Observed names are
// leaves; Plates holds the data of nested plates.
type Data struct {
	observed map[string]struct{}
	plates   map[string]*Data
}

// NewData builds a data descriptor. A name may not be both observed and a
// nested plate.
func NewData(observed []string, plates map[string]*Data) (*Data, error) {
	d := &Data{observed: map[string]struct{}{}}
	for _, name := range observed {
		n := Name(name)
		if _, dup := d.observed[n]; dup {
			return nil, dupError(n)
		}
		d.observed[n] = struct{}{}
	}
	ps, err := normalizeKeys(plates)
	if err != nil {
		return nil, err
	}
	for name, sub := range ps {
		if _, clash := d.observed[name]; clash {
			return nil, &fault.Error{
				Code:    fault.CodeStructure,
				Message: "name is both observed data and a data plate",
				Name:    name,
			}
		}
		if sub == nil {
			ps[name] = &Data{}
		}
	}
	d.plates = ps
	return d, nil
}

// Observed returns the observed names in sorted order. A nil Data has none.
func (d *Data) Observed() []string {
	if d == nil {
		return nil
	}
	return sortedKeys(d.observed)
}

// IsObserved reports whether name is observed at this level.
func (d *Data) IsObserved(name string) bool {
	if d == nil {
		return false
	}
	_, ok := d.observed[Name(name)]
	return ok
}

// PlateNames returns the names of nested data plates in sorted order.
func (d *Data) PlateNames() []string {
	if d == nil {
		return nil
	}
	return sortedKeys(d.plates)
}

// Sub returns the data of the nested plate name, or nil if none was given.
// A nil *Data is a valid empty descriptor.
func (d *Data) Sub(name string) *Data {
	if d == nil {
		return nil
	}
	return d.plates[Name(name)]
}

// Name returns the NFC form of an entry name.
func Name(s string) string {
	return norm.NFC.String(s)
}

func normalizeKeys[V any](in map[string]V) (map[string]V, error) {
	out := make(map[string]V, len(in))
	for k, v := range in {
		n := Name(k)
		if _, dup := out[n]; dup {
			return nil, dupError(n)
		}
		out[n] = v
	}
	return out, nil
}

func dupError(name string) *fault.Error {
	return &fault.Error{
		Code:    fault.CodeStructure,
		Message: fmt.Sprintf("name %q appears twice after normalization", name),
		Name:    name,
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
