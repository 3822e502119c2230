package domain

import (
	"slices"
	"strings"
)

// Environment is a set of assumption names: one hypothetical world.
// Values built through NewEnvironment are sorted and free of duplicates, so
// two environments with the same members compare equal element-wise.
type Environment []string

// NewEnvironment returns the canonical environment holding names.
func NewEnvironment(names ...string) Environment {
	env := make(Environment, len(names))
	copy(env, names)
	slices.Sort(env)
	return slices.Compact(env)
}

// Key is a stable map key for the environment.
func (e Environment) Key() string {
	return strings.Join(e, "\x00")
}

func (e Environment) String() string {
	return "{" + strings.Join(e, ",") + "}"
}

// Contains reports whether the assumption is a member of e.
func (e Environment) Contains(name string) bool {
	_, ok := slices.BinarySearch(e, name)
	return ok
}

// Equal reports whether e and o hold the same assumptions.
func (e Environment) Equal(o Environment) bool {
	return slices.Equal(e, o)
}

// SubsetOf reports whether every assumption of e is in o.
func (e Environment) SubsetOf(o Environment) bool {
	if len(e) > len(o) {
		return false
	}
	i, j := 0, 0
	for i < len(e) && j < len(o) {
		switch {
		case e[i] == o[j]:
			i++
			j++
		case e[i] > o[j]:
			j++
		default:
			return false
		}
	}
	return i == len(e)
}

// Union merges two canonical environments.
func (e Environment) Union(o Environment) Environment {
	out := make(Environment, 0, len(e)+len(o))
	i, j := 0, 0
	for i < len(e) && j < len(o) {
		switch {
		case e[i] == o[j]:
			out = append(out, e[i])
			i++
			j++
		case e[i] < o[j]:
			out = append(out, e[i])
			i++
		default:
			out = append(out, o[j])
			j++
		}
	}
	out = append(out, e[i:]...)
	return append(out, o[j:]...)
}

// CompareEnvironments orders smaller environments first, then lexically.
func CompareEnvironments(a, b Environment) int {
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	return slices.Compare(a, b)
}
