package store

import "math/rand"

// NewSet constructs an empty set payload.
func NewSet() *Set { return &Set{members: make(map[string]struct{})} }

// Len returns the cardinality.
func (s *Set) Len() int { return len(s.members) }

// Add inserts member, reporting whether it was newly added.
func (s *Set) Add(member []byte) bool {
	k := string(member)
	if _, ok := s.members[k]; ok {
		return false
	}
	s.members[k] = struct{}{}
	return true
}

// AddMany inserts every member and returns how many were newly added.
func (s *Set) AddMany(members [][]byte) int {
	var n int
	for _, m := range members {
		if s.Add(m) {
			n++
		}
	}
	return n
}

// Remove deletes member, reporting whether it was present.
func (s *Set) Remove(member []byte) bool {
	k := string(member)
	if _, ok := s.members[k]; !ok {
		return false
	}
	delete(s.members, k)
	return true
}

// RemoveMany deletes every listed member and returns how many existed.
func (s *Set) RemoveMany(members [][]byte) int {
	var n int
	for _, m := range members {
		if s.Remove(m) {
			n++
		}
	}
	return n
}

// IsMember reports membership.
func (s *Set) IsMember(member []byte) bool {
	_, ok := s.members[string(member)]
	return ok
}

// Members returns every member in unspecified order.
func (s *Set) Members() [][]byte {
	out := make([][]byte, 0, len(s.members))
	for m := range s.members {
		out = append(out, []byte(m))
	}
	return out
}

// RandomMember returns one uniformly chosen member, or nil if empty.
func (s *Set) RandomMember() []byte {
	if len(s.members) == 0 {
		return nil
	}
	n := rand.Intn(len(s.members))
	i := 0
	for m := range s.members {
		if i == n {
			return []byte(m)
		}
		i++
	}
	return nil
}

// PopRandom removes and returns up to count uniformly chosen members
// (spec.md §4.3.3's SPOP-with-count contract). count <= 0 returns nothing.
func (s *Set) PopRandom(count int) [][]byte {
	if count <= 0 || len(s.members) == 0 {
		return nil
	}
	if count > len(s.members) {
		count = len(s.members)
	}
	out := make([][]byte, 0, count)
	for m := range s.members {
		out = append(out, []byte(m))
		delete(s.members, m)
		if len(out) == count {
			break
		}
	}
	return out
}

func setOf(members [][]byte) map[string]struct{} {
	m := make(map[string]struct{}, len(members))
	for _, b := range members {
		m[string(b)] = struct{}{}
	}
	return m
}

// Diff returns members present in s but absent from every set in others
// (SDIFF/SDIFFSTORE).
func (s *Set) Diff(others ...*Set) [][]byte {
	var out [][]byte
	for m := range s.members {
		excluded := false
		for _, o := range others {
			if o != nil {
				if _, ok := o.members[m]; ok {
					excluded = true
					break
				}
			}
		}
		if !excluded {
			out = append(out, []byte(m))
		}
	}
	return out
}

// Inter returns members present in every set (SINTER/SINTERSTORE).
func (s *Set) Inter(others ...*Set) [][]byte {
	var out [][]byte
	for m := range s.members {
		in := true
		for _, o := range others {
			if o == nil {
				in = false
				break
			}
			if _, ok := o.members[m]; !ok {
				in = false
				break
			}
		}
		if in {
			out = append(out, []byte(m))
		}
	}
	return out
}

// Union returns the union of s and every other set (SUNION/SUNIONSTORE).
func (s *Set) Union(others ...*Set) [][]byte {
	all := make(map[string]struct{}, len(s.members))
	for m := range s.members {
		all[m] = struct{}{}
	}
	for _, o := range others {
		if o == nil {
			continue
		}
		for m := range o.members {
			all[m] = struct{}{}
		}
	}
	out := make([][]byte, 0, len(all))
	for m := range all {
		out = append(out, []byte(m))
	}
	return out
}
