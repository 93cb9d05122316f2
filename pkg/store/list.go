package store

// NewList constructs an empty list payload.
func NewList() *List { return &List{} }

// Len returns the number of elements.
func (l *List) Len() int { return l.length }

// PushHead prepends v and returns the new length.
func (l *List) PushHead(v []byte) int {
	n := &listNode{value: v}
	if l.head == nil {
		l.head, l.tail = n, n
	} else {
		n.next = l.head
		l.head.prev = n
		l.head = n
	}
	l.length++
	return l.length
}

// PushTail appends v and returns the new length.
func (l *List) PushTail(v []byte) int {
	n := &listNode{value: v}
	if l.tail == nil {
		l.head, l.tail = n, n
	} else {
		n.prev = l.tail
		l.tail.next = n
		l.tail = n
	}
	l.length++
	return l.length
}

// PopHead removes and returns the first element.
func (l *List) PopHead() ([]byte, bool) {
	if l.head == nil {
		return nil, false
	}
	n := l.head
	l.head = n.next
	if l.head != nil {
		l.head.prev = nil
	} else {
		l.tail = nil
	}
	l.length--
	return n.value, true
}

// PopTail removes and returns the last element.
func (l *List) PopTail() ([]byte, bool) {
	if l.tail == nil {
		return nil, false
	}
	n := l.tail
	l.tail = n.prev
	if l.tail != nil {
		l.tail.next = nil
	} else {
		l.head = nil
	}
	l.length--
	return n.value, true
}

// normalizeIndex maps a signed, possibly out-of-range index to a 0-based
// offset, reporting false if it falls outside [0, length).
func (l *List) normalizeIndex(i int) (int, bool) {
	if i < 0 {
		i += l.length
	}
	if i < 0 || i >= l.length {
		return 0, false
	}
	return i, true
}

func (l *List) nodeAt(i int) *listNode {
	if i <= l.length/2 {
		n := l.head
		for ; i > 0; i-- {
			n = n.next
		}
		return n
	}
	n := l.tail
	for j := l.length - 1; j > i; j-- {
		n = n.prev
	}
	return n
}

// Index returns the element at signed index i (spec.md §4.3.1).
func (l *List) Index(i int) ([]byte, bool) {
	idx, ok := l.normalizeIndex(i)
	if !ok {
		return nil, false
	}
	return l.nodeAt(idx).value, true
}

// SetAt overwrites the element at signed index i.
func (l *List) SetAt(i int, v []byte) bool {
	idx, ok := l.normalizeIndex(i)
	if !ok {
		return false
	}
	l.nodeAt(idx).value = v
	return true
}

// InsertAt inserts v so that it becomes the element at signed index i,
// shifting the rest toward the tail.
func (l *List) InsertAt(i int, v []byte) bool {
	if i < 0 {
		i += l.length
	}
	if i < 0 || i > l.length {
		return false
	}
	if i == l.length {
		l.PushTail(v)
		return true
	}
	if i == 0 {
		l.PushHead(v)
		return true
	}
	pivot := l.nodeAt(i)
	l.insertBeforeNode(pivot, v)
	return true
}

func (l *List) insertBeforeNode(pivot *listNode, v []byte) {
	n := &listNode{value: v, prev: pivot.prev, next: pivot}
	if pivot.prev != nil {
		pivot.prev.next = n
	} else {
		l.head = n
	}
	pivot.prev = n
	l.length++
}

func (l *List) insertAfterNode(pivot *listNode, v []byte) {
	n := &listNode{value: v, prev: pivot, next: pivot.next}
	if pivot.next != nil {
		pivot.next.prev = n
	} else {
		l.tail = n
	}
	pivot.next = n
	l.length++
}

func (l *List) findFirst(pivot []byte) *listNode {
	for n := l.head; n != nil; n = n.next {
		if string(n.value) == string(pivot) {
			return n
		}
	}
	return nil
}

// InsertBefore inserts v immediately before the first occurrence of pivot
// from the head. Returns false if pivot is absent.
func (l *List) InsertBefore(pivot, v []byte) bool {
	n := l.findFirst(pivot)
	if n == nil {
		return false
	}
	l.insertBeforeNode(n, v)
	return true
}

// InsertAfter inserts v immediately after the first occurrence of pivot from
// the head. Returns false if pivot is absent.
func (l *List) InsertAfter(pivot, v []byte) bool {
	n := l.findFirst(pivot)
	if n == nil {
		return false
	}
	l.insertAfterNode(n, v)
	return true
}

func (l *List) removeNode(n *listNode) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	l.length--
}

// RemoveValue removes occurrences of v: count > 0 scans from the head and
// removes up to count matches; count < 0 scans from the tail; count == 0
// removes every match (spec.md §3/§4.3.1). Returns the number removed.
func (l *List) RemoveValue(count int, v []byte) int {
	var removed int
	match := func(n *listNode) bool { return string(n.value) == string(v) }

	switch {
	case count > 0:
		n := l.head
		for n != nil && removed < count {
			next := n.next
			if match(n) {
				l.removeNode(n)
				removed++
			}
			n = next
		}
	case count < 0:
		n := l.tail
		limit := -count
		for n != nil && removed < limit {
			prev := n.prev
			if match(n) {
				l.removeNode(n)
				removed++
			}
			n = prev
		}
	default:
		n := l.head
		for n != nil {
			next := n.next
			if match(n) {
				l.removeNode(n)
				removed++
			}
			n = next
		}
	}
	return removed
}

// normalizeRange applies spec.md §4.3.1's trim/range normalization: negative
// indices count from the tail, start clamps to 0, end clamps to length-1; if
// the normalized start exceeds end the range is empty.
func (l *List) normalizeRange(start, end int) (int, int, bool) {
	if start < 0 {
		start += l.length
	}
	if start < 0 {
		start = 0
	}
	if end < 0 {
		end += l.length
	}
	if end >= l.length {
		end = l.length - 1
	}
	if start > end || l.length == 0 {
		return 0, 0, false
	}
	return start, end, true
}

// Range returns a snapshot slice of elements in the inclusive, normalized
// [start, end] range.
func (l *List) Range(start, end int) [][]byte {
	s, e, ok := l.normalizeRange(start, end)
	if !ok {
		return nil
	}
	out := make([][]byte, 0, e-s+1)
	n := l.nodeAt(s)
	for i := s; i <= e; i++ {
		out = append(out, n.value)
		n = n.next
	}
	return out
}

// Trim discards every element outside the normalized [start, end] range.
func (l *List) Trim(start, end int) {
	s, e, ok := l.normalizeRange(start, end)
	if !ok {
		l.head, l.tail, l.length = nil, nil, 0
		return
	}
	kept := l.Range(s, e)
	l.head, l.tail, l.length = nil, nil, 0
	for _, v := range kept {
		l.PushTail(v)
	}
}
