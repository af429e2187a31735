// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package unordered provides Set, a dense collection with O(1) swap removal
// that stays safe to mutate while it is being iterated.
//
// Removal normally moves the last element into the freed slot, so element
// order is not preserved and callers that keep an external index into the
// set must patch it with the element returned by DeleteByIndex. During
// ForEach, removals only blank the slot; the set is compacted once the
// outermost ForEach returns, and every element that moves reports its new
// index through the onSwap callback.
//
// Set is not safe for concurrent use. The reentrancy tracking exists so that
// a callback may add or delete elements of the set it is iterating.
package unordered

import "fmt"

// entry is one slot of the dense array. A blanked slot keeps live=false until
// the next compaction.
type entry[T comparable] struct {
	value T
	live  bool
}

// Set is an unordered collection with swap-delete removal.
// The zero value is an empty set ready to use.
type Set[T comparable] struct {
	elements    []entry[T]
	length      int
	loopCounter int
	blankCount  int
}

// New creates a set with room for capacity elements.
func New[T comparable](capacity int) *Set[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Set[T]{elements: make([]entry[T], 0, capacity)}
}

// Len returns the number of slots in use. While a ForEach is running this
// still counts blanked slots; after the outermost ForEach it equals the number
// of live elements.
func (s *Set[T]) Len() int {
	return s.length
}

// Iterating reports whether a ForEach is in progress.
func (s *Set[T]) Iterating() bool {
	return s.loopCounter > 0
}

// Add appends e. Elements added during ForEach are visited by that ForEach.
func (s *Set[T]) Add(e T) {
	if s.length < len(s.elements) {
		s.elements[s.length] = entry[T]{value: e, live: true}
	} else {
		s.elements = append(s.elements, entry[T]{value: e, live: true})
	}
	s.length++
}

// Get returns the element at index i. A slot blanked during the current
// ForEach yields the zero value. Get panics if i is out of range.
func (s *Set[T]) Get(i int) T {
	s.checkIndex(i)
	return s.elements[i].value
}

// Set stores e at index i. It panics if i is out of range.
func (s *Set[T]) Set(i int, e T) {
	s.checkIndex(i)
	if !s.elements[i].live {
		s.blankCount--
	}
	s.elements[i] = entry[T]{value: e, live: true}
}

// IndexOf returns the index of e, or -1.
func (s *Set[T]) IndexOf(e T) int {
	for i := 0; i < s.length; i++ {
		if s.elements[i].live && s.elements[i].value == e {
			return i
		}
	}
	return -1
}

// Delete removes e if present and reports whether it was found.
// See DeleteByIndex for the effect on other elements.
func (s *Set[T]) Delete(e T) bool {
	i := s.IndexOf(e)
	if i < 0 {
		return false
	}
	s.DeleteByIndex(i)
	return true
}

// DeleteByIndex removes the element at index i.
//
// Outside ForEach the last element is moved into slot i and returned with
// ok=true so the caller can update its stored index; ok is false when i was
// the last slot. Inside ForEach the slot is blanked instead, nothing moves,
// and ok is false. Deleting a slot that is already blanked panics.
func (s *Set[T]) DeleteByIndex(i int) (swapped T, ok bool) {
	s.checkIndex(i)
	if !s.elements[i].live {
		panic(fmt.Sprintf("unordered: slot %d deleted twice", i))
	}

	if s.loopCounter > 0 {
		s.elements[i] = entry[T]{}
		s.blankCount++
		return swapped, false
	}

	last := s.length - 1
	if i != last {
		s.elements[i] = s.elements[last]
		swapped, ok = s.elements[i].value, true
	}
	s.elements[last] = entry[T]{}
	s.length--
	return swapped, ok
}

// ForEach calls visit for every live element in index order. Elements added
// by visit are visited as well; elements deleted by visit before they are
// reached are skipped. Nested ForEach calls share one reentrancy counter.
//
// When the outermost ForEach returns, trailing live elements are moved into
// blanked leading slots and onSwap, when non-nil, is called with each moved
// element and its new index.
func (s *Set[T]) ForEach(visit func(e T, i int), onSwap func(e T, newIndex int)) {
	s.loopCounter++
	defer s.endLoop(onSwap)

	for i := 0; i < s.length; i++ {
		if s.elements[i].live {
			visit(s.elements[i].value, i)
		}
	}
}

func (s *Set[T]) endLoop(onSwap func(e T, newIndex int)) {
	s.loopCounter--
	if s.loopCounter != 0 || s.blankCount == 0 {
		return
	}

	from, to := 0, s.length-1
	for {
		for from < to && s.elements[from].live {
			from++
		}
		for from < to && !s.elements[to].live {
			to--
		}
		if from >= to {
			break
		}
		s.elements[from] = s.elements[to]
		s.elements[to] = entry[T]{}
		if onSwap != nil {
			onSwap(s.elements[from].value, from)
		}
		from++
		to--
	}

	s.length -= s.blankCount
	s.blankCount = 0
}

// Reset removes all elements without releasing storage.
// It panics when called during ForEach.
func (s *Set[T]) Reset() {
	if s.loopCounter > 0 {
		panic("unordered: Reset during ForEach")
	}
	clear(s.elements[:s.length])
	s.length = 0
	s.blankCount = 0
}

// GarbageCollect trims the backing array to the current length.
func (s *Set[T]) GarbageCollect() {
	if s.loopCounter > 0 || cap(s.elements) == s.length {
		return
	}
	trimmed := make([]entry[T], s.length)
	copy(trimmed, s.elements[:s.length])
	s.elements = trimmed
}

func (s *Set[T]) checkIndex(i int) {
	if i < 0 || i >= s.length {
		panic(fmt.Sprintf("unordered: index %d out of range [0,%d)", i, s.length))
	}
}
