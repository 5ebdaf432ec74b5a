package cmp_test

import (
	"fmt"
	"testing"

	"github.com/strataml/strata/pkg/utils/cmp"
)

func TestSliceOp(t *testing.T) {
	t.Run("sliceeq detect two slices are equal", func(t *testing.T) {
		a := []string{"a", "b", "c"}
		b := []string{"a", "b", "c"}
		if !cmp.SliceEq(a, b) {
			t.Error("two slices are not equal, unexpectedly.")
		}
		if !cmp.SliceEq(b, a) {
			t.Error("two slices are not equal, unexpectedly.")
		}
	})
	t.Run("sliceeq detect two slices with different content are not equal", func(t *testing.T) {
		a := []string{"a", "b", "c"}
		b := []string{"a", "b", "d"}
		if cmp.SliceEq(a, b) {
			t.Error("two slices are equal, unexpectedly.")
		}
		if cmp.SliceEq(b, a) {
			t.Error("two slices are equal, unexpectedly.")
		}
	})
	t.Run("sliceeq detect two slices with different length are not equal", func(t *testing.T) {
		a := []string{"a", "b", "c"}
		b := []string{"a", "b"}
		if cmp.SliceEq(a, b) {
			t.Error("two slices are equal, unexpectedly.")
		}
		if cmp.SliceEq(b, a) {
			t.Error("two slices are equal, unexpectedly.")
		}
	})

	t.Run("SliceEqWith detect two slices in some comparing rule", func(t *testing.T) {
		a := []string{"foobar", "", "baz"}
		b := []int{6, 0, 3}
		equalInLen := func(a string, b int) bool { return len(a) == b }

		if !cmp.SliceEqWith(a, b, equalInLen) {
			t.Error("two slices are not equal, unexpectedly.")
		}
	})

	t.Run("SliceEqWith detect two slices with different content (after mapped) are not equal", func(t *testing.T) {
		a := []string{"foobar", "", "baz"}
		b := []int{6, 1, 3}
		equalInLen := func(a string, b int) bool { return len(a) == b }

		if cmp.SliceEqWith(a, b, equalInLen) {
			t.Error("two slices are equal, unexpectedly.")
		}
	})
}

func TestSliceContains(t *testing.T) {
	t.Run("SliceContains detect a pattern in haystack", func(t *testing.T) {
		haystack := []string{"foo", "bar", "baz", "quux", "whoop"}

		// check for all partial sequence.
		for l := range haystack {
			length := l + 1
			for nth := range haystack[:len(haystack)-l] {
				needle := haystack[nth : nth+length]
				if len(needle) < 1 {
					break
				}
				if !cmp.SliceContains(haystack, needle) {
					t.Errorf("SliceContains do not found %v from %v", needle, haystack)
				}
			}
		}
	})

	t.Run("SliceContains does not detect a pattern not in haystack", func(t *testing.T) {
		haystack := []string{"foo", "bar", "baz", "quux", "whoop"}

		for _, needle := range [][]string{
			{"there", "are", "not"},
			{"foo", "bar", "baz", "quux", "whoop", "!"},
			{"^", "foo", "bar", "baz", "quux", "whoop"},
		} {
			if cmp.SliceContains(haystack, needle) {
				t.Errorf("SliceContains unexpectedly finds %v in %v", needle, haystack)
			}
		}
	})

	t.Run("SliceContains find empty pattern", func(t *testing.T) {
		for _, haystack := range [][]string{
			{},
			{"a", "b", "c"},
		} {
			if !cmp.SliceContains(haystack, []string{}) {
				t.Errorf("SliceContains cannot find empty pattern from %v", haystack)
			}
		}
	})
}

func TestSliceContentEq(t *testing.T) {
	type when struct {
		a []string
		b []string
	}
	type testcase struct {
		when     when
		expected bool
	}
	for _, testcase := range []testcase{
		{
			when: when{
				a: []string{"a", "b", "c"},
				b: []string{"a", "b", "c"},
			},
			expected: true,
		},
		{
			when: when{
				a: []string{"a", "b", "c"},
				b: []string{"c", "a", "b"},
			},
			expected: true,
		},
		{
			when: when{
				a: []string{"a", "b", "b"},
				b: []string{"a", "a", "b"},
			},
			expected: false,
		},
		{
			when: when{
				a: []string{"a", "b", "c"},
				b: []string{"a", "b", "d"},
			},
			expected: false,
		},
		{
			when: when{
				a: []string{"a", "b", "c"},
				b: []string{"a", "b"},
			},
			expected: false,
		},
	} {
		testcase := testcase
		t.Run(fmt.Sprintf("comparing %v and %v", testcase.when.a, testcase.when.b), func(t *testing.T) {
			if cmp.SliceContentEq(testcase.when.a, testcase.when.b) != testcase.expected {
				t.Errorf(
					"SliceContentEq(%v, %v) != %v",
					testcase.when.a, testcase.when.b, testcase.expected,
				)
			}
			if cmp.SliceContentEq(testcase.when.b, testcase.when.a) != testcase.expected {
				t.Errorf(
					"SliceContentEq(%v, %v) != %v",
					testcase.when.b, testcase.when.a, testcase.expected,
				)
			}
		})
	}
}
