package dartrie

import (
	"errors"
	"testing"
)

// TestDefineNodeReportsScaleExceeded confirms defineNode surfaces
// ErrScaleExceeded once growth would take the array past its cellLimit,
// without requiring an actual offsetMask-sized array to exercise the path.
func TestDefineNodeReportsScaleExceeded(t *testing.T) {
	a := newArrayWithLimit(1, 2)

	_, err := a.defineNode(0, []uint32{1, 2, 3})
	if err == nil {
		t.Fatal("defineNode: got nil error, want ErrScaleExceeded")
	}
	if !errors.Is(err, ErrScaleExceeded) {
		t.Errorf("defineNode: err = %v, want errors.Is(err, ErrScaleExceeded)", err)
	}
}

// TestExtendRespectsCellLimit confirms extend itself refuses to grow the
// array past cellLimit, independent of defineNode's retry loop.
func TestExtendRespectsCellLimit(t *testing.T) {
	a := newArrayWithLimit(1, 2)

	if err := a.extend(); err == nil {
		t.Fatal("extend: got nil error, want ErrScaleExceeded")
	} else if !errors.Is(err, ErrScaleExceeded) {
		t.Errorf("extend: err = %v, want errors.Is(err, ErrScaleExceeded)", err)
	}
}

// TestFromKeysSurfacesScaleExceeded confirms a real build path propagates
// ErrScaleExceeded up through arrangeNodes rather than swallowing it.
func TestFromKeysSurfacesScaleExceeded(t *testing.T) {
	// Four keys need ten cells (root, "a", four children, four leaves),
	// more than the initial eight-cell block, so the build must extend.
	recs, mapper, err := prepareRecordsOrdered([]string{"ab", "ac", "ad", "ae"}, []uint32{0, 1, 2, 3}, FrequencyOrder)
	if err != nil {
		t.Fatalf("prepareRecordsOrdered: %v", err)
	}

	b := &trieBuilder{array: newArrayWithLimit(mapper.alphabetSize(), 2), mapper: mapper}
	if err := b.arrangeNodes(recs, 0, len(recs), 0, 0); !errors.Is(err, ErrScaleExceeded) {
		t.Errorf("arrangeNodes: err = %v, want errors.Is(err, ErrScaleExceeded)", err)
	}
}
