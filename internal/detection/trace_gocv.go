//go:build gocv

package detection

import (
	"fmt"

	"gocv.io/x/gocv"
)

func init() {
	traceBorders = traceBordersOpenCV
}

// Fields of an OpenCV contour hierarchy entry.
const (
	hierNext = iota
	hierPrev
	hierChild
	hierParent
)

// traceBordersOpenCV traces every border with OpenCV's full hierarchy and
// reports it in the same form as followBorders: a border is a hole when it
// is nested an odd number of levels deep.
func traceBordersOpenCV(bin []uint8, width, height int) ([]border, error) {
	data := make([]byte, len(bin))
	for i, v := range bin {
		if v != 0 {
			data[i] = 255
		}
	}

	mat, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC1, data)
	if err != nil {
		return nil, fmt.Errorf("failed to build mat: %w", err)
	}
	defer mat.Close()

	hierarchy := gocv.NewMat()
	defer hierarchy.Close()

	contours := gocv.FindContoursWithParams(mat, &hierarchy, gocv.RetrievalTree, gocv.ChainApproxSimple)
	defer contours.Close()

	n := contours.Size()
	parents := make([]int, n)
	for i := 0; i < n; i++ {
		parents[i] = int(hierarchy.GetVeciAt(0, i)[hierParent])
	}

	borders := make([]border, n)
	for i := 0; i < n; i++ {
		depth := 0
		for p := parents[i]; p >= 0; p = parents[p] {
			depth++
		}
		borders[i] = border{
			points: contours.At(i).ToPoints(),
			hole:   depth%2 == 1,
			parent: parents[i],
		}
	}
	return borders, nil
}
