package capture

import "gocv.io/x/gocv"

// newFrame rotates mat upright in place and wraps it with its metadata.
func newFrame(mat gocv.Mat, ts int64, rotation int, front bool) *Frame {
	if flag, ok := rotateFlag(rotation); ok {
		rotated := gocv.NewMat()
		gocv.Rotate(mat, &rotated, flag)
		mat.Close()
		mat = rotated
	}

	return &Frame{
		Image:       &mat,
		TimestampMs: ts,
		Width:       mat.Cols(),
		Height:      mat.Rows(),
		Rotation:    rotation,
		Front:       front,
	}
}

func rotateFlag(deg int) (gocv.RotateFlag, bool) {
	switch deg {
	case 90:
		return gocv.Rotate90Clockwise, true
	case 180:
		return gocv.Rotate180Clockwise, true
	case 270:
		return gocv.Rotate90CounterClockwise, true
	}
	return 0, false
}
