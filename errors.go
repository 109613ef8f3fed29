package lodrecon

import "errors"

// Sentinel errors, one per failure mode, in the teacher's errors.go style
// (one exported errors.New var per named condition rather than a hierarchy
// of error types).
var (
	ErrNoSource          = errors.New("no source meets the minimum density requirement")
	ErrPolygonDegenerate = errors.New("footprint ring has zero area")
	ErrPlaneDetection    = errors.New("plane detection produced zero planes")
	ErrArrangement       = errors.New("2D arrangement construction failed")
	ErrMeshNotClosed     = errors.New("mesh is not water-tight")
	ErrReaderIO          = errors.New("point cloud reader I/O error")
	ErrConfig            = errors.New("invalid configuration")
)
