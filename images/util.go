package images

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"

	"gocv.io/x/gocv"
)

// ComputeMatChecksum generates a deterministic checksum for a Mat to verify idempotency.
//
// The digest covers the geometry and element type as well as the pixels, so a
// gray and an RGBA buffer with coincidentally equal bytes never collide.
//
// Arguments:
// - mat: The Mat to compute checksum for.
//
// Returns:
// - A hex-encoded MD5 checksum string, or "empty" for an empty Mat.
//
// Example:
//
// ```go
//
//	before := ComputeMatChecksum(out)
//	_ = filters.Grayscale(frame.ViewOf(&in), &out)
//	fmt.Println(before == ComputeMatChecksum(out))
//
// ```
func ComputeMatChecksum(mat gocv.Mat) string {
	if mat.Empty() {
		return "empty"
	}

	var header [12]byte
	binary.LittleEndian.PutUint32(header[0:], uint32(mat.Rows()))
	binary.LittleEndian.PutUint32(header[4:], uint32(mat.Cols()))
	binary.LittleEndian.PutUint32(header[8:], uint32(mat.Type()))

	hash := md5.New()
	hash.Write(header[:])
	hash.Write(mat.ToBytes())
	return fmt.Sprintf("%x", hash.Sum(nil))
}
