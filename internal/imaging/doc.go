// Package imaging provides the pixel-level primitives used by form
// extraction: decoding scans, cropping field regions, conditioning regions
// for recognition and rendering debug overlays.
//
// # Coordinate System
//
// All rectangles are 0-based image space: (0,0) is the top-left pixel of the
// scan, X grows rightward and Y downward. Min is inclusive and Max exclusive,
// following image.Rectangle.
//
// # Conditioning
//
// Condition runs a fixed pipeline on a cropped region: grayscale reduction,
// global Otsu binarization and a 3x3 median filter. It is deterministic and
// total over any region of at least MinRegionSide pixels per side; smaller
// regions fail with ErrRegionTooSmall.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. The other functions are stateless,
// never modify their inputs and may be called concurrently on the same
// source image.
//
// # Error Handling
//
// Decoding failures of any kind (missing file, unreadable file, unknown
// format) match ErrImageNotFound.
package imaging
