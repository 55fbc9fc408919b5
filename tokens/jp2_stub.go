//go:build !(openjpeg && cgo)

package tokens

// JPEG 2000 pages need the openjpeg build tag and libopenjp2.
const jp2Supported = false
