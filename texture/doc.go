// Package texture exposes captured pixel buffers as device textures.
//
// ToTexture wraps a PixelBuffer without copying where the backend can share
// host memory (the software backend) and uploads into a reused device buffer
// otherwise (the native backend). A Cache, bound to one device, keeps the
// wrapper of each recurring capture buffer so a camera ring of a few
// buffers never allocates per frame.
//
// A wrapped texture is valid only while the caller keeps the pixel buffer
// alive and unmodified.
package texture
