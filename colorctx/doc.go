// Package colorctx caches color-managed rendering contexts, one per color
// space.
//
// A Context converts frames into its color space through a linear working
// space by running the bundled color_convert kernel on the registry
// device. There is no CPU conversion path: when the device cannot run the
// kernel, Render fails.
package colorctx
