//go:build filterdebug

package registry

const debugBuild = true
