// Package collector filters a live stream of captured frames.
//
// A capture source delivers pixel buffers to Ingest. Each buffer is handed
// over a capacity-1 channel to a single processing goroutine, which wraps
// it as a texture, runs the configured filter chain and delivers the
// result to the callback on the main dispatcher. Ingest returns only after
// the callback returned, so a slow consumer stalls the source instead of
// queueing frames in memory, and no two frames are ever processed at once.
//
// Frames that cannot be wrapped or filtered are dropped. Drops are counted
// in Stats and logged, and never stop the stream.
package collector
