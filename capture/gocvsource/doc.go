// Package gocvsource feeds frames from an OpenCV video capture into a
// collector.
//
// The package needs OpenCV and is only built with the gocv tag:
//
//	go build -tags gocv ./...
package gocvsource
