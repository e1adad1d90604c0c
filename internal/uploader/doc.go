// Package uploader publishes rendered karaoke videos to YouTube via the
// resumable upload protocol.
//
// The Uploader satisfies stage.Uploader. It is the only stage with internal
// retry: 5xx responses, rate limits, and network errors are retried with
// backoff, while auth and quota failures surface immediately.
package uploader
