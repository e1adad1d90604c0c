// Package video renders the final karaoke video.
//
// The Renderer satisfies stage.Renderer. A single ffmpeg invocation
// composes the background (looped image or video, or a synthesized
// gradient), an audio visualizer overlay, and the burned-in ASS captions
// over the instrumental track. Every rendered file is probed afterwards;
// a container without a positive duration fails the stage.
package video
