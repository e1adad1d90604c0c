// Command kantori is the CLI for the karaoke video production pipeline:
// queue management, single-song processing, and batch runs.
package main
