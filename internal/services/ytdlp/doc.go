// Package ytdlp wraps the yt-dlp command line tool to download source
// recordings and extract their audio as WAV files.
//
// The Service satisfies stage.Fetcher. Tests can substitute the external
// command via WithCommandRunner.
package ytdlp
