// Package deps checks the availability of the external tools the pipeline
// shells out to (yt-dlp, spleeter, ffmpeg, ffprobe, uvx).
package deps
