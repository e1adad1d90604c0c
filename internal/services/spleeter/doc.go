// Package spleeter wraps the spleeter command line tool for two-stem
// source separation.
//
// The Service satisfies stage.Separator. Spleeter writes its stems into a
// nested scratch directory; Separate flattens them into the song work dir
// as vocals.wav and instrumental.wav and removes the scratch directory.
package spleeter
