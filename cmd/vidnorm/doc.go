// Command vidnorm converts a directory tree of video files into
// browser-playable MP4 (H.264, compatible audio, fast-start), skipping files
// that already qualify and recording every outcome so repeated runs resume.
//
// Usage:
//
//	vidnorm [flags] <directory>
//	vidnorm state <directory>
//	vidnorm deps
//	vidnorm config init
package main
