// ABOUTME: Audio output package for playing and recording the mix
// ABOUTME: Provides Output interface with oto, WAV, Opus, tee and null implementations
// Package output provides sinks for mixed PCM.
//
// Every Output reports the largest write it takes at once through
// BufferSize, so it can be driven directly by the mix engine.
//
// Example:
//
//	out := output.NewOto(8192, 0)
//	err := out.Open(audio.DefaultFormat())
//	n, err := out.Write(pcm)
package output
