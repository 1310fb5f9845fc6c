// ABOUTME: Preview package for remote listening
// ABOUTME: Provides the WebSocket server and listener for the live mix
// Package preview serves the live mix to remote listeners over WebSocket.
//
// A listener connecting to /preview first receives a JSON "format" message,
// then binary frames of an 8-byte big-endian start time in microseconds
// followed by s16le PCM. Server implements output.Observer so it can sit
// behind an output.Tee on the playback path.
package preview
