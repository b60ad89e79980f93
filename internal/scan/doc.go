// Package scan discovers candidate video files under a root directory and
// partitions them across shards.
//
// Extensions decide most files. Known sidecar and image extensions are
// rejected outright; anything else is sniffed for a video MIME type. The
// result is sorted by full path so every shard sees the same order.
package scan
