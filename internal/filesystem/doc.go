/*
Package filesystem provides resilient filesystem operations with automatic retry logic
for NFS stale file handle errors.

Exports are often browsed straight off a NAS. Directory scans, stats and the
renames that make up a repair transaction go through StatWithRetry,
ReadDirWithRetry and RenameWithRetry, which retry ESTALE with exponential
backoff and fall straight through for every other error.

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())

Retry metrics are reported through an Observer registered with SetObserver;
VolumeResolver labels them by configured volume ("chat_media", "memories").
*/
package filesystem
