package handlers

import (
	"dicom-viewer/internal/filesystem"
)

// openWithRetry opens indexed files, retrying on NFS stale file handle errors
var openWithRetry = filesystem.OpenWithRetry
