/*
Package filesystem wraps os.Stat and os.Open with retry logic for NFS stale
file handle errors (ESTALE).

DICOM archives are frequently mounted from network storage. A slice request
that races a server-side change can see ESTALE even though the file is
intact; retrying a handful of times with capped exponential backoff hides
that from the viewer. Any other error is returned on the first attempt.

	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
	    return err
	}
	defer f.Close()

Operations are labelled with a volume name resolved by longest-prefix match
against the configured roots (see VolumeResolver) and reported through an
Observer, which the metrics package implements.
*/
package filesystem
