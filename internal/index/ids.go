package index

import (
	"crypto/md5"
	"encoding/hex"
)

// IDLength is the width, in hex characters, of a derived identifier.
const IDLength = 12

// DeriveID maps a DICOM unique identifier to a short, URL-safe token: the
// first 12 hex characters of its MD5 digest.
func DeriveID(uid string) string {
	sum := md5.Sum([]byte(uid))
	return hex.EncodeToString(sum[:])[:IDLength]
}
