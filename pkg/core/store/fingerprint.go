package store

import (
	"crypto/md5"
	"encoding/hex"
)

// Fingerprint returns the idempotency key of a filing: the MD5 hex digest of
// document number followed by report date. Without a document number the
// pair is not distinctive, so the raw filing bytes are hashed instead.
func Fingerprint(documentNumber, reportDate string, raw []byte) string {
	if documentNumber == "" {
		sum := md5.Sum(raw)
		return hex.EncodeToString(sum[:])
	}
	sum := md5.Sum([]byte(documentNumber + reportDate))
	return hex.EncodeToString(sum[:])
}
