package blobstore

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// Key prefixes, one per kind of uploaded file
const (
	PrefixCertificates = "certificates/"
	PrefixPlanning     = "planning/"
	PrefixProfiles     = "profiles/"
)

// CertificateKey is certificates/<uid>/<filename>
func CertificateKey(ownerID uint, filename string) string {
	return fmt.Sprintf("%s%d/%s", PrefixCertificates, ownerID, sanitizeName(filename))
}

// PlanningKey is planning/<uid>_<unix millis><ext>
func PlanningKey(ownerID uint, filename string, now time.Time) string {
	ext := strings.ToLower(path.Ext(sanitizeName(filename)))
	if ext == "" {
		ext = ".pdf"
	}
	return fmt.Sprintf("%s%d_%d%s", PrefixPlanning, ownerID, now.UnixMilli(), ext)
}

// ProfilePhotoKey is profiles/<uid>/<filename>
func ProfilePhotoKey(ownerID uint, filename string) string {
	return fmt.Sprintf("%s%d/%s", PrefixProfiles, ownerID, sanitizeName(filename))
}

// sanitizeName keeps the last path element so a filename cannot escape its prefix
func sanitizeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	if name == "." || name == "/" || name == ".." {
		return "file"
	}
	return name
}
