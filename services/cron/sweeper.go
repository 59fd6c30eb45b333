package cron

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sahilchouksey/intern-track/model"
	"github.com/sahilchouksey/intern-track/services/blobstore"
)

var sweptPrefixes = []string{
	blobstore.PrefixCertificates,
	blobstore.PrefixPlanning,
	blobstore.PrefixProfiles,
}

// SweepOrphanBlobs deletes stored objects that no record points at. They
// are left behind when an upload completes but its record write fails.
func (m *CronManager) SweepOrphanBlobs(ctx context.Context) (string, error) {
	if m.store == nil {
		return "no blob store configured", nil
	}

	referenced, err := m.referencedKeys(ctx)
	if err != nil {
		return "", err
	}

	cutoff := m.now().Add(-m.OrphanMinAge)
	var scanned, deleted int
	var failures []string

	for _, prefix := range sweptPrefixes {
		objects, err := m.store.ListFiles(ctx, prefix)
		if err != nil {
			return "", fmt.Errorf("failed to list %s: %w", prefix, err)
		}

		for _, obj := range objects {
			scanned++
			if referenced[obj.Key] || obj.LastModified.After(cutoff) {
				continue
			}
			if err := m.store.DeleteFile(ctx, obj.Key); err != nil {
				failures = append(failures, obj.Key)
				m.logger.Warn("failed to delete orphan blob", zap.String("key", obj.Key), zap.Error(err))
				continue
			}
			deleted++
			m.logger.Info("deleted orphan blob", zap.String("key", obj.Key), zap.Int64("bytes", obj.Size))
		}
	}

	msg := fmt.Sprintf("scanned %d objects, %s deleted", scanned, formatCount(int64(deleted), "orphan", "orphans"))
	if len(failures) > 0 {
		return msg, fmt.Errorf("failed to delete %d orphans: %s", len(failures), strings.Join(failures, ", "))
	}
	return msg, nil
}

// referencedKeys collects every object key a record points at, either by
// storage key or through its public URL
func (m *CronManager) referencedKeys(ctx context.Context) (map[string]bool, error) {
	db := m.db.WithContext(ctx)
	keys := make(map[string]bool)

	var certs []model.Certificate
	if err := db.Select("storage_key", "file_url").Find(&certs).Error; err != nil {
		return nil, fmt.Errorf("failed to load certificates: %w", err)
	}
	for _, c := range certs {
		if c.StorageKey != "" {
			keys[c.StorageKey] = true
		}
		addURLKey(keys, c.FileURL)
	}

	var planURLs []string
	if err := db.Model(&model.Plan{}).Where("file_url IS NOT NULL").Pluck("file_url", &planURLs).Error; err != nil {
		return nil, fmt.Errorf("failed to load plans: %w", err)
	}
	for _, u := range planURLs {
		addURLKey(keys, u)
	}

	var photoURLs []string
	if err := db.Unscoped().Model(&model.User{}).Where("photo_url <> ''").Pluck("photo_url", &photoURLs).Error; err != nil {
		return nil, fmt.Errorf("failed to load profile photos: %w", err)
	}
	for _, u := range photoURLs {
		addURLKey(keys, u)
	}

	return keys, nil
}

// addURLKey recovers the object key from a public URL by its known prefix
func addURLKey(keys map[string]bool, url string) {
	for _, prefix := range sweptPrefixes {
		if i := strings.Index(url, "/"+prefix); i >= 0 {
			keys[url[i+1:]] = true
			return
		}
	}
}

func formatCount(n int64, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}
