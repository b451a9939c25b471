package media

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"restreamer/internal/storage"
	"restreamer/internal/stream"

	"github.com/pkg/errors"
)

// Video describes one file in the media root, as listed by GET /videos.
type Video struct {
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
	Path         string    `json:"path"`
}

// Service manages the local media root: the directory of source files
// eligible for streaming. The registry is consulted before deletes so a file
// backing a live session cannot be pulled out from under its process.
type Service struct {
	root      string
	videoExts []string
	registry  *stream.Registry
	storage   *storage.Service
}

func NewService(root string, videoExts []string, registry *stream.Registry, store *storage.Service) (*Service, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, errors.Wrap(err, "creating media root")
	}
	return &Service{
		root:      root,
		videoExts: videoExts,
		registry:  registry,
		storage:   store,
	}, nil
}

// List returns the video files in the media root, newest first.
func (s *Service) List() ([]Video, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, errors.Wrap(err, "reading media root")
	}

	videos := []Video{}
	for _, entry := range entries {
		if entry.IsDir() || !s.isVideo(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		videos = append(videos, Video{
			Name:         entry.Name(),
			Size:         info.Size(),
			LastModified: info.ModTime(),
			Path:         "/" + entry.Name(),
		})
	}

	sort.Slice(videos, func(i, j int) bool {
		return videos[i].LastModified.After(videos[j].LastModified)
	})
	return videos, nil
}

// Delete removes a file from the media root. The registry is the source of
// truth for "in use": deleting the source of a live stream is rejected.
func (s *Service) Delete(fileName string) error {
	fileName = filepath.Base(fileName)

	if s.registry.InUse(fileName) {
		return stream.ErrFileInUse
	}

	path := filepath.Join(s.root, fileName)
	if _, err := os.Stat(path); err != nil {
		return errors.Wrapf(stream.ErrFileNotFound, "%s", fileName)
	}

	return errors.Wrapf(os.Remove(path), "deleting %s", fileName)
}

// Fetch downloads an object from the bucket into the media root and returns
// the local file name. The file name is the last path segment of the key.
func (s *Service) Fetch(ctx context.Context, key string) (string, error) {
	if s.storage == nil {
		return "", storage.ErrNotInitialized
	}

	fileName := filepath.Base(strings.TrimSuffix(key, "/"))
	if fileName == "." || fileName == "/" {
		fileName = "downloaded_video.mp4"
	}

	dest := filepath.Join(s.root, fileName)
	if _, err := s.storage.DownloadToFile(ctx, key, dest); err != nil {
		return "", err
	}
	return fileName, nil
}

func (s *Service) isVideo(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range s.videoExts {
		if ext == allowed {
			return true
		}
	}
	return false
}
