package storage

import (
	"context"
	"io"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"restreamer/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
)

// ErrNotInitialized is returned when storage credentials were not configured
// at startup. The server still boots; only the bucket endpoints fail.
var ErrNotInitialized = errors.New("storage client not initialized")

// Object is one bucket entry as returned by GET /storage/objects. Folders
// are synthesized from common prefixes the way S3 consoles do.
type Object struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
	IsFolder     bool      `json:"isFolder"`
}

// Stats aggregates the whole bucket.
type Stats struct {
	StorageUsed int64 `json:"storageUsed"`
	ObjectCount int   `json:"objectCount"`
}

// Service wraps the S3-compatible bucket (an R2 bucket in the original
// deployment: custom endpoint, path-style addressing, region "auto").
type Service struct {
	client *s3.Client
	bucket string
}

// New builds the storage client, or returns nil when the credentials are
// incomplete so the caller can keep the bucket endpoints disabled.
func New(ctx context.Context, c config.StorageConfig) (*Service, error) {
	if !c.Configured() {
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, errors.Wrap(err, "loading storage config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(c.Endpoint)
		o.UsePathStyle = true
	})

	return &Service{client: client, bucket: c.Bucket}, nil
}

// List returns the objects directly under prefix, with folders synthesized
// from common prefixes. Pagination is followed to exhaustion.
func (s *Service) List(ctx context.Context, prefix string) ([]Object, error) {
	objects := []Object{}
	var continuation *string

	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(prefix),
			Delimiter:         aws.String("/"),
			ContinuationToken: continuation,
		})
		if err != nil {
			return nil, errors.Wrap(err, "listing objects")
		}

		for _, cp := range out.CommonPrefixes {
			objects = append(objects, Object{
				Key:      aws.ToString(cp.Prefix),
				IsFolder: true,
			})
		}
		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			// Skip the zero-byte placeholder for the prefix itself.
			if key == prefix {
				continue
			}
			objects = append(objects, Object{
				Key:          key,
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}

		if !aws.ToBool(out.IsTruncated) {
			return objects, nil
		}
		continuation = out.NextContinuationToken
	}
}

// listRecursive returns every object under prefix, folders included.
func (s *Service) listRecursive(ctx context.Context, prefix string) ([]Object, error) {
	objects := []Object{}
	var continuation *string

	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: continuation,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "listing objects under %s", prefix)
		}

		for _, obj := range out.Contents {
			objects = append(objects, Object{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}

		if !aws.ToBool(out.IsTruncated) {
			return objects, nil
		}
		continuation = out.NextContinuationToken
	}
}

// Stats walks the whole bucket and aggregates size and object count.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	objects, err := s.listRecursive(ctx, "")
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{ObjectCount: len(objects)}
	for _, obj := range objects {
		stats.StorageUsed += obj.Size
	}
	return stats, nil
}

// CreateFolder writes the zero-byte placeholder object that stands in for a
// folder.
func (s *Service) CreateFolder(ctx context.Context, path string) error {
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
		Body:   strings.NewReader(""),
	})
	return errors.Wrapf(err, "creating folder %s", path)
}

// Delete removes an object. A key ending in "/" is treated as a folder and
// removed recursively.
func (s *Service) Delete(ctx context.Context, key string) error {
	keys := []string{key}
	if strings.HasSuffix(key, "/") {
		nested, err := s.listRecursive(ctx, key)
		if err != nil {
			return err
		}
		for _, obj := range nested {
			if obj.Key != key {
				keys = append(keys, obj.Key)
			}
		}
	}

	for _, k := range keys {
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(k),
		})
		if err != nil {
			return errors.Wrapf(err, "deleting %s", k)
		}
	}
	return nil
}

// Rename moves an object (or a folder of objects) via copy-then-delete; S3
// has no native rename.
func (s *Service) Rename(ctx context.Context, oldKey, newKey string) error {
	if strings.HasSuffix(oldKey, "/") {
		nested, err := s.listRecursive(ctx, oldKey)
		if err != nil {
			return err
		}
		for _, obj := range nested {
			dest := newKey + strings.TrimPrefix(obj.Key, oldKey)
			if err := s.copyObject(ctx, obj.Key, dest); err != nil {
				return err
			}
		}
		return s.Delete(ctx, oldKey)
	}

	if err := s.copyObject(ctx, oldKey, newKey); err != nil {
		return err
	}
	return s.Delete(ctx, oldKey)
}

func (s *Service) copyObject(ctx context.Context, oldKey, newKey string) error {
	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucket),
		CopySource: aws.String(s.bucket + "/" + url.PathEscape(oldKey)),
		Key:        aws.String(newKey),
	})
	return errors.Wrapf(err, "copying %s to %s", oldKey, newKey)
}

// DownloadToFile streams an object into a local file, logging progress for
// large transfers, and returns the number of bytes written.
func (s *Service) DownloadToFile(ctx context.Context, key, dest string) (int64, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, errors.Wrapf(err, "fetching %s", key)
	}
	defer out.Body.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return 0, errors.Wrap(err, "creating destination directory")
	}

	f, err := os.Create(dest)
	if err != nil {
		return 0, errors.Wrapf(err, "creating %s", dest)
	}
	defer f.Close()

	written, err := io.Copy(f, &progressReader{
		r:     out.Body,
		key:   key,
		total: aws.ToInt64(out.ContentLength),
	})
	if err != nil {
		os.Remove(dest)
		return 0, errors.Wrapf(err, "writing %s", dest)
	}

	log.Printf("storage: downloaded %s (%d bytes)", key, written)
	return written, nil
}

// progressReader logs transfer progress roughly every 16MB.
type progressReader struct {
	r     io.Reader
	key   string
	total int64
	read  int64
	mark  int64
}

const progressStep = 16 << 20

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	p.read += int64(n)
	if p.read-p.mark >= progressStep {
		p.mark = p.read
		if p.total > 0 {
			log.Printf("storage: downloading %s: %d/%d bytes", p.key, p.read, p.total)
		} else {
			log.Printf("storage: downloading %s: %d bytes", p.key, p.read)
		}
	}
	return n, err
}
