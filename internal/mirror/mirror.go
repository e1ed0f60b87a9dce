// Package mirror keeps a single well-known cloud folder in sync with the
// local photo attachments. The folder is a key prefix in an S3-compatible
// bucket; files are keyed by filename, and a file already present remotely
// is never uploaded again.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/tastebookapp/tastebook/internal/filex"
	"github.com/tastebookapp/tastebook/internal/logging"
	"github.com/tastebookapp/tastebook/internal/models"
	"github.com/tastebookapp/tastebook/internal/repositories/photos"
)

// Config carries the object-store connection settings.
type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	// Folder is the well-known key prefix dedicated to this application's
	// photos, e.g. "tastebook-photos".
	Folder string
}

// objectAPI is the subset of the S3 client the mirror uses. *s3.Client
// satisfies it; tests substitute a fake.
type objectAPI interface {
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

var loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

// Mirror uploads local photo files into the cloud photo folder.
type Mirror struct {
	api       objectAPI
	bucket    string
	folder    string
	photoRepo photos.Repository
	log       logging.Logger
}

// New builds a Mirror with an S3 client configured for a custom endpoint
// and static credentials.
func New(ctx context.Context, cfg Config, repo photos.Repository, log logging.Logger) (*Mirror, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	})

	return NewWithAPI(client, cfg.Bucket, cfg.Folder, repo, log), nil
}

// NewWithAPI wires a Mirror onto an existing object API. Used by tests.
func NewWithAPI(api objectAPI, bucket, folder string, repo photos.Repository, log logging.Logger) *Mirror {
	return &Mirror{
		api:       api,
		bucket:    strings.TrimSpace(bucket),
		folder:    strings.Trim(folder, "/"),
		photoRepo: repo,
		log:       log,
	}
}

// markerKey is the zero-byte object that makes the folder addressable
// before any photo has been uploaded.
func (m *Mirror) markerKey() string { return m.folder + "/.folder" }

func (m *Mirror) objectKey(name string) string { return path.Join(m.folder, name) }

// EnsureFolder resolves the application's photo folder, creating its marker
// object when absent.
func (m *Mirror) EnsureFolder(ctx context.Context) error {
	key := m.markerKey()
	_, err := m.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("resolve photo folder: %w", err)
	}

	_, err = m.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
		Body:   strings.NewReader(""),
	})
	if err != nil {
		return fmt.Errorf("create photo folder: %w", err)
	}
	return nil
}

// listRemote returns the filenames currently present in the photo folder.
func (m *Mirror) listRemote(ctx context.Context) (map[string]struct{}, error) {
	names := make(map[string]struct{})
	prefix := m.folder + "/"

	var token *string
	for {
		out, err := m.api.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(m.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("list photo folder: %w", err)
		}
		for _, obj := range out.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if name == "" || name == ".folder" {
				continue
			}
			names[name] = struct{}{}
		}
		if out.NextContinuationToken == nil {
			break
		}
		token = out.NextContinuationToken
	}
	return names, nil
}

// SyncAll mirrors every pending local attachment whose backing file still
// exists into the cloud folder. A per-file upload failure skips that file
// only; folder resolution, listing, and connection-level failures abort
// the whole job so the orchestrator's retry policy can re-trigger it.
func (m *Mirror) SyncAll(ctx context.Context) error {
	if err := m.EnsureFolder(ctx); err != nil {
		return err
	}

	remote, err := m.listRemote(ctx)
	if err != nil {
		return err
	}

	pending, err := m.photoRepo.PendingUpload(ctx)
	if err != nil {
		return fmt.Errorf("list pending photos: %w", err)
	}

	for _, p := range pending {
		if !filex.Readable(p.URI) {
			continue
		}
		name := remoteName(p)
		if _, ok := remote[name]; ok {
			if err := m.photoRepo.MarkUploaded(ctx, p.ID, name); err != nil {
				m.log.Warn(ctx, "mark uploaded failed", "photo", p.ID, "error", err)
			}
			continue
		}
		if err := m.upload(ctx, name, p.URI); err != nil {
			if connectionError(err) {
				return err
			}
			m.log.Warn(ctx, "photo upload failed", "photo", p.ID, "name", name, "error", err)
			continue
		}
		if err := m.photoRepo.MarkUploaded(ctx, p.ID, name); err != nil {
			m.log.Warn(ctx, "mark uploaded failed", "photo", p.ID, "error", err)
		}
	}
	return nil
}

// PutIfAbsent uploads a single photo right after it was added, skipping
// the upload when a file of the same name already exists remotely.
func (m *Mirror) PutIfAbsent(ctx context.Context, p models.Photo) error {
	if err := m.EnsureFolder(ctx); err != nil {
		return err
	}

	name := remoteName(p)
	_, err := m.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(m.objectKey(name)),
	})
	if err == nil {
		return m.photoRepo.MarkUploaded(ctx, p.ID, name)
	}
	if !isNotFound(err) {
		return fmt.Errorf("check remote photo: %w", err)
	}

	if err := m.upload(ctx, name, p.URI); err != nil {
		return err
	}
	return m.photoRepo.MarkUploaded(ctx, p.ID, name)
}

func (m *Mirror) upload(ctx context.Context, name, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	_, err = m.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(m.objectKey(name)),
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", name, err)
	}
	return nil
}

// remoteName derives the stable remote filename for a photo: the content
// hash plus the local file's extension, so renamed local files do not
// produce duplicate uploads.
func remoteName(p models.Photo) string {
	ext := filepath.Ext(p.URI)
	return p.Hash + ext
}

// connectionError reports failures of the transport itself, as opposed to
// the store rejecting one object.
func connectionError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nk *types.NoSuchKey
	return errors.As(err, &nk)
}
