package objectstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/lakekit/lakekit/utils"
)

type (
	S3Store struct {
		bucket     string
		uploader   *s3manager.Uploader
		downloader *s3manager.Downloader
		client     *s3.S3
	}
)

// NewS3Store builds a store over one S3 session, configured from the AWS_*
// and S3_* env vars.
func NewS3Store(bucket string) (*S3Store, error) {
	s3Config := &aws.Config{
		Region:      aws.String(utils.AWS_DEFAULT_REGION),
		Credentials: credentials.NewEnvCredentials(),
	}
	if utils.S3_ENDPOINT != "" {
		s3Config.Endpoint = aws.String(utils.S3_ENDPOINT)
		s3Config.S3ForcePathStyle = aws.Bool(true)
	}

	s3Session, err := session.NewSession(s3Config)
	if err != nil {
		return nil, fmt.Errorf("error making new session: %w", err)
	}

	return &S3Store{
		bucket:     bucket,
		uploader:   s3manager.NewUploader(s3Session),
		downloader: s3manager.NewDownloader(s3Session),
		client:     s3.New(s3Session),
	}, nil
}

func (ss *S3Store) WriteBytes(ctx context.Context, key string, data []byte) error {
	if key == "" {
		return fmt.Errorf("empty key: %w", ErrInvalidKey)
	}

	s := time.Now()
	_, err := ss.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(ss.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("error uploading to s3: %w", err)
	}

	d := time.Since(s)
	logger.Debug().Str("key", key).Int64("durationNS", d.Nanoseconds()).Str("durationHuman", d.String()).Msg("uploaded object to s3")
	return nil
}

func (ss *S3Store) WriteText(ctx context.Context, key, content string) error {
	return ss.WriteBytes(ctx, key, []byte(content))
}

func (ss *S3Store) WriteJSON(ctx context.Context, key string, v any) error {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("error in json.Marshal: %w", err)
	}
	return ss.WriteBytes(ctx, key, jsonBytes)
}

func (ss *S3Store) ReadBytes(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, fmt.Errorf("empty key: %w", ErrInvalidKey)
	}

	buf := &aws.WriteAtBuffer{}
	_, err := ss.downloader.DownloadWithContext(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(ss.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("error downloading from s3: %w", err)
	}
	return buf.Bytes(), nil
}

func (ss *S3Store) ReadText(ctx context.Context, key string) (string, error) {
	data, err := ss.ReadBytes(ctx, key)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (ss *S3Store) ReadJSON(ctx context.Context, key string, out any) error {
	data, err := ss.ReadBytes(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("error in json.Unmarshal: %w", err)
	}
	return nil
}

func (ss *S3Store) Delete(ctx context.Context, key string, missingOK bool) error {
	if !missingOK {
		exists, err := ss.Exists(ctx, key)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("key '%s' does not exist: %w", key, ErrInvalidKey)
		}
	}

	_, err := ss.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(ss.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("error deleting from s3: %w", err)
	}
	return nil
}

func (ss *S3Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := ss.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(ss.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		// HeadObject returns a 404 for missing keys
		return false, nil
	}
	return true, nil
}

func (ss *S3Store) List(ctx context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0)
	err := ss.client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(ss.bucket),
		Prefix: aws.String(prefix),
	}, func(page *s3.ListObjectsV2Output, _ bool) bool {
		for _, obj := range page.Contents {
			keys = append(keys, aws.StringValue(obj.Key))
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("error listing s3 objects: %w", err)
	}
	return keys, nil
}

func (ss *S3Store) Shutdown(_ context.Context) error {
	return nil
}
