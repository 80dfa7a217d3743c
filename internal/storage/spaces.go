package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/rs/zerolog/log"
)

// SpacesStorage keeps media in a DigitalOcean Spaces (S3 compatible) bucket
// served through a CDN.
type SpacesStorage struct {
	client s3iface.S3API
	bucket string
	cdnURL string
	now    func() time.Time
}

func NewSpacesStorage(endpoint, region, bucket, cdnURL, accessKey, secretKey string) (*SpacesStorage, error) {
	config := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
		Endpoint:         aws.String(endpoint),
		Region:           aws.String(region),
		S3ForcePathStyle: aws.Bool(false),
	}

	sess, err := session.NewSession(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return newSpacesStorage(s3.New(sess), bucket, cdnURL), nil
}

func newSpacesStorage(client s3iface.S3API, bucket, cdnURL string) *SpacesStorage {
	return &SpacesStorage{client: client, bucket: bucket, cdnURL: cdnURL, now: time.Now}
}

func (ss *SpacesStorage) Save(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	normalized := normalizeFilename(filename, ss.now())
	log.Debug().Str("original", filename).Str("normalized", normalized).Msg("file upload normalized")

	// PutObject needs a seekable body to sign the request
	seeker, ok := body.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(body)
		if err != nil {
			return "", fmt.Errorf("failed to read upload: %w", err)
		}
		seeker = bytes.NewReader(data)
	}
	if contentType == "" {
		contentType = contentTypeFor(normalized)
	}

	key := path.Join(UploadPrefix, normalized)
	_, err := ss.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(ss.bucket),
		Key:         aws.String(key),
		Body:        seeker,
		ContentType: aws.String(contentType),
		ACL:         aws.String("public-read"),
	})
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to upload file to Spaces")
		return "", fmt.Errorf("failed to upload to Spaces: %w", err)
	}
	return joinURL(ss.cdnURL, key), nil
}

func (ss *SpacesStorage) List(ctx context.Context, prefix string) ([]Object, error) {
	out := []Object{}
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(ss.bucket),
		Prefix: aws.String(strings.TrimPrefix(prefix, "/")),
	}
	err := ss.client.ListObjectsV2PagesWithContext(ctx, input, func(page *s3.ListObjectsV2Output, last bool) bool {
		for _, obj := range page.Contents {
			key := aws.StringValue(obj.Key)
			if strings.HasSuffix(key, "/") {
				continue
			}
			name := path.Base(key)
			out = append(out, Object{
				Key:         key,
				Name:        name,
				URL:         joinURL(ss.cdnURL, key),
				Size:        aws.Int64Value(obj.Size),
				ContentType: contentTypeFor(name),
				ModifiedAt:  aws.TimeValue(obj.LastModified),
			})
		}
		return true
	})
	if err != nil {
		log.Error().Err(err).Str("prefix", prefix).Msg("failed to list Spaces objects")
		return nil, fmt.Errorf("failed to list Spaces objects: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out, nil
}
