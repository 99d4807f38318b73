package snapshots

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	puts    map[string][]byte
	pages   [][]string
	listErr error
	putErr  error
	prefix  []string
}

func (f *fakeObjects) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if f.puts == nil {
		f.puts = map[string][]byte{}
	}
	f.puts[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.prefix = append(f.prefix, aws.ToString(in.Prefix))

	page := 0
	if in.ContinuationToken != nil {
		page = 1
	}
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(page+1 < len(f.pages))}
	for _, k := range f.pages[page] {
		out.Contents = append(out.Contents, s3types.Object{Key: aws.String(k)})
	}
	if aws.ToBool(out.IsTruncated) {
		out.NextContinuationToken = aws.String("next")
	}
	return out, nil
}

func TestS3Store_Save(t *testing.T) {
	api := &fakeObjects{}
	s := NewS3StoreWithAPI(api, "vault", "intruders")

	name, err := s.Save(context.Background(), time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC), []byte("jpeg"))
	require.NoError(t, err)
	assert.Equal(t, "intruder_20260501_120000.jpg", name)
	assert.Equal(t, []byte("jpeg"), api.puts["vault/intruders/intruder_20260501_120000.jpg"])
}

func TestS3Store_SaveError(t *testing.T) {
	s := NewS3StoreWithAPI(&fakeObjects{putErr: errors.New("denied")}, "vault", "")

	_, err := s.Save(context.Background(), time.Now(), []byte("jpeg"))
	assert.ErrorContains(t, err, "denied")
}

func TestS3Store_ListPaginates(t *testing.T) {
	api := &fakeObjects{pages: [][]string{
		{"intruders/intruder_20260101_000000.jpg", "intruders/intruder_20260103_000000.jpg"},
		{"intruders/intruder_20260102_000000.jpg", "intruders/intruder_bogus.jpg"},
	}}
	s := NewS3StoreWithAPI(api, "vault", "intruders")

	names, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"intruder_20260103_000000.jpg",
		"intruder_20260102_000000.jpg",
		"intruder_20260101_000000.jpg",
	}, names)
	assert.Equal(t, []string{"intruders/intruder_", "intruders/intruder_"}, api.prefix)
}

func TestS3Store_ListError(t *testing.T) {
	s := NewS3StoreWithAPI(&fakeObjects{listErr: errors.New("boom")}, "vault", "")

	_, err := s.List(context.Background())
	assert.ErrorContains(t, err, "list objects")
}

func TestNewS3Store_UsesClientFactory(t *testing.T) {
	oldLoad, oldNew := loadDefaultAWSConfig, newS3ClientFromConfig
	t.Cleanup(func() { loadDefaultAWSConfig, newS3ClientFromConfig = oldLoad, oldNew })

	api := &fakeObjects{}
	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) ObjectAPI {
		assert.Equal(t, "eu-west-1", cfg.Region)
		for _, fn := range optFns {
			fn(&opts)
		}
		return api
	}

	s, err := NewS3Store(context.Background(), S3Config{
		Bucket:       "vault",
		Region:       "eu-west-1",
		BaseEndpoint: "http://127.0.0.1:9000/",
		AccessKey:    "admin",
		SecretKey:    "secret",
	})
	require.NoError(t, err)
	assert.Same(t, api, s.api)
	assert.Equal(t, "http://127.0.0.1:9000/", aws.ToString(opts.BaseEndpoint))
	assert.True(t, opts.UsePathStyle)
}
