package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxfolio/portfolio-api/internal/domain"
)

type fakeS3 struct {
	puts    []*s3.PutObjectInput
	body    []string
	err     error
	headErr error
}

func (f *fakeS3) HeadBucket(_ context.Context, _ *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, _ := io.ReadAll(in.Body)
	f.puts = append(f.puts, in)
	f.body = append(f.body, string(b))
	return &s3.PutObjectOutput{}, nil
}

func TestS3Archive_Put(t *testing.T) {
	fake := &fakeS3{}
	a := newS3Archive(fake, "fox-archive", "broadcasts")

	require.NoError(t, a.Put(context.Background(), domain.BroadcastNewsletter, 12, "<p>hi</p>"))
	require.Len(t, fake.puts, 1)

	in := fake.puts[0]
	assert.Equal(t, "fox-archive", aws.ToString(in.Bucket))
	assert.Equal(t, "broadcasts/newsletters/12.html", aws.ToString(in.Key))
	assert.Equal(t, "text/html; charset=utf-8", aws.ToString(in.ContentType))
	assert.Equal(t, "<p>hi</p>", fake.body[0])
}

func TestS3Archive_PutError(t *testing.T) {
	a := newS3Archive(&fakeS3{err: errors.New("access denied")}, "b", "")
	err := a.Put(context.Background(), domain.BroadcastAnnouncement, 1, "x")
	assert.ErrorContains(t, err, "access denied")
	assert.Equal(t, "announcements/1.html", a.Key(domain.BroadcastAnnouncement, 1))
}

func TestS3Archive_Ping(t *testing.T) {
	assert.NoError(t, newS3Archive(&fakeS3{}, "b", "").Ping(context.Background()))

	err := newS3Archive(&fakeS3{headErr: errors.New("no such bucket")}, "b", "").Ping(context.Background())
	assert.ErrorContains(t, err, "no such bucket")
}
