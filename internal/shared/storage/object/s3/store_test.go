package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type fakeAPI struct {
	objects map[string][]byte
	puts    []*s3.PutObjectInput
	gets    []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{objects: map[string][]byte{}}
}

func (f *fakeAPI) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.puts = append(f.puts, in)
	f.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeAPI) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(in.Key)
	f.gets = append(f.gets, key)
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeAPI) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestDeleteUsesPrefix(t *testing.T) {
	api := newFakeAPI()
	api.objects["resumes/abc/cv.pdf"] = []byte("x")
	store := NewWithClient(api, "uploads", "resumes", "")
	if err := store.Delete(context.Background(), "abc/cv.pdf"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := api.objects["resumes/abc/cv.pdf"]; ok {
		t.Fatalf("object should be deleted")
	}
}

func TestSaveUsesPrefixAndSSE(t *testing.T) {
	api := newFakeAPI()
	store := NewWithClient(api, "uploads", "/resumes/", "")

	payload := "%PDF-1.4 resume body"
	key, size, mime, err := store.Save(context.Background(), "user-1", "cv.pdf", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if size != int64(len(payload)) {
		t.Fatalf("expected size %d, got %d", len(payload), size)
	}
	if mime != "application/pdf" {
		t.Fatalf("unexpected mime %q", mime)
	}
	if strings.HasPrefix(key, "resumes/") || strings.Contains(key, "user-1") {
		t.Fatalf("storage key should be unprefixed and hashed, got %q", key)
	}
	if len(api.puts) != 1 {
		t.Fatalf("expected one put, got %d", len(api.puts))
	}
	in := api.puts[0]
	if aws.ToString(in.Key) != "resumes/"+key || aws.ToString(in.Bucket) != "uploads" {
		t.Fatalf("unexpected object location %s/%s", aws.ToString(in.Bucket), aws.ToString(in.Key))
	}
	if in.ServerSideEncryption != s3types.ServerSideEncryptionAes256 || in.SSEKMSKeyId != nil {
		t.Fatalf("expected SSE-S3, got %q", in.ServerSideEncryption)
	}

	rc, err := store.Open(context.Background(), key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if string(got) != payload {
		t.Fatalf("round trip mismatch: %q", got)
	}
}

func TestSaveWithKeyUsesKMS(t *testing.T) {
	api := newFakeAPI()
	store := NewWithClient(api, "uploads", "", " kms-123 ")

	n, err := store.SaveWithKey(context.Background(), "abc/cv.pdf.extracted.txt", "text/plain", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("SaveWithKey: %v", err)
	}
	if n != 5 {
		t.Fatalf("expected 5 bytes, got %d", n)
	}
	in := api.puts[0]
	if aws.ToString(in.Key) != "abc/cv.pdf.extracted.txt" || aws.ToString(in.ContentType) != "text/plain" {
		t.Fatalf("unexpected put %s %s", aws.ToString(in.Key), aws.ToString(in.ContentType))
	}
	if in.ServerSideEncryption != s3types.ServerSideEncryptionAwsKms || aws.ToString(in.SSEKMSKeyId) != "kms-123" {
		t.Fatalf("expected SSE-KMS with key, got %q %q", in.ServerSideEncryption, aws.ToString(in.SSEKMSKeyId))
	}
}

func TestCanceledContextSkipsClient(t *testing.T) {
	api := newFakeAPI()
	store := NewWithClient(api, "uploads", "", "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, _, err := store.Save(ctx, "user-1", "cv.pdf", strings.NewReader("x")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
	if _, err := store.Open(ctx, "k"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
	if len(api.puts)+len(api.gets) != 0 {
		t.Fatalf("client should not be called")
	}
}

func TestApplyPrefix(t *testing.T) {
	cases := map[string]struct{ prefix, key, want string }{
		"no prefix":      {"", "/a/b", "a/b"},
		"trimmed prefix": {"/p/", "a", "p/a"},
		"empty key":      {"p", "", "p"},
	}
	for name, tc := range cases {
		if got := applyPrefix(tc.prefix, tc.key); got != tc.want {
			t.Fatalf("%s: applyPrefix(%q, %q) = %q, want %q", name, tc.prefix, tc.key, got, tc.want)
		}
	}
}
