package s3

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakePutter struct {
	keys   []string
	bodies []string
	err    error
}

func (f *fakePutter) Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, _ := io.ReadAll(input.Body)
	f.keys = append(f.keys, aws.ToString(input.Key))
	f.bodies = append(f.bodies, string(data))
	return &manager.UploadOutput{}, nil
}

func TestKey(t *testing.T) {
	a := &Archiver{bucket: "b", prefix: "media"}
	root := filepath.Join("downloads")
	if got := a.Key(root, filepath.Join(root, "My List", "01-a.mp4")); got != "media/My List/01-a.mp4" {
		t.Errorf("got %q", got)
	}
	if got := a.Key(root, filepath.Join("elsewhere", "x.mp3")); got != "media/x.mp3" {
		t.Errorf("files outside root should use their base name, got %q", got)
	}
	a.prefix = ""
	if got := a.Key(root, filepath.Join(root, "x.mp3")); got != "x.mp3" {
		t.Errorf("got %q", got)
	}
}

func TestArchive(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "song.mp3")
	if err := os.WriteFile(path, []byte("id3"), 0644); err != nil {
		t.Fatal(err)
	}
	fake := &fakePutter{}
	a := &Archiver{bucket: "b", prefix: "ytpull", uploader: fake}
	if err := a.Archive(context.Background(), root, path); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if len(fake.keys) != 1 || fake.keys[0] != "ytpull/song.mp3" || fake.bodies[0] != "id3" {
		t.Errorf("unexpected upload %v %v", fake.keys, fake.bodies)
	}

	fake.err = errors.New("denied")
	if err := a.Archive(context.Background(), root, path); err == nil {
		t.Error("expected upload error")
	}
	if err := a.Archive(context.Background(), root, filepath.Join(root, "missing.mp3")); err == nil {
		t.Error("expected open error")
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), "", "", ""); err == nil {
		t.Error("expected error without bucket")
	}
}
