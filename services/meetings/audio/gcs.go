package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"

	"github.com/xilidan/meetings/services/meetings/entity"
)

const gcsScheme = "gs://"

// GCS keeps recordings as objects in a Cloud Storage bucket. References are gs:// URIs.
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

func NewGCS(client *storage.Client, bucket, prefix string) *GCS {
	return &GCS{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// Save writes the object only if it does not already exist.
func (g *GCS) Save(ctx context.Context, name string, data []byte) (string, error) {
	object := name
	if g.prefix != "" {
		object = g.prefix + "/" + name
	}

	w := g.client.Bucket(g.bucket).Object(object).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", entity.NewStorageError("write audio object", err)
	}
	if err := w.Close(); err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed {
			return "", entity.NewStorageError("write audio object", fmt.Errorf("object %s already exists", object))
		}
		return "", entity.NewStorageError("finalize audio object", err)
	}
	return gcsScheme + g.bucket + "/" + object, nil
}

func (g *GCS) Load(ctx context.Context, ref string) ([]byte, error) {
	bucket, object, err := parseGCSRef(ref)
	if err != nil {
		return nil, entity.NewContentMissing(ref, err)
	}

	r, err := g.client.Bucket(bucket).Object(object).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return nil, entity.NewContentMissing(ref, err)
	}
	if err != nil {
		return nil, entity.NewStorageError("open audio object", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, entity.NewStorageError("read audio object", err)
	}
	return data, nil
}

func parseGCSRef(ref string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(ref, gcsScheme)
	if !ok {
		return "", "", fmt.Errorf("not a gs:// reference: %q", ref)
	}
	bucket, object, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("malformed gs:// reference: %q", ref)
	}
	return bucket, object, nil
}
