package exporter

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/archminer/internal/config"
	"github.com/fyrsmithlabs/archminer/internal/logging"
	"github.com/fyrsmithlabs/archminer/internal/project"
)

// ObjectClient is the slice of the object-store API the exporter needs.
type ObjectClient interface {
	PutObject(ctx context.Context, bucket, object string, reader *bytes.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// minioClient adapts *minio.Client to ObjectClient.
type minioClient struct {
	c *minio.Client
}

func (m minioClient) PutObject(ctx context.Context, bucket, object string, reader *bytes.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return m.c.PutObject(ctx, bucket, object, reader, size, opts)
}

// MinIOExporter mirrors project records into an object-store bucket,
// one object per project under <name>.json.
type MinIOExporter struct {
	client ObjectClient
	bucket string
	opts   project.ExportOptions
	logger *logging.Logger
}

// NewMinIOExporter connects to the configured endpoint.
func NewMinIOExporter(cfg config.MinIOConfig, opts project.ExportOptions, logger *logging.Logger) (*MinIOExporter, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey.Value(), cfg.SecretKey.Value(), ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to object store: %w", err)
	}
	return NewMinIOExporterWithClient(minioClient{c: client}, cfg.Bucket, opts, logger), nil
}

// NewMinIOExporterWithClient wires a prebuilt client, used in tests.
func NewMinIOExporterWithClient(client ObjectClient, bucket string, opts project.ExportOptions, logger *logging.Logger) *MinIOExporter {
	return &MinIOExporter{
		client: client,
		bucket: bucket,
		opts:   opts,
		logger: logger.Named("exporter.minio"),
	}
}

func (e *MinIOExporter) Name() string { return "minio" }

func (e *MinIOExporter) Export(ctx context.Context, p *project.Project) error {
	data, err := p.Marshal(e.opts)
	if err != nil {
		return &ExportError{Project: p.Name, Sink: e.Name(), Err: err}
	}

	object := p.Name + ".json"
	info, err := e.client.PutObject(ctx, e.bucket, object, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return &ExportError{Project: p.Name, Sink: e.Name(), Err: err}
	}

	e.logger.Info(ctx, "uploaded project record",
		zap.String("bucket", e.bucket), zap.String("object", object), zap.Int64("bytes", info.Size))
	return nil
}
