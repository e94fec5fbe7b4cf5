package storage

import (
	"context"
	"fmt"
	"os"

	logging "usage-report-bot/internal/infra/log"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blockblob"
	"go.uber.org/zap"
)

// AzureUploader writes blobs into an Azure Blob Storage container.
type AzureUploader struct {
	client        *azblob.Client
	container     string
	publicBaseURL string
}

// NewAzureUploader authenticates with a connection string, a shared key or,
// when neither is set, DefaultAzureCredential.
func NewAzureUploader(opts Options) (*AzureUploader, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("azure container is required")
	}
	if opts.AzureAccount == "" && opts.AzureConnectionString == "" {
		return nil, fmt.Errorf("azure account name or connection string is required")
	}

	var client *azblob.Client
	var err error
	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", opts.AzureAccount)

	switch {
	case opts.AzureConnectionString != "":
		client, err = azblob.NewClientFromConnectionString(opts.AzureConnectionString, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create client from connection string: %w", err)
		}
	case opts.AzureKey != "":
		cred, err := azblob.NewSharedKeyCredential(opts.AzureAccount, opts.AzureKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create shared key credential: %w", err)
		}
		client, err = azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create client with shared key: %w", err)
		}
	default:
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create default credential: %w", err)
		}
		client, err = azblob.NewClient(serviceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create client with default credential: %w", err)
		}
	}

	return &AzureUploader{client: client, container: opts.Bucket, publicBaseURL: opts.PublicBaseURL}, nil
}

func (u *AzureUploader) Name() string { return "azure" }

func (u *AzureUploader) Upload(ctx context.Context, localPath, key string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	contentType := pngContentType
	blobClient := u.client.ServiceClient().NewContainerClient(u.container).NewBlockBlobClient(key)
	_, err = blobClient.UploadStream(ctx, f, &blockblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to azure: %w", key, err)
	}

	url := blobClient.URL()
	if u.publicBaseURL != "" {
		url = joinURL(u.publicBaseURL, key)
	}
	logging.LogDebug("Chart uploaded", zap.String("provider", "azure"), zap.String("key", key), zap.String("url", url))
	return url, nil
}

func (u *AzureUploader) Close() error { return nil }
