package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"time"
)

// ReportArchive keeps JSON reports of finished recomputes.
type ReportArchive interface {
	Archive(ctx context.Context, kind string, report any) (*UploadResult, error)
}

type jsonArchive struct {
	store  ObjectStore
	prefix string
	now    func() time.Time
}

func NewReportArchive(store ObjectStore, prefix string) ReportArchive {
	return &jsonArchive{store: store, prefix: prefix, now: time.Now}
}

// Archive stores report under <prefix>/<kind>/YYYY/MM/DD/<kind>-<unix nano>.json.
func (a *jsonArchive) Archive(ctx context.Context, kind string, report any) (*UploadResult, error) {
	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s report: %w", kind, err)
	}
	ts := a.now().UTC()
	key := path.Join(a.prefix, kind, ts.Format("2006/01/02"), fmt.Sprintf("%s-%d.json", kind, ts.UnixNano()))
	return a.store.Upload(ctx, key, "application/json", bytes.NewReader(body))
}

// OpenReportArchive archives reports to the R2 bucket under prefix. It
// returns nil when R2 is not configured.
func OpenReportArchive(ctx context.Context, cfg CloudflareR2Config, prefix string, logger *slog.Logger) (ReportArchive, error) {
	if !cfg.Enabled() {
		logger.Info("Cloudflare R2 is not configured, reports are not archived")
		return nil, nil
	}
	store, err := NewCloudflareR2Store(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudflare R2 store: %w", err)
	}
	logger.Info("Cloudflare R2 report archive initialized", slog.String("bucket", cfg.BucketName))
	return NewReportArchive(store, prefix), nil
}
