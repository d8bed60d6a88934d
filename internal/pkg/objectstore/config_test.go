package objectstore

import (
	"testing"
	"time"
)

func TestObjectKeys(t *testing.T) {
	cfg := &Config{BucketName: "boxbin-media"}
	at := time.Date(2026, time.March, 5, 12, 0, 0, 0, time.UTC)

	if got := cfg.PhotoKey("abc-123", ".jpg", at); got != "photos/2026/03/abc-123.jpg" {
		t.Fatalf("unexpected photo key %q", got)
	}
	if got := cfg.ThumbnailKey("abc-123", at); got != "photos/2026/03/thumbs/abc-123.jpg" {
		t.Fatalf("unexpected thumbnail key %q", got)
	}
	if got := cfg.LabelSheetKey(7, "garage.pdf"); got != "labels/7/garage.pdf" {
		t.Fatalf("unexpected label key %q", got)
	}
	if got := cfg.LabelSheetKey(7, "garage"); got != "labels/7/garage.pdf" {
		t.Fatalf("unexpected label key %q", got)
	}
}
