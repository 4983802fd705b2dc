package gcp

import (
	"strings"
	"testing"
)

func TestResolveObjectStoragePublicBaseURLGCSDefault(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", "")

	baseURL, source, err := resolveObjectStoragePublicBaseURL(ObjectStorageConfig{
		Mode: ObjectStorageModeGCS,
	})
	if err != nil {
		t.Fatalf("resolveObjectStoragePublicBaseURL: %v", err)
	}
	if baseURL != "" {
		t.Fatalf("baseURL: want empty got=%q", baseURL)
	}
	if source != "gcs_default" {
		t.Fatalf("source: want=%q got=%q", "gcs_default", source)
	}
}

func TestResolveObjectStoragePublicBaseURLEmulatorFallback(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", "")

	baseURL, source, err := resolveObjectStoragePublicBaseURL(ObjectStorageConfig{
		Mode:         ObjectStorageModeGCSEmulator,
		EmulatorHost: "http://fake-gcs:4443",
	})
	if err != nil {
		t.Fatalf("resolveObjectStoragePublicBaseURL: %v", err)
	}
	if baseURL != "http://fake-gcs:4443" {
		t.Fatalf("baseURL: want=%q got=%q", "http://fake-gcs:4443", baseURL)
	}
	if source != "storage_emulator_host" {
		t.Fatalf("source: want=%q got=%q", "storage_emulator_host", source)
	}
}

func TestResolveObjectStoragePublicBaseURLEnvOverride(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", "http://localhost:4443/")

	baseURL, source, err := resolveObjectStoragePublicBaseURL(ObjectStorageConfig{
		Mode:         ObjectStorageModeGCSEmulator,
		EmulatorHost: "http://fake-gcs:4443",
	})
	if err != nil {
		t.Fatalf("resolveObjectStoragePublicBaseURL: %v", err)
	}
	if baseURL != "http://localhost:4443" {
		t.Fatalf("baseURL: want=%q got=%q", "http://localhost:4443", baseURL)
	}
	if source != "object_storage_public_base_url" {
		t.Fatalf("source: want=%q got=%q", "object_storage_public_base_url", source)
	}
}

func TestResolveObjectStoragePublicBaseURLInvalidEnv(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", "localhost:4443")

	_, _, err := resolveObjectStoragePublicBaseURL(ObjectStorageConfig{
		Mode:         ObjectStorageModeGCSEmulator,
		EmulatorHost: "http://fake-gcs:4443",
	})
	if err == nil {
		t.Fatalf("resolveObjectStoragePublicBaseURL: expected error, got nil")
	}
}

func TestPublicURLGCSDefault(t *testing.T) {
	bs := &bucketService{bucketName: "menttor-assets"}

	got := bs.PublicURL(BucketCategoryExport, "u1/doc1/report.pdf")
	want := "https://storage.googleapis.com/menttor-assets/export/u1/doc1/report.pdf"
	if got != want {
		t.Fatalf("PublicURL: want=%q got=%q", want, got)
	}
}

func TestPublicURLUsesCDNDomain(t *testing.T) {
	bs := &bucketService{
		bucketName: "menttor-assets",
		cdnDomain:  "cdn.example.com",
	}

	got := bs.PublicURL(BucketCategorySharecard, "u1/doc1/card.png")
	want := "https://cdn.example.com/sharecard/u1/doc1/card.png"
	if got != want {
		t.Fatalf("PublicURL: want=%q got=%q", want, got)
	}
}

func TestPublicURLUsesPublicBaseURL(t *testing.T) {
	bs := &bucketService{
		bucketName:    "menttor-assets",
		publicBaseURL: "http://localhost:4443",
	}

	got := bs.PublicURL(BucketCategoryExport, "/u1/doc1/report.pdf")
	want := "http://localhost:4443/menttor-assets/export/u1/doc1/report.pdf"
	if got != want {
		t.Fatalf("PublicURL: want=%q got=%q", want, got)
	}
}

func TestPublicURLUsesEmulatorMediaEndpoint(t *testing.T) {
	bs := &bucketService{
		storageMode:   ObjectStorageModeGCSEmulator,
		publicBaseURL: "http://localhost:4443",
		bucketName:    "menttor-assets",
	}

	got := bs.PublicURL(BucketCategorySharecard, "u1/doc1/card.png")
	want := "http://localhost:4443/storage/v1/b/menttor-assets/o/sharecard%2Fu1%2Fdoc1%2Fcard.png?alt=media"
	if got != want {
		t.Fatalf("PublicURL: want=%q got=%q", want, got)
	}
}

func TestPublicURLUsesEmulatorHostWhenPublicBaseMissing(t *testing.T) {
	bs := &bucketService{
		storageMode:  ObjectStorageModeGCSEmulator,
		emulatorHost: "http://fake-gcs:4443",
		bucketName:   "menttor-assets",
	}

	got := bs.PublicURL(BucketCategorySharecard, "/u1/doc1/card.png")
	want := "http://fake-gcs:4443/storage/v1/b/menttor-assets/o/sharecard%2Fu1%2Fdoc1%2Fcard.png?alt=media"
	if got != want {
		t.Fatalf("PublicURL: want=%q got=%q", want, got)
	}
}

func TestPublicURLEscapesRenderableAssetKeys(t *testing.T) {
	bs := &bucketService{
		storageMode:   ObjectStorageModeGCSEmulator,
		publicBaseURL: "http://localhost:4443",
		bucketName:    "menttor-assets",
	}

	cases := []struct {
		name     string
		category BucketCategory
		key      string
		wantCT   string
	}{
		{name: "share card png", category: BucketCategorySharecard, key: "u/doc/card.png", wantCT: "image/png"},
		{name: "export pdf", category: BucketCategoryExport, key: "u/doc/out.pdf", wantCT: "application/pdf"},
		{name: "figure webp", category: BucketCategoryFigure, key: "u/session/fig.webp", wantCT: "image/webp"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			publicURL := bs.PublicURL(tc.category, tc.key)
			if !strings.HasPrefix(publicURL, "http://localhost:4443/storage/v1/b/menttor-assets/o/") {
				t.Fatalf("publicURL prefix mismatch: %s", publicURL)
			}
			if !strings.Contains(publicURL, "alt=media") {
				t.Fatalf("publicURL should use the media endpoint: %s", publicURL)
			}
			escaped := strings.ReplaceAll(string(tc.category)+"/"+tc.key, "/", "%2F")
			if !strings.Contains(publicURL, escaped) {
				t.Fatalf("publicURL should escape the object name: %s", publicURL)
			}
			if got := contentTypeForKey(tc.key); got != tc.wantCT {
				t.Fatalf("contentTypeForKey(%q): want=%q got=%q", tc.key, tc.wantCT, got)
			}
		})
	}
}
