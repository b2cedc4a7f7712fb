package updater

import (
	"archive/tar"
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/twpayne/go-vfs/vfst"
	"k8s.io/klog/klogr"
)

func TestParentURL(t *testing.T) {
	testcases := []struct {
		input    string
		expected string
	}{
		{input: "http://foo/manifest.yaml", expected: "http://foo/"},
		{input: "https://foo/bar/manifest.yaml", expected: "https://foo/bar"},
		{input: "https://foo/a/b/manifest.yaml", expected: "https://foo/a/b"},
	}

	for _, tc := range testcases {
		got, err := ParentURL(tc.input)
		if err != nil {
			t.Fatalf("%s: %v", tc.input, err)
		}

		if got != tc.expected {
			t.Errorf("unexpected parent for %s: expected=%v, got=%v", tc.input, tc.expected, got)
		}
	}
}

func TestParentURLNoPath(t *testing.T) {
	_, err := ParentURL("http://foo")

	var urlErr *InvalidManifestURLError
	if !errors.As(err, &urlErr) {
		t.Errorf("expected InvalidManifestURLError, got=%v", err)
	}
}

func TestArchiveURL(t *testing.T) {
	testcases := []struct {
		manifest string
		expected string
	}{
		{
			manifest: "https://updates.example.com/channel/manifest.yaml",
			expected: "https://updates.example.com/channel/myapp-1.1.0.tar.gz",
		},
		{
			manifest: "http://foo/manifest.yaml",
			expected: "http://foo/myapp-1.1.0.tar.gz",
		},
	}

	for _, tc := range testcases {
		got, err := ArchiveURL(tc.manifest, "myapp", "1.1.0")
		if err != nil {
			t.Fatal(err)
		}

		if got != tc.expected {
			t.Errorf("unexpected archive URL: expected=%v, got=%v", tc.expected, got)
		}
	}
}

// makeArchive builds a gzip+tar stream holding the given path=>content
// entries.
func makeArchive(t *testing.T, entries map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer

	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for name, content := range entries {
		if err := tw.WriteHeader(&tar.Header{
			Name:    name,
			Mode:    0755,
			Size:    int64(len(content)),
			ModTime: time.Now(),
		}); err != nil {
			t.Fatal(err)
		}

		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}

	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}

	return buf.Bytes()
}

func extractTestUpdater(t *testing.T, archive []byte) (*Updater, func()) {
	t.Helper()

	fs, clean, err := vfst.NewTestFS(map[string]interface{}{
		"/opt/orm/archive.tar.gz": string(archive),
	})
	if err != nil {
		t.Fatal(err)
	}

	u, err := New(Spec{
		ObjectType:      "gateway",
		ManifestURL:     "https://updates.example.com/channel/manifest.yaml",
		ApplicationName: "myapp",
		LocalPrefix:     "/opt/orm",
	}, FS(fs), Logger(klogr.New()))
	if err != nil {
		clean()
		t.Fatal(err)
	}

	return u, clean
}

func TestExtractArchive(t *testing.T) {
	archive := makeArchive(t, map[string]string{
		"myapp/run.sh": "#!/bin/sh\necho v2\n",
		"myapp/id.sh":  "#!/bin/sh\necho demo-1\n",
		"myapp/extra":  "payload\n",
	})

	u, clean := extractTestUpdater(t, archive)
	defer clean()

	if err := u.mkdirAll("/opt/orm/staging"); err != nil {
		t.Fatal(err)
	}

	if err := u.extractArchive("/opt/orm/archive.tar.gz", "/opt/orm/staging"); err != nil {
		t.Fatal(err)
	}

	content, err := u.fs.ReadFile("/opt/orm/staging/myapp/run.sh")
	if err != nil {
		t.Fatal(err)
	}

	if string(content) != "#!/bin/sh\necho v2\n" {
		t.Errorf("unexpected run.sh content: got=%q", string(content))
	}
}

func TestExtractArchiveMissingScript(t *testing.T) {
	archive := makeArchive(t, map[string]string{
		"myapp/run.sh": "#!/bin/sh\n",
	})

	u, clean := extractTestUpdater(t, archive)
	defer clean()

	if err := u.mkdirAll("/opt/orm/staging"); err != nil {
		t.Fatal(err)
	}

	err := u.extractArchive("/opt/orm/archive.tar.gz", "/opt/orm/staging")

	var archiveErr *InvalidArchiveError
	if !errors.As(err, &archiveErr) {
		t.Fatalf("expected InvalidArchiveError, got=%v", err)
	}

	if len(archiveErr.Found) != 1 || archiveErr.Found[0] != "myapp/run.sh" {
		t.Errorf("unexpected found scripts: got=%v", archiveErr.Found)
	}
}

func TestExtractArchiveScriptsOutsidePrefix(t *testing.T) {
	archive := makeArchive(t, map[string]string{
		"run.sh":             "#!/bin/sh\n",
		"other/run.sh":       "#!/bin/sh\n",
		"myapp/sub/id.sh":    "#!/bin/sh\n",
		"myapp/sub/run.sh":   "#!/bin/sh\n",
		"myapp/sub/other.sh": "#!/bin/sh\n",
	})

	u, clean := extractTestUpdater(t, archive)
	defer clean()

	if err := u.mkdirAll("/opt/orm/staging"); err != nil {
		t.Fatal(err)
	}

	err := u.extractArchive("/opt/orm/archive.tar.gz", "/opt/orm/staging")

	var archiveErr *InvalidArchiveError
	if !errors.As(err, &archiveErr) {
		t.Fatalf("expected InvalidArchiveError, got=%v", err)
	}
}

func TestExtractArchiveNotGzip(t *testing.T) {
	u, clean := extractTestUpdater(t, []byte("not a gzip stream"))
	defer clean()

	if err := u.mkdirAll("/opt/orm/staging"); err != nil {
		t.Fatal(err)
	}

	err := u.extractArchive("/opt/orm/archive.tar.gz", "/opt/orm/staging")

	var archiveErr *InvalidArchiveError
	if !errors.As(err, &archiveErr) {
		t.Fatalf("expected InvalidArchiveError, got=%v", err)
	}
}
