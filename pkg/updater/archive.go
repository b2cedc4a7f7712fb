package updater

import (
	"archive/tar"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// ParentURL strips exactly the last path segment of manifestURL, preserving
// scheme and authority: http://foo/manifest.yaml yields http://foo/, and
// https://foo/bar/manifest.yaml yields https://foo/bar.
func ParentURL(manifestURL string) (string, error) {
	u, err := url.Parse(manifestURL)
	if err != nil {
		return "", &InvalidManifestURLError{URL: manifestURL}
	}

	if u.Path == "" {
		return "", &InvalidManifestURLError{URL: manifestURL}
	}

	segments := strings.Split(u.Path, "/")
	segments = segments[:len(segments)-1]

	parent := ""
	for _, seg := range segments {
		if seg != "" {
			parent += "/" + seg
		}
	}
	if parent == "" {
		parent = "/"
	}

	u.Path = parent
	u.RawQuery = ""
	u.Fragment = ""

	return u.String(), nil
}

// ArchiveURL derives the release archive URL next to the manifest:
// <manifest-parent>/<app>-<version>.tar.gz.
func ArchiveURL(manifestURL, appName, version string) (string, error) {
	parent, err := ParentURL(manifestURL)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/%s-%s.tar.gz", strings.TrimSuffix(parent, "/"), appName, version), nil
}

// fetchArchive streams the release archive into a temporary file under the
// local prefix and returns its path. The file is scoped to this attempt.
func (u *Updater) fetchArchive(archiveURL, version string) (string, error) {
	tmpPath := filepath.Join(u.LocalPrefix, fmt.Sprintf(".orm_download-%s.tar.gz", version))

	f, err := u.fs.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return "", &IoError{Op: "creating download file " + tmpPath, Err: err}
	}

	u.Logger.Info("downloading archive", "url", archiveURL, "to", tmpPath)

	size, err := u.httpGetter.Download(archiveURL, f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		u.removeQuietly(tmpPath)
		return "", fmt.Errorf("fails to fetch archive from %s: %w", archiveURL, err)
	}

	u.Logger.V(1).Info("archive downloaded", "bytes", size)

	return tmpPath, nil
}

// extractArchive decompresses and unpacks the archive into the fresh
// staging directory, then checks that run.sh and id.sh both exist exactly
// one level under the application-name prefix. Entries are written at their
// archive-relative path without traversal sanitization; the staging
// directory is disposable.
func (u *Updater) extractArchive(archivePath, stagingDir string) error {
	f, err := u.fs.Open(archivePath)
	if err != nil {
		return &IoError{Op: "opening archive " + archivePath, Err: err}
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return &InvalidArchiveError{Found: []string{}}
	}
	defer gz.Close()

	tr := tar.NewReader(gz)

	var extracted []string

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return &InvalidArchiveError{Found: extracted}
		}

		rel := filepath.Clean(hdr.Name)
		target := filepath.Join(stagingDir, rel)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := u.mkdirAll(target); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := u.mkdirAll(filepath.Dir(target)); err != nil {
				return err
			}

			out, err := u.fs.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.FileMode(hdr.Mode)&0777)
			if err != nil {
				return &IoError{Op: "extracting " + target, Err: err}
			}

			_, err = io.Copy(out, tr)
			if cerr := out.Close(); err == nil && cerr != nil {
				err = cerr
			}
			if err != nil {
				return &IoError{Op: "extracting " + target, Err: err}
			}

			extracted = append(extracted, rel)
		default:
			u.Logger.V(1).Info("skipping archive entry", "name", hdr.Name, "type", hdr.Typeflag)
		}
	}

	scripts := []string{}
	for _, rel := range extracted {
		base := filepath.Base(rel)
		if filepath.Dir(rel) == u.AppName && (base == "run.sh" || base == "id.sh") {
			scripts = append(scripts, rel)
		}
	}

	if len(scripts) != 2 {
		return &InvalidArchiveError{Found: scripts}
	}

	return nil
}

// compressDir writes dir as <dir>.tar.gz, with entries prefixed by the
// directory base name, and returns the tarball path.
func (u *Updater) compressDir(dir string) (string, error) {
	tarballPath := dir + ".tar.gz"

	f, err := u.fs.OpenFile(tarballPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return "", &IoError{Op: "creating " + tarballPath, Err: err}
	}

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)

	err = u.tarTree(tw, dir, filepath.Base(dir))

	if cerr := tw.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if cerr := gz.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if cerr := f.Close(); err == nil && cerr != nil {
		err = cerr
	}

	if err != nil {
		u.removeQuietly(tarballPath)
		return "", &IoError{Op: "archiving " + dir, Err: err}
	}

	return tarballPath, nil
}

func (u *Updater) tarTree(tw *tar.Writer, dir, prefix string) error {
	infos, err := u.fs.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, info := range infos {
		path := filepath.Join(dir, info.Name())
		name := prefix + "/" + info.Name()

		if info.IsDir() {
			if err := tw.WriteHeader(&tar.Header{
				Name:     name + "/",
				Mode:     int64(info.Mode().Perm()),
				Typeflag: tar.TypeDir,
				ModTime:  info.ModTime(),
			}); err != nil {
				return err
			}

			if err := u.tarTree(tw, path, name); err != nil {
				return err
			}

			continue
		}

		if !info.Mode().IsRegular() {
			continue
		}

		if err := tw.WriteHeader(&tar.Header{
			Name:    name,
			Mode:    int64(info.Mode().Perm()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}); err != nil {
			return err
		}

		in, err := u.fs.Open(path)
		if err != nil {
			return err
		}

		_, err = io.Copy(tw, in)
		if cerr := in.Close(); err == nil && cerr != nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	}

	return nil
}

// retainedArchives lists the previously retained <app>*.tar.gz files under
// the local prefix.
func (u *Updater) retainedArchives() ([]string, error) {
	infos, err := u.fs.ReadDir(u.LocalPrefix)
	if err != nil {
		return nil, &IoError{Op: "listing retained archives", Err: err}
	}

	var matches []string
	for _, info := range infos {
		name := info.Name()
		if !info.IsDir() && strings.HasPrefix(name, u.AppName) && strings.HasSuffix(name, ".tar.gz") {
			matches = append(matches, filepath.Join(u.LocalPrefix, name))
		}
	}

	return matches, nil
}
