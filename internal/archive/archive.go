// Package archive 处理包的 gzip tar 归档：读取清单、解压到工作目录、打包目录。
package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/catattack05/functionary/internal/domain"
	"github.com/catattack05/functionary/internal/manifest"
)

// maxManifestSize 限制 package.yaml 的读取量。
const maxManifestSize = 1 << 20

var errNotTarball = fmt.Errorf("%w: could not untar package file, make sure it is a valid gzipped tarball", domain.ErrInvalidPackage)

func openTar(contents []byte) (*tar.Reader, io.Closer, error) {
	gz, err := gzip.NewReader(bytes.NewReader(contents))
	if err != nil {
		return nil, nil, errNotTarball
	}
	return tar.NewReader(gz), gz, nil
}

// entryName 规范化归档内路径，去掉开头的 "./"。
func entryName(name string) string {
	name = path.Clean(strings.TrimPrefix(name, "./"))
	if name == "." {
		return ""
	}
	return name
}

// ReadManifest 从归档中读取并解析根目录的 package.yaml。
// 同名条目出现多次时以最后一个为准。
func ReadManifest(contents []byte) (*manifest.Manifest, error) {
	tr, closer, err := openTar(contents)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	var (
		data  []byte
		found bool
	)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errNotTarball
		}
		if entryName(hdr.Name) != manifest.FileName {
			continue
		}
		found = true
		if hdr.Typeflag != tar.TypeReg {
			data = nil
			continue
		}
		data, err = io.ReadAll(io.LimitReader(tr, maxManifestSize+1))
		if err != nil {
			return nil, errNotTarball
		}
		if len(data) > maxManifestSize {
			return nil, fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrInvalidPackage, manifest.FileName, maxManifestSize)
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %s not found", domain.ErrInvalidPackage, manifest.FileName)
	}
	if data == nil {
		return nil, fmt.Errorf("%w: %s found, but is not a regular file", domain.ErrInvalidPackage, manifest.FileName)
	}
	return manifest.Parse(data)
}

// Extract 把归档解压到 dir。只允许普通文件和目录，拒绝绝对路径与跳出 dir 的路径。
func Extract(contents []byte, dir string) error {
	tr, closer, err := openTar(contents)
	if err != nil {
		return err
	}
	defer closer.Close()

	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return errNotTarball
		}
		if hdr.Typeflag == tar.TypeXGlobalHeader {
			continue
		}
		name := entryName(hdr.Name)
		if name == "" {
			continue
		}
		if path.IsAbs(hdr.Name) || name == ".." || strings.HasPrefix(name, "../") {
			return fmt.Errorf("%w: illegal path %q in archive", domain.ErrInvalidPackage, hdr.Name)
		}
		target := filepath.Join(dir, filepath.FromSlash(name))

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("extract %s: %w", name, err)
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, hdr.FileInfo().Mode().Perm()); err != nil {
				return fmt.Errorf("extract %s: %w", name, err)
			}
		default:
			return fmt.Errorf("%w: unsupported entry %q of type %q", domain.ErrInvalidPackage, hdr.Name, hdr.Typeflag)
		}
	}
}

func writeFile(target string, r io.Reader, perm fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm|0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Pack 把 dir 打成 gzip tar 写入 w，条目路径相对 dir。符号链接等特殊文件会报错。
func Pack(dir string, w io.Writer) error {
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)

	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() && !info.IsDir() {
			return fmt.Errorf("%s: only regular files and directories can be packed", rel)
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if info.IsDir() {
			hdr.Name += "/"
		}
		hdr.Uname, hdr.Gname = "", ""
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
	if err != nil {
		return fmt.Errorf("pack %s: %w", dir, err)
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("pack %s: %w", dir, err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("pack %s: %w", dir, err)
	}
	return nil
}
