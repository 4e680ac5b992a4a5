package loader

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hidromet/rainfall-enso-etl/internal/domain"
)

// shapefileSidecars are the auxiliary members extracted alongside the .shp
// when they share its base name.
var shapefileSidecars = []string{".dbf", ".shx", ".prj", ".cpg"}

// ExtractShapefile opens a zipped geometry archive, locates exactly one .shp
// member, and extracts it with its sidecar files into a scoped temporary
// directory. The returned cleanup removes the directory and must be called
// on every path, including after errors from the caller's own parsing.
//
// Zero .shp members, more than one, or a corrupt archive produce a
// *domain.GeometryError naming the archive; the loader never guesses
// between candidates.
func ExtractShapefile(name string, r io.Reader) (shpPath string, cleanup func(), err error) {
	noop := func() {}

	raw, err := io.ReadAll(r)
	if err != nil {
		return "", noop, &domain.GeometryError{Archive: name, Reason: "read archive", Err: err}
	}
	if len(raw) == 0 {
		return "", noop, &domain.GeometryError{Archive: name, Reason: "empty archive", Err: domain.ErrEmptyFile}
	}

	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", noop, &domain.GeometryError{Archive: name, Reason: "not a zip archive", Err: err}
	}

	var shpMember *zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || strings.HasPrefix(f.Name, "__MACOSX/") {
			continue
		}
		if strings.EqualFold(filepath.Ext(f.Name), ".shp") {
			if shpMember != nil {
				return "", noop, &domain.GeometryError{Archive: name, Reason: "multiple .shp members, refusing to guess"}
			}
			shpMember = f
		}
	}
	if shpMember == nil {
		return "", noop, &domain.GeometryError{Archive: name, Reason: "no .shp member found"}
	}

	dir, err := os.MkdirTemp("", "geom-*")
	if err != nil {
		return "", noop, &domain.GeometryError{Archive: name, Reason: "temp dir", Err: err}
	}
	cleanup = func() { os.RemoveAll(dir) }

	base := strings.TrimSuffix(filepath.Base(shpMember.Name), filepath.Ext(shpMember.Name))
	if err := extractMember(zr, shpMember.Name, filepath.Join(dir, base+".shp")); err != nil {
		cleanup()
		return "", noop, &domain.GeometryError{Archive: name, Reason: "extract .shp", Err: err}
	}

	memberDir := strings.TrimSuffix(shpMember.Name, filepath.Base(shpMember.Name))
	for _, ext := range shapefileSidecars {
		src := memberDir + base + ext
		if err := extractMember(zr, src, filepath.Join(dir, base+ext)); err != nil {
			// Sidecars are optional; only the .shp is mandatory.
			continue
		}
	}

	return filepath.Join(dir, base+".shp"), cleanup, nil
}

// extractMember copies one archive member to dst. Member names are flattened
// to base names on extraction, so archive paths cannot escape the temp dir.
func extractMember(zr *zip.Reader, member, dst string) error {
	f, err := findMember(zr, member)
	if err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return err
	}
	return out.Close()
}

// findMember locates a member case-insensitively, since sidecar extensions
// show up as both .DBF and .dbf in the wild.
func findMember(zr *zip.Reader, name string) (*zip.File, error) {
	for _, f := range zr.File {
		if strings.EqualFold(f.Name, name) {
			return f, nil
		}
	}
	return nil, fmt.Errorf("member %q not in archive", name)
}
