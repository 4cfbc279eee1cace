// Package assets exports the images referenced by materials into the
// output texture directory. Each image is written at most once per run.
package assets

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/anthonynsimon/bild/transform"
	_ "github.com/ftrvxmtrx/tga"
	"github.com/h2non/filetype"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/Faultbox/xml3d-exporter/internal/logger"
	"github.com/Faultbox/xml3d-exporter/internal/report"
	"github.com/Faultbox/xml3d-exporter/pkg/naming"
	"github.com/Faultbox/xml3d-exporter/pkg/scene"
)

// ErrNoPixels is returned when an image has neither pixels nor decodable data.
var ErrNoPixels = errors.New("image has no pixel data")

// Host file formats written byte for byte.
var passthrough = map[string]string{
	"PNG":  ".png",
	"JPEG": ".jpg",
}

// Encoded formats for re-rasterized images.
const (
	FormatPNG  = "png"
	FormatWebP = "webp"
)

// Options configures an Exporter.
type Options struct {
	// Dir is the texture directory name below the output directory.
	Dir string
	// URLPrefix is prepended to file names in returned URLs.
	URLPrefix string
	// Format is the encoding for re-rasterized images.
	Format string
}

// DefaultOptions places textures next to the asset directory.
func DefaultOptions() Options {
	return Options{Dir: "textures", URLPrefix: "../textures/", Format: FormatPNG}
}

// Exporter writes images for one export run.
type Exporter struct {
	baseDir string
	opts    Options
	urls    *Cache[*scene.Image, string]
	names   map[string]bool
	copies  map[string]string
	log     *zap.Logger
}

// NewExporter creates an exporter writing below baseDir.
func NewExporter(baseDir string, opts Options) *Exporter {
	if opts.Dir == "" {
		opts = DefaultOptions()
	}
	if opts.Format == "" {
		opts.Format = FormatPNG
	}
	return &Exporter{
		baseDir: baseDir,
		opts:    opts,
		urls:    NewCache[*scene.Image, string](),
		names:   make(map[string]bool),
		copies:  make(map[string]string),
		log:     logger.Named("texture"),
	}
}

// Export returns the URL of img. An empty URL means the image is unusable
// and a warning was recorded. Errors are write failures that abort the run.
func (e *Exporter) Export(img *scene.Image) (string, report.Result, error) {
	var res report.Result
	if img == nil {
		return "", res, nil
	}
	if url, ok := e.urls.Get(img); ok {
		return url, res, nil
	}

	if img.Source != scene.ImageSourceFile && img.Source != scene.ImageSourceVideo {
		res.Warn(report.CategoryTexture, img.Name, 0,
			"Image '%s' is of source '%s' which is not (yet) supported. Using default ...", img.Name, img.Source)
		e.urls.Set(img, "")
		return "", res, nil
	}

	format := e.detectFormat(img)
	var (
		url string
		st  *report.FileStat
		err error
	)
	switch ext, ok := passthrough[format]; {
	case ok && len(img.Packed) > 0:
		url, st, err = e.writePacked(img, ext)
	case ok:
		url = e.queueCopy(img, ext)
	default:
		url, st, err = e.convert(img)
		if errors.Is(err, ErrNoPixels) {
			res.Warn(report.CategoryTexture, img.Name, 0,
				"Image '%s' has format '%s' which could not be decoded. Dropped image.", img.Name, format)
			e.urls.Set(img, "")
			return "", res, nil
		}
	}
	if err != nil {
		return "", res, fmt.Errorf("exporting image %s: %w", img.Name, err)
	}
	if st != nil {
		res.Textures = append(res.Textures, *st)
	}

	e.log.Debug("image exported", zap.String("image", img.Name), zap.String("format", format), zap.String("url", url))
	e.urls.Set(img, url)
	return url, res, nil
}

// Stats returns the memo hit and miss counts.
func (e *Exporter) Stats() (hits, misses int) {
	return e.urls.Stats()
}

// detectFormat returns the declared format or sniffs it from the data.
func (e *Exporter) detectFormat(img *scene.Image) string {
	if img.FileFormat != "" {
		return strings.ToUpper(img.FileFormat)
	}
	head := img.Packed
	if len(head) == 0 && img.Filepath != "" {
		head = readHead(img.Filepath, 262)
	}
	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return ""
	}
	switch kind.Extension {
	case "jpg":
		return "JPEG"
	case "tif":
		return "TIFF"
	default:
		return strings.ToUpper(kind.Extension)
	}
}

func readHead(path string, n int) []byte {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	buf := make([]byte, n)
	m, _ := io.ReadFull(f, buf)
	return buf[:m]
}

// fileName reserves a unique file name for img.
func (e *Exporter) fileName(img *scene.Image, ext string) string {
	stem := naming.Filename(strings.TrimSuffix(img.Name, filepath.Ext(img.Name)))
	name := stem + ext
	for i := 1; e.names[name]; i++ {
		name = fmt.Sprintf("%s_%d%s", stem, i, ext)
	}
	e.names[name] = true
	return name
}

func (e *Exporter) textureDir() (string, error) {
	dir := filepath.Join(e.baseDir, e.opts.Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func (e *Exporter) writePacked(img *scene.Image, ext string) (string, *report.FileStat, error) {
	dir, err := e.textureDir()
	if err != nil {
		return "", nil, err
	}
	name := e.fileName(img, ext)
	if err := os.WriteFile(filepath.Join(dir, name), img.Packed, 0o644); err != nil {
		return "", nil, err
	}
	return e.opts.URLPrefix + name, &report.FileStat{Name: name, Size: int64(len(img.Packed))}, nil
}

func (e *Exporter) queueCopy(img *scene.Image, ext string) string {
	srcExt := strings.ToLower(filepath.Ext(img.Filepath))
	if srcExt == ".jpeg" || srcExt == ".png" || srcExt == ".jpg" {
		ext = srcExt
	}
	name := e.fileName(img, ext)
	e.copies[name] = img.Filepath
	return e.opts.URLPrefix + name
}

// Flush copies the file-backed images queued by Export. Copy failures are
// reported as one warning for the whole set.
func (e *Exporter) Flush() report.Result {
	var res report.Result
	if len(e.copies) == 0 {
		return res
	}

	names := make([]string, 0, len(e.copies))
	for n := range e.copies {
		names = append(names, n)
	}
	sort.Strings(names)

	var failed []string
	var firstErr error
	for _, name := range names {
		size, err := e.copyTexture(e.copies[name], name)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			failed = append(failed, name)
			continue
		}
		res.Textures = append(res.Textures, report.FileStat{Name: name, Size: size})
	}
	if len(failed) > 0 {
		res.Warn(report.CategoryIO, "", 0,
			"Could not copy %d of %d texture files (%s): %v", len(failed), len(names), strings.Join(failed, ", "), firstErr)
	}
	e.copies = make(map[string]string)
	return res
}

func (e *Exporter) copyTexture(src, name string) (int64, error) {
	dir, err := e.textureDir()
	if err != nil {
		return 0, err
	}
	return copyFile(src, filepath.Join(dir, name))
}

func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return n, err
}

// convert re-encodes img from its pixel buffer or decodable source data.
func (e *Exporter) convert(img *scene.Image) (string, *report.FileStat, error) {
	src, err := rasterize(img)
	if err != nil {
		return "", nil, err
	}

	var buf bytes.Buffer
	ext := ".png"
	if e.opts.Format == FormatWebP {
		ext = ".webp"
		err = nativewebp.Encode(&buf, src, nil)
	} else {
		err = png.Encode(&buf, src)
	}
	if err != nil {
		return "", nil, fmt.Errorf("encoding %s: %w", ext, err)
	}

	dir, err := e.textureDir()
	if err != nil {
		return "", nil, err
	}
	name := e.fileName(img, ext)
	if err := os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644); err != nil {
		return "", nil, err
	}
	return e.opts.URLPrefix + name, &report.FileStat{Name: name, Size: int64(buf.Len())}, nil
}

// rasterize returns a top-down image. Host pixel buffers run bottom-up
// with normalized float channels.
func rasterize(img *scene.Image) (image.Image, error) {
	if img.Width > 0 && img.Height > 0 && len(img.Pixels) == img.Width*img.Height*4 {
		bottomUp := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
		for y := 0; y < img.Height; y++ {
			for x := 0; x < img.Width; x++ {
				i := (y*img.Width + x) * 4
				bottomUp.SetNRGBA(x, y, color.NRGBA{
					R: to8(img.Pixels[i]),
					G: to8(img.Pixels[i+1]),
					B: to8(img.Pixels[i+2]),
					A: to8(img.Pixels[i+3]),
				})
			}
		}
		return transform.FlipV(bottomUp), nil
	}

	data := img.Packed
	if len(data) == 0 && img.Filepath != "" {
		var err error
		if data, err = os.ReadFile(img.Filepath); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoPixels, err)
		}
	}
	if len(data) == 0 {
		return nil, ErrNoPixels
	}
	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoPixels, err)
	}
	return decoded, nil
}

func to8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}
