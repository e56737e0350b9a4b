package filemgr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"kilnhouse/utils"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp"
)

type EntityType string
type PictureType string

const (
	EntityProduct     EntityType = "product"
	EntityWorkshop    EntityType = "workshop"
	EntityExperience  EntityType = "experience"
	EntityCustom      EntityType = "custom"
	EntityTestimonial EntityType = "testimonial"
	EntityBusiness    EntityType = "business"
	EntityUser        EntityType = "user"

	PicPhoto    PictureType = "photo"
	PicThumb    PictureType = "thumb"
	PicLogo     PictureType = "logo"
	PicVideo    PictureType = "video"
	PicDocument PictureType = "document"
)

var (
	AllowedExtensions = map[PictureType][]string{
		PicPhoto:    {".jpg", ".jpeg", ".png", ".gif", ".webp"},
		PicThumb:    {".jpg"},
		PicLogo:     {".jpg", ".jpeg", ".png"},
		PicVideo:    {".mp4", ".mov", ".webm"},
		PicDocument: {".pdf"},
	}

	AllowedMIMEs = map[PictureType][]string{
		PicPhoto:    {"image/jpeg", "image/png", "image/gif", "image/webp"},
		PicThumb:    {"image/jpeg"},
		PicLogo:     {"image/jpeg", "image/png"},
		PicVideo:    {"video/mp4", "video/quicktime", "video/webm"},
		PicDocument: {"application/pdf"},
	}

	PictureSubfolders = map[PictureType]string{
		PicPhoto:    "photo",
		PicThumb:    "thumb",
		PicLogo:     "logo",
		PicVideo:    "videos",
		PicDocument: "docs",
	}

	ErrInvalidExtension = errors.New("invalid file extension")
	ErrInvalidMIME      = errors.New("invalid MIME type")
	ErrFileTooLarge     = errors.New("file size exceeds limit")

	LogFunc func(path string, size int64, mimeType string)
)

// InvoiceDir holds generated order invoices, served under /static.
var InvoiceDir = filepath.Join("static", "invoices")

// PublicURL prefixes a relative static path with PUBLIC_BASE_URL when set.
func PublicURL(rel string) string {
	base := strings.TrimRight(os.Getenv("PUBLIC_BASE_URL"), "/")
	rel = strings.TrimLeft(rel, "/")
	if base == "" {
		return "/" + rel
	}
	return base + "/" + rel
}

// SaveFile validates extension and sniffed MIME, then writes the upload under
// destDir. A nil customNameFn gets a uuid filename.
func SaveFile(reader io.Reader, header *multipart.FileHeader, destDir string, maxSize int64, customNameFn func(original string) string) (string, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	picType := detectPicType(destDir)
	if picType == "" {
		return "", fmt.Errorf("unknown picture type for folder: %s", destDir)
	}

	if !isExtensionAllowed(ext, picType) {
		return "", fmt.Errorf("%w: %s for %s", ErrInvalidExtension, ext, picType)
	}

	buf := make([]byte, 512)
	n, err := reader.Read(buf)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read header: %w", err)
	}
	mimeType := http.DetectContentType(buf[:n])
	if mimeType == "application/octet-stream" {
		if formMime := header.Header.Get("Content-Type"); formMime != "" {
			mimeType = formMime
		}
	}
	if !isMIMEAllowed(mimeType, picType) {
		return "", fmt.Errorf("%w: %s for %s", ErrInvalidMIME, mimeType, picType)
	}

	if err := ScanForViruses(header.Filename); err != nil {
		return "", fmt.Errorf("virus scan failed: %w", err)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", destDir, err)
	}

	filename := getSafeFilename(header.Filename, ext, customNameFn)
	fullPath := filepath.Join(destDir, filename)
	out, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", fullPath, err)
	}
	defer out.Close()

	if _, err := out.Write(buf[:n]); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	written, err := io.Copy(out, io.LimitReader(reader, maxSize-int64(n)))
	if err != nil {
		return "", fmt.Errorf("write body: %w", err)
	}
	if maxSize > 0 && written+int64(n) > maxSize {
		return "", ErrFileTooLarge
	}

	if LogFunc != nil {
		LogFunc(fullPath, written+int64(n), mimeType)
	}
	return filename, nil
}

// SaveImageWithThumb stores the original image plus a jpeg thumbnail resized
// to thumbWidth. Returns both stored filenames.
func SaveImageWithThumb(file multipart.File, header *multipart.FileHeader, entity EntityType, picType PictureType, thumbWidth int) (string, string, error) {
	defer file.Close()

	buf, err := io.ReadAll(file)
	if err != nil {
		return "", "", fmt.Errorf("failed to read file: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(buf))
	if err != nil {
		return "", "", fmt.Errorf("failed to decode image %q: %w", header.Filename, err)
	}
	if err := ValidateImageDimensions(img, 3000, 3000); err != nil {
		return "", "", fmt.Errorf("image %q failed dimension validation: %w", header.Filename, err)
	}

	// jpeg uploads are re-encoded, which drops EXIF blocks
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext == ".jpg" || ext == ".jpeg" {
		if strip, err := stripEXIF(img); err == nil {
			buf = strip.Bytes()
		}
	}

	origPath := ResolvePath(entity, picType)
	origName, err := SaveFile(bytes.NewReader(buf), header, origPath, 10<<20, nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to save original image to %q: %w", origPath, err)
	}

	thumbImg := imaging.Resize(img, thumbWidth, 0, imaging.Lanczos)
	thumbName := strings.TrimSuffix(origName, filepath.Ext(origName)) + ".jpg"
	thumbDir := ResolvePath(entity, PicThumb)
	if err := os.MkdirAll(thumbDir, 0o755); err != nil {
		return origName, "", fmt.Errorf("failed to create thumbnail directory %q: %w", thumbDir, err)
	}

	thumbPath := filepath.Join(thumbDir, thumbName)
	out, err := os.Create(thumbPath)
	if err != nil {
		return origName, "", fmt.Errorf("failed to create thumbnail file %q: %w", thumbPath, err)
	}
	defer out.Close()
	if err := jpeg.Encode(out, thumbImg, &jpeg.Options{Quality: 85}); err != nil {
		return origName, "", fmt.Errorf("failed to encode thumbnail JPEG: %w", err)
	}

	if LogFunc != nil {
		LogFunc(thumbPath, 0, "image/jpeg")
	}
	return origName, thumbName, nil
}

// SaveFormFile saves the first file under formKey, if present.
func SaveFormFile(form *multipart.Form, formKey string, entity EntityType, picType PictureType, required bool) (string, error) {
	files := form.File[formKey]
	if len(files) == 0 {
		if required {
			return "", fmt.Errorf("missing required file: %s", formKey)
		}
		return "", nil
	}
	file, err := files[0].Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", formKey, err)
	}
	defer file.Close()
	return SaveFile(file, files[0], ResolvePath(entity, picType), 50<<20, nil)
}

func ScanForViruses(fileName string) error {
	if strings.Contains(fileName, "virus") {
		return fmt.Errorf("virus signature matched")
	}
	return nil
}

func stripEXIF(img image.Image) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 90})
	return buf, err
}

func detectPicType(destDir string) PictureType {
	parts := strings.Split(destDir, string(os.PathSeparator))
	if len(parts) == 0 {
		return ""
	}
	last := strings.ToLower(parts[len(parts)-1])
	for picType, folder := range PictureSubfolders {
		if folder == last {
			return picType
		}
	}
	return ""
}

func ensureSafeFilename(name, ext string) string {
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "_")
	reg := regexp.MustCompile(`[^a-zA-Z0-9_\-]`)
	name = reg.ReplaceAllString(name, "")
	return name + ext
}

func getSafeFilename(original, ext string, fn func(string) string) string {
	name := ""
	if fn != nil {
		name = strings.TrimSpace(fn(original))
	}
	if name == "" {
		name = uuid.New().String() + ext
	} else {
		name = ensureSafeFilename(name, ext)
	}
	return name
}

func isExtensionAllowed(ext string, picType PictureType) bool {
	return utils.Contains(AllowedExtensions[picType], ext)
}

func isMIMEAllowed(mimeType string, picType PictureType) bool {
	return utils.Contains(AllowedMIMEs[picType], mimeType)
}

func ResolvePath(entity EntityType, picType PictureType) string {
	subfolder := PictureSubfolders[picType]
	if subfolder == "" {
		subfolder = "misc"
	}
	return filepath.Join("static", "uploads", strings.ToLower(string(entity)), subfolder)
}

func ValidateImageDimensions(img image.Image, maxWidth, maxHeight int) error {
	bounds := img.Bounds()
	if bounds.Dx() > maxWidth || bounds.Dy() > maxHeight {
		return fmt.Errorf("image dimensions %dx%d exceed max %dx%d", bounds.Dx(), bounds.Dy(), maxWidth, maxHeight)
	}
	return nil
}
