package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"cafe-pos-api/apperr"
	"cafe-pos-api/controllers"
)

const (
	thumbnailEdge    = 300
	thumbnailQuality = 85
	menuImageDir     = "menu_items"
	thumbnailDir     = "thumbnails"
)

// allowedImages maps accepted extensions to the content type the bytes must sniff as.
var allowedImages = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

type UploadResult struct {
	MenuItemID       string `json:"menu_item_id"`
	Filename         string `json:"filename"`
	OriginalFilename string `json:"original_filename"`
	ImageURL         string `json:"image_url"`
	ThumbnailURL     string `json:"thumbnail_url,omitempty"`
	FileSize         int64  `json:"file_size"`
	HumanSize        string `json:"file_size_human"`
	MenuItem         struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Size     string `json:"size"`
		ImageURL string `json:"imageUrl"`
	} `json:"menu_item"`
}

// ImageService stores menu item photos under dir and serves them from /uploads.
type ImageService struct {
	menu     *controllers.MenuController
	dir      string
	maxBytes int64
	log      *logrus.Entry
}

func NewImageService(menu *controllers.MenuController, dir string, maxBytes int64, log *logrus.Logger) *ImageService {
	return &ImageService{menu: menu, dir: dir, maxBytes: maxBytes, log: log.WithField("component", "images")}
}

// MaxBytes is the largest accepted upload.
func (s *ImageService) MaxBytes() int64 { return s.maxBytes }

func (s *ImageService) Upload(ctx context.Context, menuItemID, filename string, r io.Reader) (*UploadResult, error) {
	if menuItemID == "" {
		return nil, apperr.Validation("menu_item_id is required")
	}
	item, err := s.menu.Get(ctx, menuItemID)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, apperr.New(http.StatusBadRequest, apperr.CodeFileTooLarge,
			fmt.Sprintf("File size too large. Maximum %s allowed.", humanize.IBytes(uint64(s.maxBytes))))
	}
	ext := strings.ToLower(filepath.Ext(filename))
	want, ok := allowedImages[ext]
	if !ok {
		return nil, apperr.New(http.StatusBadRequest, apperr.CodeInvalidFileType,
			"Invalid file type. Allowed: .jpg, .jpeg, .png, .gif, .webp")
	}
	if mt := mimetype.Detect(data); !mt.Is(want) {
		return nil, apperr.New(http.StatusBadRequest, apperr.CodeInvalidFileType,
			fmt.Sprintf("File content is %s, expected %s", mt.String(), want))
	}

	name := fmt.Sprintf("%s_%s%s", menuItemID, strings.ReplaceAll(uuid.NewString(), "-", "")[:8], ext)
	original := filepath.Join(s.dir, menuImageDir, name)
	if err := writeFile(original, data); err != nil {
		return nil, err
	}

	res := &UploadResult{
		MenuItemID:       menuItemID,
		Filename:         name,
		OriginalFilename: filename,
		ImageURL:         "/uploads/" + menuImageDir + "/" + name,
		FileSize:         int64(len(data)),
		HumanSize:        humanize.IBytes(uint64(len(data))),
	}
	thumb := filepath.Join(s.dir, thumbnailDir, name)
	if err := writeThumbnail(thumb, data); err != nil {
		s.log.WithError(err).WithField("file", name).Warn("thumbnail not created")
	} else {
		res.ThumbnailURL = "/uploads/" + thumbnailDir + "/" + name
	}

	url := res.ImageURL
	updated, err := s.menu.Update(ctx, item.ID, controllers.MenuItemInput{ImageURL: &url})
	if err != nil {
		os.Remove(original)
		os.Remove(thumb)
		return nil, err
	}
	res.MenuItem.ID, res.MenuItem.Name, res.MenuItem.Size, res.MenuItem.ImageURL = updated.ID, updated.Name, updated.Size, updated.ImageURL
	s.log.WithFields(logrus.Fields{"menu_item_id": menuItemID, "file": name, "size": res.HumanSize}).Info("menu image stored")
	return res, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save upload: %w", err)
	}
	return nil
}

// writeThumbnail fits the image inside a 300x300 box, keeping its aspect
// ratio, and stores it as JPEG regardless of the source format.
func writeThumbnail(path string, data []byte) error {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, Thumbnail(src, thumbnailEdge), &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		return fmt.Errorf("encode thumbnail: %w", err)
	}
	return writeFile(path, buf.Bytes())
}

// Thumbnail scales src down to fit an edge x edge box on a white background.
// Images already small enough keep their size.
func Thumbnail(src image.Image, edge int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > edge || h > edge {
		if w >= h {
			w, h = edge, max(1, h*edge/w)
		} else {
			w, h = max(1, w*edge/h), edge
		}
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
