package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cafe-pos-api/apperr"
	"cafe-pos-api/controllers"
	"cafe-pos-api/testutil"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 139, G: 69, B: 19, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestThumbnailKeepsAspectRatio(t *testing.T) {
	wide := Thumbnail(image.NewRGBA(image.Rect(0, 0, 1200, 600)), 300)
	assert.Equal(t, image.Rect(0, 0, 300, 150), wide.Bounds())

	tall := Thumbnail(image.NewRGBA(image.Rect(0, 0, 100, 400)), 300)
	assert.Equal(t, image.Rect(0, 0, 75, 300), tall.Bounds())

	small := Thumbnail(image.NewRGBA(image.Rect(0, 0, 40, 20)), 300)
	assert.Equal(t, image.Rect(0, 0, 40, 20), small.Bounds())
}

func TestUploadMenuImage(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	menu := controllers.NewMenuController(testutil.NewDB(t))
	name, price := "Latte", d("3.00")
	item, err := menu.Create(ctx, controllers.MenuItemInput{Name: &name, Price: &price})
	require.NoError(t, err)
	svc := NewImageService(menu, dir, 1<<20, quietLogger())

	res, err := svc.Upload(ctx, item.ID, "latte.PNG", bytes.NewReader(pngBytes(t, 640, 480)))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Filename, item.ID+"_"))
	assert.True(t, strings.HasSuffix(res.Filename, ".png"))
	assert.Equal(t, "/uploads/menu_items/"+res.Filename, res.ImageURL)
	assert.Equal(t, res.ImageURL, res.MenuItem.ImageURL)
	assert.NotEmpty(t, res.ThumbnailURL)
	assert.FileExists(t, filepath.Join(dir, "menu_items", res.Filename))

	thumb, err := os.Open(filepath.Join(dir, "thumbnails", res.Filename))
	require.NoError(t, err)
	defer thumb.Close()
	cfg, format, err := image.DecodeConfig(thumb)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 300, cfg.Width)
	assert.Equal(t, 225, cfg.Height)
}

func TestUploadMenuImageRejects(t *testing.T) {
	ctx := context.Background()
	menu := controllers.NewMenuController(testutil.NewDB(t))
	name, price := "Latte", d("3.00")
	item, err := menu.Create(ctx, controllers.MenuItemInput{Name: &name, Price: &price})
	require.NoError(t, err)
	svc := NewImageService(menu, t.TempDir(), 512, quietLogger())

	code := func(err error) string {
		e, ok := apperr.As(err)
		require.True(t, ok, "unexpected error %v", err)
		return e.Code
	}

	_, err = svc.Upload(ctx, item.ID, "big.png", bytes.NewReader(make([]byte, 1024)))
	assert.Equal(t, apperr.CodeFileTooLarge, code(err))

	_, err = svc.Upload(ctx, item.ID, "notes.txt", strings.NewReader("hello"))
	assert.Equal(t, apperr.CodeInvalidFileType, code(err))

	_, err = svc.Upload(ctx, item.ID, "fake.png", strings.NewReader("plain text pretending"))
	assert.Equal(t, apperr.CodeInvalidFileType, code(err))

	_, err = svc.Upload(ctx, "missing", "x.png", strings.NewReader("x"))
	assert.Equal(t, apperr.CodeNotFound, code(err))
}
