package spacetraveling

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	defaultMaxImageWidth = 1440
	jpegQuality          = 80
	maxBannerSize        = 10 << 20 // 10MB
)

// bannerImage is a banner re-encoded for a static build.
type bannerImage struct {
	Width  int
	Height int
	Data   []byte
}

// processImage decodes an image from src, resizes it down to maxWidth when
// wider, and encodes it as JPEG.
func processImage(src io.Reader, maxWidth int) (bannerImage, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return bannerImage{}, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if maxWidth > 0 && w > maxWidth {
		newH := h * maxWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w = maxWidth
		h = newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return bannerImage{}, fmt.Errorf("encode jpeg: %w", err)
	}
	return bannerImage{Width: w, Height: h, Data: buf.Bytes()}, nil
}

// fetchBanner downloads the image at rawURL and runs it through processImage.
func (a *App) fetchBanner(ctx context.Context, rawURL string, maxWidth int) (bannerImage, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return bannerImage{}, errors.New("unsupported banner url")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return bannerImage{}, err
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return bannerImage{}, fmt.Errorf("download banner: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return bannerImage{}, fmt.Errorf("download banner: status %d", resp.StatusCode)
	}
	return processImage(io.LimitReader(resp.Body, maxBannerSize), maxWidth)
}
