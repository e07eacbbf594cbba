package service

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/mdobak/go-xerrors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DecodeImage 解码上传的原始图像
func DecodeImage(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", xerrors.Newf("%w: empty payload", ErrInvalidImage)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", xerrors.Newf("%w: %v", ErrInvalidImage, err)
	}
	if img.Bounds().Empty() {
		return nil, format, xerrors.Newf("%w: zero-sized %s image", ErrInvalidImage, format)
	}
	return img, format, nil
}

// EncodePNG 无损编码结果图像
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, xerrors.Newf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
