package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// MaxImageSize 图片大小上限 5MB
const MaxImageSize = 5 * 1024 * 1024

var (
	ErrImageType     = errors.New("file type not allowed, only JPG, PNG, WebP and GIF are accepted")
	ErrImageTooLarge = errors.New("file too large, maximum 5MB")
	ErrImageEmpty    = errors.New("no file provided")
)

// allowedImageTypes MIME → 默认扩展名
var allowedImageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// ValidateImage 按 MIME 白名单和大小校验
func ValidateImage(contentType string, size int64) error {
	if size <= 0 {
		return ErrImageEmpty
	}
	if _, ok := allowedImageTypes[normalizeMIME(contentType)]; !ok {
		return ErrImageType
	}
	if size > MaxImageSize {
		return ErrImageTooLarge
	}
	return nil
}

// ImageKey 生成对象 key：{dir}/{name}-{unixms}.{ext}
//
// 扩展名优先取原文件名后缀，没有时按 MIME 推断。
func ImageKey(dir, name, filename, contentType string, now time.Time) string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(filename)), ".")
	if ext == "" {
		ext = allowedImageTypes[normalizeMIME(contentType)]
	}
	return fmt.Sprintf("%s/%s-%d.%s", strings.Trim(dir, "/"), name, now.UnixMilli(), ext)
}

// LogoKey 首页 logo 的对象 key
func LogoKey(filename, contentType string, now time.Time) string {
	return ImageKey("logos", "logo", filename, contentType, now)
}

// BusinessImageKey 商家 logo/封面图的对象 key
func BusinessImageKey(businessID, kind, filename, contentType string, now time.Time) string {
	return ImageKey("businesses/"+businessID, kind, filename, contentType, now)
}

// SaveImage 校验并上传图片，返回公开地址
func SaveImage(ctx context.Context, u Uploader, key string, r io.Reader, size int64, contentType string) (string, error) {
	if err := ValidateImage(contentType, size); err != nil {
		return "", err
	}
	if err := u.Upload(ctx, key, r, size, normalizeMIME(contentType)); err != nil {
		return "", err
	}
	return u.PublicURL(key), nil
}

// IsValidationError 是否为客户端输入错误
func IsValidationError(err error) bool {
	return errors.Is(err, ErrImageType) || errors.Is(err, ErrImageTooLarge) || errors.Is(err, ErrImageEmpty)
}

func normalizeMIME(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
