// Package imgx 读取并校验待识别的截图。
package imgx

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // 注册 GIF 解码器
	_ "image/jpeg" // 注册 JPEG 解码器
	_ "image/png"  // 注册 PNG 解码器
	"net/http"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/webp" // 注册 WebP 解码器
)

// MaxBytes 是单张图片的上限（模型 API 对内联图片有大小限制）。
const MaxBytes = 20 << 20

// Image 是已校验的图片内容。
type Image struct {
	Path   string
	MIME   string
	Data   []byte
	Width  int
	Height int
}

// ErrUnsupported 表示文件不是受支持的图片格式。
var ErrUnsupported = errors.New("不支持的图片格式（仅支持 png/jpeg/webp/gif）")

// Exts 是扫描目录时认作图片的扩展名（小写）。
var Exts = []string{".png", ".jpg", ".jpeg", ".webp", ".gif"}

// IsImageExt 判断扩展名（含点，大小写不敏感）是否为受支持的图片。
func IsImageExt(ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range Exts {
		if e == ext {
			return true
		}
	}
	return false
}

// Load 读取 path 并校验：
// - 非空，且不超过 MaxBytes
// - MIME 按内容嗅探（不信任扩展名）
// - 必须能解析出图片头与尺寸（损坏的文件不会发给模型）
func Load(path string) (Image, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return Image{}, err
	}
	if fi.IsDir() {
		return Image{}, fmt.Errorf("%q 是目录", path)
	}
	if fi.Size() == 0 {
		return Image{}, fmt.Errorf("%q 是空文件", path)
	}
	if fi.Size() > MaxBytes {
		return Image{}, fmt.Errorf("%q 过大（%d 字节，上限 %d）", path, fi.Size(), MaxBytes)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Image{}, err
	}
	img, err := Decode(b)
	if err != nil {
		return Image{}, fmt.Errorf("%s：%w", filepath.Base(path), err)
	}
	img.Path = path
	return img, nil
}

// Decode 校验内存中的图片字节（语义同 Load）。
func Decode(b []byte) (Image, error) {
	if len(b) == 0 {
		return Image{}, errors.New("图片为空")
	}
	mime := sniff(b)
	out := Image{MIME: mime, Data: b}

	switch mime {
	case "image/png", "image/jpeg", "image/gif", "image/webp":
		cfg, _, err := image.DecodeConfig(bytes.NewReader(b))
		if err != nil {
			return Image{}, fmt.Errorf("图片已损坏：%w", err)
		}
		if cfg.Width <= 0 || cfg.Height <= 0 {
			return Image{}, errors.New("图片尺寸无效")
		}
		out.Width, out.Height = cfg.Width, cfg.Height
	default:
		return Image{}, ErrUnsupported
	}
	return out, nil
}

// DataURL 返回 data:<mime>;base64,<...>，用于多模态请求的内联图片。
func (i Image) DataURL() string {
	return "data:" + i.MIME + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

func sniff(b []byte) string {
	// http.DetectContentType 能识别 png/jpeg/gif/webp 的签名。
	mime := http.DetectContentType(b)
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return strings.TrimSpace(mime)
}
