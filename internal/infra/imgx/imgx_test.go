package imgx

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	src := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src.Set(x, y, color.RGBA{uint8(x), uint8(y), 0, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("encode png 失败：%v", err)
	}
	return buf.Bytes()
}

func TestLoad_PNGWithWrongExtension(t *testing.T) {
	// 扩展名是 .jpg，但内容是 PNG：MIME 以内容为准。
	p := filepath.Join(t.TempDir(), "slip.jpg")
	if err := os.WriteFile(p, pngBytes(t, 40, 20), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}

	img, err := Load(p)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if img.MIME != "image/png" || img.Width != 40 || img.Height != 20 || img.Path != p {
		t.Fatalf("图片信息不符合预期：%+v", img)
	}
	if !strings.HasPrefix(img.DataURL(), "data:image/png;base64,") {
		t.Fatalf("data URL 前缀不正确：%.40s", img.DataURL())
	}
}

func TestDecode_JPEG(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 8, 8)), nil); err != nil {
		t.Fatalf("encode jpeg 失败：%v", err)
	}
	img, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if img.MIME != "image/jpeg" || img.Width != 8 {
		t.Fatalf("图片信息不符合预期：%+v", img)
	}
}

// webpBytes 构造一个最小的无损 WebP（VP8L）文件头，足以解析出尺寸。
func webpBytes(w, h int) []byte {
	bits := uint32(w-1) | uint32(h-1)<<14
	vp8l := []byte{0x2f, byte(bits), byte(bits >> 8), byte(bits >> 16), byte(bits >> 24)}

	var b bytes.Buffer
	b.WriteString("RIFF")
	b.Write(le32(uint32(4 + 8 + len(vp8l) + 1)))
	b.WriteString("WEBPVP8L")
	b.Write(le32(uint32(len(vp8l))))
	b.Write(vp8l)
	b.WriteByte(0) // 奇数长度 chunk 的填充字节
	return b.Bytes()
}

func le32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func TestDecode_WebP(t *testing.T) {
	img, err := Decode(webpBytes(3, 2))
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if img.MIME != "image/webp" || img.Width != 3 || img.Height != 2 {
		t.Fatalf("图片信息不符合预期：%+v", img)
	}
}

func TestDecode_RejectsCorruptWebP(t *testing.T) {
	cases := map[string][]byte{
		"帧数据是乱码":  []byte("RIFF\x10\x00\x00\x00WEBPVP8 garbage-not-a-frame"),
		"VP8 帧为空": append([]byte("RIFF\x24\x00\x00\x00WEBPVP8 "), make([]byte, 32)...),
	}
	for name, b := range cases {
		img, err := Decode(b)
		if err == nil {
			t.Fatalf("%s：损坏的 WebP 应返回错误，实际 %+v", name, img)
		}
		if errors.Is(err, ErrUnsupported) {
			t.Fatalf("%s：应识别为 WebP 后报损坏，而不是不支持：%v", name, err)
		}
	}
}

func TestDecode_RejectsTextAndCorrupt(t *testing.T) {
	if _, err := Decode([]byte("Arsenal vs Chelsea")); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("文本应返回 ErrUnsupported，实际 %v", err)
	}
	b := pngBytes(t, 4, 4)
	if _, err := Decode(b[:20]); err == nil {
		t.Fatalf("截断的 PNG 应返回错误")
	}
	if _, err := Decode(nil); err == nil {
		t.Fatalf("空输入应返回错误")
	}
}

func TestLoad_EmptyAndDir(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(dir); err == nil {
		t.Fatalf("目录应返回错误")
	}
	p := filepath.Join(dir, "empty.png")
	if err := os.WriteFile(p, nil, 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
	if _, err := Load(p); err == nil {
		t.Fatalf("空文件应返回错误")
	}
}

func TestIsImageExt(t *testing.T) {
	for _, ext := range []string{".PNG", ".jpg", ".jpeg", ".webp", ".gif"} {
		if !IsImageExt(ext) {
			t.Fatalf("%q 应被识别为图片", ext)
		}
	}
	if IsImageExt(".txt") {
		t.Fatalf(".txt 不应被识别为图片")
	}
}
