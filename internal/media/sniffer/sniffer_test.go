package sniffer

import (
	"bytes"
	"image"
	"image/png"
	"testing"
)

func TestDetectHead(t *testing.T) {
	tests := []struct {
		name     string
		head     []byte
		wantType MediaType
		wantMIME string
		wantErr  bool
	}{
		{"jpeg", []byte{0xff, 0xd8, 0xff, 0xe0}, TypeJPEG, "image/jpeg", false},
		{"png", []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, TypePNG, "image/png", false},
		{"gif87a", []byte("GIF87a"), TypeGIF, "image/gif", false},
		{"gif89a", []byte("GIF89a"), TypeGIF, "image/gif", false},
		{"empty", nil, "", "", true},
		{"text", []byte("hello world"), "", "", true},
		{"truncated jpeg", []byte{0xff, 0xd8}, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectHead(tt.head)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("DetectHead(%q) succeeded, want error", tt.head)
				}
				return
			}
			if err != nil {
				t.Fatalf("DetectHead: %v", err)
			}
			if got.Type != tt.wantType || got.MIME != tt.wantMIME {
				t.Errorf("DetectHead = %+v, want %s/%s", got, tt.wantType, tt.wantMIME)
			}
		})
	}
}

func TestAllowed(t *testing.T) {
	if !Allowed(TypeGIF, AvatarTypes) {
		t.Error("gif must be allowed for avatars")
	}
	if Allowed(TypeGIF, ColorizeTypes) {
		t.Error("gif must not be allowed for colorization")
	}
	if !Allowed(TypeJPEG, ColorizeTypes) || !Allowed(TypePNG, ColorizeTypes) {
		t.Error("jpeg and png must be allowed for colorization")
	}
}

func TestDimensions(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 320, 200))); err != nil {
		t.Fatalf("encode: %v", err)
	}

	width, height, err := Dimensions(buf.Bytes())
	if err != nil {
		t.Fatalf("Dimensions: %v", err)
	}
	if width != 320 || height != 200 {
		t.Errorf("Dimensions = %dx%d, want 320x200", width, height)
	}

	if _, _, err := Dimensions([]byte("not an image")); err == nil {
		t.Error("Dimensions accepted garbage")
	}
}
