package services

import (
	"testing"
)

func TestScaleDownBoundsLongestSide(t *testing.T) {
	img, err := decodeImage(testJPEG(t, 2000, 1000))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	out := scaleDown(img, 512)
	b := out.Bounds()
	if b.Dx() != 512 || b.Dy() != 256 {
		t.Fatalf("unexpected size: %dx%d", b.Dx(), b.Dy())
	}
}

func TestScaleDownKeepsSmallImages(t *testing.T) {
	img, err := decodeImage(testJPEG(t, 100, 80))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	out := scaleDown(img, 512)
	b := out.Bounds()
	if b.Dx() != 100 || b.Dy() != 80 {
		t.Fatalf("small image was resized: %dx%d", b.Dx(), b.Dy())
	}
}

func TestPortraitFrameCropsToAspect(t *testing.T) {
	cases := []struct {
		name string
		w, h int
	}{
		{"wide", 1920, 1080},
		{"tall", 500, 2000},
		{"exact", 540, 960},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			img, err := decodeImage(testJPEG(t, tc.w, tc.h))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			out := portraitFrame(img, 1080, 1920)
			b := out.Bounds()
			if b.Dx() != 1080 || b.Dy() != 1920 {
				t.Fatalf("unexpected size: %dx%d", b.Dx(), b.Dy())
			}
		})
	}
}
