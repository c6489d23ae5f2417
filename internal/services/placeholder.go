package services

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"image/color"
	"os"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	"github.com/styleswipe/backend/internal/logger"
)

// PlaceholderService renders a flat card with the product's initials,
// used as the catalog image when a listing ships without a usable
// thumbnail.
type PlaceholderService interface {
	RenderCard(title string, source string) ([]byte, error)
}

type placeholderService struct {
	log       *logger.Logger
	bgColors  []color.NRGBA
	titleFace font.Face
	labelFace font.Face
}

var placeholderPalette = []color.NRGBA{
	{R: 0x2E, G: 0x3A, B: 0x59, A: 0xFF},
	{R: 0x5B, G: 0x6E, B: 0x8C, A: 0xFF},
	{R: 0x8C, G: 0x5B, B: 0x6E, A: 0xFF},
	{R: 0x3F, G: 0x6B, B: 0x52, A: 0xFF},
	{R: 0x6E, G: 0x5B, B: 0x8C, A: 0xFF},
	{R: 0x8C, G: 0x6E, B: 0x3F, A: 0xFF},
}

func NewPlaceholderService(log *logger.Logger) (PlaceholderService, error) {
	serviceLog := log.With("service", "PlaceholderService")

	fontPath := os.Getenv("PLACEHOLDER_FONT")
	if strings.TrimSpace(fontPath) == "" {
		return nil, fmt.Errorf("missing env var PLACEHOLDER_FONT")
	}
	serviceLog.Info("Loading placeholder font", "font", fontPath)

	titleFace, err := loadTTFFace(fontPath, 180)
	if err != nil {
		return nil, fmt.Errorf("could not load placeholder font: %w", err)
	}
	labelFace, err := loadTTFFace(fontPath, 36)
	if err != nil {
		return nil, fmt.Errorf("could not load placeholder font: %w", err)
	}

	return &placeholderService{
		log:       serviceLog,
		bgColors:  placeholderPalette,
		titleFace: titleFace,
		labelFace: labelFace,
	}, nil
}

func (ps *placeholderService) RenderCard(title string, source string) ([]byte, error) {
	const size = 512

	dc := gg.NewContext(size, size)
	dc.SetColor(ps.colorFor(title))
	dc.DrawRectangle(0, 0, size, size)
	dc.Fill()

	initials := productInitials(title)
	dc.SetFontFace(ps.titleFace)
	dc.SetColor(color.White)
	tw, th := dc.MeasureString(initials)
	dc.DrawString(initials, size/2-(tw/2), size/2+(th/2)-10)

	if source != "" {
		dc.SetFontFace(ps.labelFace)
		dc.SetColor(color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xCC})
		lw, _ := dc.MeasureString(source)
		dc.DrawString(source, size/2-(lw/2), size-48)
	}

	var out bytes.Buffer
	if err := dc.EncodePNG(&out); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return out.Bytes(), nil
}

func (ps *placeholderService) colorFor(title string) color.NRGBA {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(title))))
	return ps.bgColors[int(h.Sum32())%len(ps.bgColors)]
}

func productInitials(title string) string {
	fields := strings.Fields(title)
	if len(fields) == 0 {
		return "?"
	}
	if len(fields) == 1 {
		return firstRuneUpper(fields[0])
	}
	return firstRuneUpper(fields[0]) + firstRuneUpper(fields[1])
}

func firstRuneUpper(s string) string {
	for _, r := range s {
		return strings.ToUpper(string(r))
	}
	return "?"
}

func loadTTFFace(fontPath string, size float64) (font.Face, error) {
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}
	parsedFont, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	return truetype.NewFace(parsedFont, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	}), nil
}
