package engo

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"
	"golang.org/x/image/font/gofont/goregular"
)

// FontURL is the name the embedded Go Regular face is registered under.
const FontURL = "goregular.ttf"

// fontKey identifies a prepared font face.
type fontKey struct {
	size float64
	fg   color.RGBA
}

// AssetManager registers the embedded assets with engo and caches the
// font faces built from them.
type AssetManager struct {
	loaded bool
	fonts  map[fontKey]*common.Font
}

// NewAssetManager creates a new asset manager
func NewAssetManager() *AssetManager {
	return &AssetManager{
		fonts: make(map[fontKey]*common.Font),
	}
}

// LoadAssets registers the embedded font. It must run in Preload, before
// any face is requested.
func (am *AssetManager) LoadAssets() error {
	if am.loaded {
		return nil
	}
	if err := engo.Files.LoadReaderData(FontURL, bytes.NewReader(goregular.TTF)); err != nil {
		return fmt.Errorf("failed to load font: %w", err)
	}
	am.loaded = true
	return nil
}

// Font returns a face of the given size and colour, building it on first
// use.
func (am *AssetManager) Font(size float64, fg color.Color) (*common.Font, error) {
	if !am.loaded {
		return nil, fmt.Errorf("assets not loaded")
	}

	key := fontKey{size: size, fg: color.RGBAModel.Convert(fg).(color.RGBA)}
	if f, ok := am.fonts[key]; ok {
		return f, nil
	}

	f := &common.Font{
		URL:  FontURL,
		FG:   fg,
		Size: size,
	}
	if err := f.CreatePreloaded(); err != nil {
		return nil, fmt.Errorf("failed to create font: %w", err)
	}
	am.fonts[key] = f
	return f, nil
}
