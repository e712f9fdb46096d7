package models

import "time"

// Project is the persisted document: metadata, settings, the asset library
// and the composition timeline. Field names are stable; loading and saving
// a project must preserve every field except the updated timestamp and the
// implicit file path.
type Project struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Version   string          `json:"version"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Settings  ProjectSettings `json:"settings"`
	Assets    AssetLibrary    `json:"assets"`
	// Composition is the editable timeline.
	Composition Composition `json:"composition"`
	// FilePath is where the project was loaded from. Implicit: never persisted.
	FilePath string `json:"-"`
}

// HasAsset reports whether the asset id resolves in the library.
func (p *Project) HasAsset(id string) bool {
	return p.Assets.Find(id) != nil
}

// ProjectSettings hold composition-wide presentation settings.
type ProjectSettings struct {
	Resolution Resolution `json:"resolution"`
	FrameRate  float64    `json:"frameRate"`
	// BackgroundColor is the hex colour frames are cleared to before
	// compositing, e.g. "#000000".
	BackgroundColor string `json:"backgroundColor"`
	// Duration is the fixed composition duration in seconds. Zero means
	// auto: the duration resolves to the latest item end across all tracks.
	Duration float64 `json:"duration,omitempty"`
}

// DefaultProjectSettings returns 1080p30 over black with auto duration.
func DefaultProjectSettings() ProjectSettings {
	return ProjectSettings{
		Resolution:      Resolution{Width: 1920, Height: 1080},
		FrameRate:       30,
		BackgroundColor: "#000000",
	}
}

// AssetLibrary indexes all imported media by kind.
type AssetLibrary struct {
	Images   []ImageAsset   `json:"images"`
	Audio    []AudioAsset   `json:"audio"`
	Video    []VideoAsset   `json:"video"`
	Captions []CaptionAsset `json:"captions"`
	Fonts    []FontAsset    `json:"fonts"`
}

// Asset is the common view of a library entry used by the media layer.
type Asset struct {
	ID   string
	Name string
	Path string
}

// Find returns the asset with the given id, or nil.
func (l *AssetLibrary) Find(id string) *Asset {
	for i := range l.Images {
		if l.Images[i].ID == id {
			return &Asset{ID: id, Name: l.Images[i].Name, Path: l.Images[i].Path}
		}
	}
	for i := range l.Audio {
		if l.Audio[i].ID == id {
			return &Asset{ID: id, Name: l.Audio[i].Name, Path: l.Audio[i].Path}
		}
	}
	for i := range l.Video {
		if l.Video[i].ID == id {
			return &Asset{ID: id, Name: l.Video[i].Name, Path: l.Video[i].Path}
		}
	}
	for i := range l.Captions {
		if l.Captions[i].ID == id {
			return &Asset{ID: id, Name: l.Captions[i].Name, Path: l.Captions[i].Path}
		}
	}
	for i := range l.Fonts {
		if l.Fonts[i].ID == id {
			return &Asset{ID: id, Name: l.Fonts[i].Name, Path: l.Fonts[i].Path}
		}
	}
	return nil
}

// ImageAsset is an imported still image.
type ImageAsset struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
	Size   int64  `json:"size"`
}

// AudioAsset is an imported audio file.
type AudioAsset struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Path       string  `json:"path"`
	Duration   float64 `json:"duration"`
	SampleRate int     `json:"sampleRate"`
	Channels   int     `json:"channels"`
	Format     string  `json:"format"`
	Size       int64   `json:"size"`
}

// VideoAsset is an imported video file.
type VideoAsset struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Path      string  `json:"path"`
	Duration  float64 `json:"duration"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	FrameRate float64 `json:"frameRate"`
	Codec     string  `json:"codec"`
	Format    string  `json:"format"`
	Size      int64   `json:"size"`
}

// CaptionAsset is an imported caption/subtitle file.
type CaptionAsset struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	Format   string `json:"format"`
	Language string `json:"language,omitempty"`
}

// FontAsset is an imported font.
type FontAsset struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Path   string `json:"path"`
	Family string `json:"family"`
	Style  string `json:"style"`
	Weight int    `json:"weight"`
}
