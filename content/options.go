package content

import (
	"time"

	"golang.org/x/text/language"

	"rwout/config"
)

// Options control single render call.
type Options struct {
	MaxImageWidth       int
	UseRevealMask       bool
	SplitIntoFiles      bool
	ShowIndexEverywhere bool
	JPEGQuality         int
	// Language drives topic collation.
	Language language.Tag
	// Now provides "generated on" stamp, nil means no stamp.
	Now func() time.Time
	// Progress is called after every top level topic.
	Progress func(done, total int)
}

// OptionsFromConfig fills options from document configuration.
func OptionsFromConfig(cfg *config.DocumentConfig) Options {
	tag, err := language.Parse(cfg.Language)
	if err != nil {
		tag = language.English
	}
	return Options{
		MaxImageWidth:       cfg.Images.MaxWidth,
		UseRevealMask:       cfg.Images.UseRevealMask,
		SplitIntoFiles:      cfg.SplitIntoFiles,
		ShowIndexEverywhere: cfg.ShowIndexEverywhere,
		JPEGQuality:         cfg.Images.JPEGQuality,
		Language:            tag,
	}
}
