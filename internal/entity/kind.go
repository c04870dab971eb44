package entity

import "fmt"

// Kind is the usage category of an uploaded image. It selects the
// dimension and aspect-ratio rules and is baked into every blob key.
type Kind string

const (
	KindCover   Kind = "cover"
	KindGallery Kind = "gallery"
	KindBanner  Kind = "banner"
	KindLogo    Kind = "logo"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindCover, KindGallery, KindBanner, KindLogo:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown media kind %q", s)
}
