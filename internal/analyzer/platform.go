package analyzer

import "strings"

// Platform is a display hint derived from a profile URL.
type Platform string

const (
	PlatformYouTube   Platform = "YouTube"
	PlatformTikTok    Platform = "TikTok"
	PlatformFacebook  Platform = "Facebook"
	PlatformInstagram Platform = "Instagram"
	PlatformGeneric   Platform = "Social Media"
)

// DetectPlatform infers the platform by substring match. Unknown hosts map to PlatformGeneric;
// nothing is rejected.
func DetectPlatform(url string) Platform {
	u := strings.ToLower(url)
	switch {
	case strings.Contains(u, "youtube.com"), strings.Contains(u, "youtu.be"):
		return PlatformYouTube
	case strings.Contains(u, "tiktok.com"):
		return PlatformTikTok
	case strings.Contains(u, "facebook.com"), strings.Contains(u, "fb.watch"):
		return PlatformFacebook
	case strings.Contains(u, "instagram.com"):
		return PlatformInstagram
	default:
		return PlatformGeneric
	}
}
