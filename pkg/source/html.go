package source

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// htmlBody is the readable text and media found in an HTML fragment.
type htmlBody struct {
	text       string
	mediaType  string
	mediaCount int
}

// parseHTML strips markup from a feed description and counts embedded media.
// Input that fails to parse is returned as-is with no media.
func parseHTML(fragment string) htmlBody {
	if !strings.ContainsAny(fragment, "<&") {
		return htmlBody{text: collapseSpace(fragment)}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return htmlBody{text: collapseSpace(fragment)}
	}
	doc.Find("br").ReplaceWithHtml(" ")

	var body htmlBody
	if n := doc.Find("video").Length(); n > 0 {
		body.mediaType, body.mediaCount = MediaVideo, n
	} else if imgs := doc.Find("img"); imgs.Length() > 0 {
		body.mediaType, body.mediaCount = MediaImage, imgs.Length()
		imgs.EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if src, _ := s.Attr("src"); strings.HasSuffix(strings.ToLower(src), ".gif") {
				body.mediaType = MediaGIF
				return false
			}
			return true
		})
	}

	body.text = collapseSpace(doc.Text())
	return body
}

// enclosureMedia inspects feed enclosures when the body carried no media.
func enclosureMedia(item *gofeed.Item) (string, int) {
	var kind string
	var n int
	for _, enc := range item.Enclosures {
		switch {
		case enc == nil:
			continue
		case strings.HasPrefix(enc.Type, "video/"):
			kind = MediaVideo
		case enc.Type == "image/gif":
			if kind != MediaVideo {
				kind = MediaGIF
			}
		case strings.HasPrefix(enc.Type, "image/"):
			if kind == "" {
				kind = MediaImage
			}
		default:
			continue
		}
		n++
	}
	if n == 0 && item.Image != nil && item.Image.URL != "" {
		return MediaImage, 1
	}
	return kind, n
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
