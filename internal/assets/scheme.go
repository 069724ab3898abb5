package assets

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// URLPrefix marks an image source that points at a locally stored asset.
const URLPrefix = "asset://"

func BuildAssetURL(id string) string {
	return URLPrefix + id
}

// AssetIDFromURL returns the asset id of a local reference.
func AssetIDFromURL(src string) (string, bool) {
	if !strings.HasPrefix(src, URLPrefix) {
		return "", false
	}
	id := strings.TrimPrefix(src, URLPrefix)
	return id, id != ""
}

// RewriteForServing replaces local asset references with servePrefix+id so a
// browser can load them, e.g. servePrefix "/api/assets/".
func RewriteForServing(html, servePrefix string) (string, error) {
	if !strings.Contains(html, URLPrefix) {
		return html, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	doc.Find("img[src]").Each(func(_ int, img *goquery.Selection) {
		src, _ := img.Attr("src")
		if id, ok := AssetIDFromURL(strings.TrimSpace(src)); ok {
			img.SetAttr("src", servePrefix+id)
		}
	})
	return doc.Find("body").Html()
}
