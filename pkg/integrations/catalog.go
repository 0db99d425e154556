// Package integrations builds alternate renditions of the library, such
// as a browsable EPUB catalog.
package integrations

import (
	"fmt"
	"html"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-shiori/go-epub"
	"golang.org/x/image/draw"

	"github.com/kerbaras/shelf/pkg/data"
	"github.com/kerbaras/shelf/pkg/utils"
)

// maxThumbWidth caps catalog thumbnails; larger images are downscaled.
const maxThumbWidth = 480

// FileResolver resolves logical content paths, satisfied by
// *content.Store.
type FileResolver interface {
	Resolve(rel string) (string, error)
	Exists(rel string) bool
}

// CatalogBuilder renders the library as an EPUB: one section per
// category with each asset's title, version, tags, description and
// thumbnail.
type CatalogBuilder struct {
	resolver  FileResolver
	outputDir string
}

func NewCatalogBuilder(resolver FileResolver, outputDir string) *CatalogBuilder {
	return &CatalogBuilder{resolver: resolver, outputDir: outputDir}
}

func (b *CatalogBuilder) Build(title string, categories []*data.Category, assets []*data.Asset) (string, error) {
	if err := os.MkdirAll(b.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	e, err := epub.NewEpub(title)
	if err != nil {
		return "", fmt.Errorf("failed to create EPUB: %w", err)
	}
	e.SetAuthor("shelf")
	e.SetLang("en")
	e.SetDescription(fmt.Sprintf("Catalog of %d assets in %d categories", len(assets), len(categories)))

	byCategory := make(map[string][]*data.Asset)
	for _, a := range assets {
		byCategory[a.CategoryID] = append(byCategory[a.CategoryID], a)
	}

	ordered := make([]*data.Category, len(categories))
	copy(ordered, categories)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].DisplayOrder != ordered[j].DisplayOrder {
			return ordered[i].DisplayOrder < ordered[j].DisplayOrder
		}
		return ordered[i].Slug < ordered[j].Slug
	})

	tmpDir, err := os.MkdirTemp("", "shelf-catalog-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmpDir)

	for _, c := range ordered {
		group := byCategory[c.ID]
		if len(group) == 0 {
			continue
		}
		if err := b.addCategorySection(e, tmpDir, c, group); err != nil {
			return "", fmt.Errorf("failed to add category %q: %w", c.Slug, err)
		}
	}

	outputPath := filepath.Join(b.outputDir, utils.SanitizeFilename(title)+".epub")
	if err := e.Write(outputPath); err != nil {
		return "", fmt.Errorf("failed to write EPUB: %w", err)
	}
	return outputPath, nil
}

func (b *CatalogBuilder) addCategorySection(e *epub.Epub, tmpDir string, c *data.Category, assets []*data.Asset) error {
	var body strings.Builder
	body.WriteString(fmt.Sprintf("<h1>%s</h1>\n", html.EscapeString(c.Name)))
	if c.Description != "" {
		body.WriteString(fmt.Sprintf("<p><em>%s</em></p>\n", html.EscapeString(c.Description)))
	}

	for _, a := range assets {
		body.WriteString(fmt.Sprintf("<h2>%s</h2>\n", html.EscapeString(a.Title)))

		if a.ThumbnailPath != "" && b.resolver.Exists(a.ThumbnailPath) {
			if internal, err := b.addThumbnail(e, tmpDir, a); err == nil {
				body.WriteString(fmt.Sprintf(
					`<div class="thumb"><img src="%s" alt="%s"/></div>%s`,
					internal, html.EscapeString(a.Slug), "\n"))
			}
			// Thumbnail problems never fail the catalog.
		}

		var meta []string
		if a.Version != "" {
			meta = append(meta, "v"+a.Version)
		}
		if len(a.Tags) > 0 {
			meta = append(meta, strings.Join(a.Tags, ", "))
		}
		if len(meta) > 0 {
			body.WriteString(fmt.Sprintf("<p><small>%s</small></p>\n", html.EscapeString(strings.Join(meta, " · "))))
		}
		if a.Description != "" {
			body.WriteString(fmt.Sprintf("<p>%s</p>\n", html.EscapeString(a.Description)))
		}
	}

	_, err := e.AddSection(body.String(), c.Name, "", "")
	return err
}

// addThumbnail downscales the asset's thumbnail if needed and registers
// it with the EPUB, returning the internal image path.
func (b *CatalogBuilder) addThumbnail(e *epub.Epub, tmpDir string, a *data.Asset) (string, error) {
	abs, err := b.resolver.Resolve(a.ThumbnailPath)
	if err != nil {
		return "", err
	}

	scaled, err := downscale(abs, filepath.Join(tmpDir, a.ID+".jpg"), maxThumbWidth)
	if err != nil {
		return "", err
	}
	return e.AddImage(scaled, a.ID+".jpg")
}

// downscale re-encodes src as JPEG at dst, capped to maxWidth while
// keeping the aspect ratio. Images already narrow enough pass through
// a plain re-encode.
func downscale(src, dst string, maxWidth int) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	img, _, err := image.Decode(in)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxWidth {
		height := bounds.Dy() * maxWidth / bounds.Dx()
		scaled := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, bounds, draw.Over, nil)
		img = scaled
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}

	if err := jpeg.Encode(out, img, &jpeg.Options{Quality: 85}); err != nil {
		out.Close()
		return "", fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return dst, out.Close()
}
