package pdf

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/pagelift/pagelift/internal/domain"
)

// Converter turns a PDF into the image inventory the extraction
// pipeline consumes: embedded raster images pulled straight out of
// the file plus full-page renders.
type Converter struct {
	dpi     int
	tempDir string
}

// NewConverter creates a converter that renders pages at the given DPI.
func NewConverter(dpi int) *Converter {
	return &Converter{dpi: dpi}
}

// Convert extracts images from the PDF according to source and returns
// them in processing order: embedded images first (natural filename
// order), then page renders in page order. Call Cleanup when the
// returned paths are no longer needed.
func (c *Converter) Convert(ctx context.Context, pdfPath string, source domain.SourceMode) (embedded, pages []string, err error) {
	validator := NewValidator()
	if err := validator.ValidatePDFPath(pdfPath); err != nil {
		return nil, nil, err
	}
	if err := validator.ValidateDPI(c.dpi); err != nil {
		return nil, nil, err
	}

	tempDir, err := os.MkdirTemp("", "pagelift-*")
	if err != nil {
		return nil, nil, domain.IOError("failed to create temp directory", err)
	}
	c.tempDir = tempDir

	if source == domain.SourceBoth || source == domain.SourceEmbedded {
		embedded, err = c.extractEmbedded(pdfPath, tempDir)
		if err != nil {
			return nil, nil, err
		}
	}

	if source == domain.SourceBoth || source == domain.SourcePage {
		pages, err = c.renderPages(ctx, pdfPath, tempDir)
		if err != nil {
			return nil, nil, err
		}
	}

	return embedded, pages, nil
}

// renderPages rasterizes every page to a PNG using go-fitz.
func (c *Converter) renderPages(ctx context.Context, pdfPath, outDir string) ([]string, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, domain.ConversionError("failed to open PDF", err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return nil, domain.ValidationError("PDF has no pages", nil)
	}

	paths := make([]string, 0, pageCount)
	for pageNum := 0; pageNum < pageCount; pageNum++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		img, err := doc.ImageDPI(pageNum, float64(c.dpi))
		if err != nil {
			return nil, domain.ConversionError(fmt.Sprintf("failed to render page %d", pageNum+1), err)
		}

		outputPath := filepath.Join(outDir, fmt.Sprintf("page_%03d_full.png", pageNum+1))
		outputFile, err := os.Create(outputPath)
		if err != nil {
			return nil, domain.IOError(fmt.Sprintf("failed to create output file for page %d", pageNum+1), err)
		}
		err = png.Encode(outputFile, img)
		outputFile.Close()
		if err != nil {
			return nil, domain.ConversionError(fmt.Sprintf("failed to encode page %d as PNG", pageNum+1), err)
		}

		paths = append(paths, outputPath)
	}

	return paths, nil
}

// extractEmbedded pulls the raster images stored inside the PDF via
// pdfcpu. A PDF with no embedded images is not an error.
func (c *Converter) extractEmbedded(pdfPath, outDir string) ([]string, error) {
	embeddedDir := filepath.Join(outDir, "embedded")
	if err := os.MkdirAll(embeddedDir, 0755); err != nil {
		return nil, domain.IOError("failed to create embedded image directory", err)
	}

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractImagesFile(pdfPath, embeddedDir, nil, conf); err != nil {
		return nil, domain.ConversionError("failed to extract embedded images", err)
	}

	entries, err := os.ReadDir(embeddedDir)
	if err != nil {
		return nil, domain.IOError("failed to read embedded image directory", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".png", ".jpg", ".jpeg", ".tif", ".tiff", ".webp":
			paths = append(paths, filepath.Join(embeddedDir, entry.Name()))
		}
	}
	SortNatural(paths)

	return paths, nil
}

// Cleanup removes the temporary image directory.
func (c *Converter) Cleanup() error {
	if c.tempDir == "" {
		return nil
	}
	err := os.RemoveAll(c.tempDir)
	c.tempDir = ""
	if err != nil {
		return domain.IOError("failed to remove temp directory", err)
	}
	return nil
}
