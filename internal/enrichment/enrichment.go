package enrichment

import (
	"context"
	"encoding/csv"
	"fmt"
	"image"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "image/jpeg" // decodability probe
	_ "image/png"

	"go.uber.org/zap"

	"medwarehouse/internal/detector"
	"medwarehouse/internal/models"
)

var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
}

// Enricher is the enrichment stage: it runs every downloaded image through
// the object detector and writes one detection record per readable image.
// The output dataset is replaced in full on every run.
type Enricher struct {
	detector   detector.Detector
	imagesRoot string
	outputPath string
	logger     *zap.Logger
}

// New creates an Enricher scanning imagesRoot and writing outputPath.
func New(det detector.Detector, imagesRoot, outputPath string, logger *zap.Logger) *Enricher {
	return &Enricher{
		detector:   det,
		imagesRoot: imagesRoot,
		outputPath: outputPath,
		logger:     logger,
	}
}

// Run processes every image under the root. Unreadable images and per-image
// detector failures are logged and skipped; they never abort the batch.
func (e *Enricher) Run(ctx context.Context) (string, error) {
	if _, err := os.Stat(e.imagesRoot); err != nil {
		return "", fmt.Errorf("image root not usable: %w", err)
	}

	paths, err := findImages(e.imagesRoot)
	if err != nil {
		return "", fmt.Errorf("failed to scan image root: %w", err)
	}
	e.logger.Info("found images to process", zap.Int("count", len(paths)))

	records := make([]models.DetectionRecord, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		if !decodable(path) {
			e.logger.Warn("skipping unreadable image", zap.String("path", path))
			continue
		}

		detections, err := e.detector.Detect(ctx, path)
		if err != nil {
			e.logger.Warn("detection failed for image",
				zap.String("path", path), zap.Error(err))
			continue
		}

		classes := make([]string, 0, len(detections))
		sum := 0.0
		for _, d := range detections {
			classes = append(classes, d.Class)
			sum += d.Confidence
		}

		var avg *float64
		if len(detections) > 0 {
			v := math.Round(sum/float64(len(detections))*1000) / 1000
			avg = &v
		}

		records = append(records, models.DetectionRecord{
			ImageName:       filepath.Base(path),
			ImagePath:       path,
			DetectedObjects: classes,
			AvgConfidence:   avg,
			Category:        Classify(classes),
			ProcessedAt:     time.Now().UTC(),
		})
	}

	if err := writeDataset(e.outputPath, records); err != nil {
		return "", err
	}

	return fmt.Sprintf("processed %d of %d images", len(records), len(paths)), nil
}

func findImages(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if _, ok := imageExtensions[ext]; ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// decodable reports whether the file header parses as a known image format.
func decodable(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	_, _, err = image.DecodeConfig(f)
	return err == nil
}

// writeDataset replaces the output CSV atomically: write to a temp file in
// the same directory, then rename over the target.
func writeDataset(path string, records []models.DetectionRecord) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".detections-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp output: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	header := []string{"image_name", "image_path", "detected_objects", "avg_confidence", "image_category", "processed_at"}
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, r := range records {
		avg := ""
		if r.AvgConfidence != nil {
			avg = strconv.FormatFloat(*r.AvgConfidence, 'f', 3, 64)
		}
		row := []string{
			r.ImageName,
			r.ImagePath,
			strings.Join(r.DetectedObjects, ","),
			avg,
			r.Category,
			r.ProcessedAt.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write record for %s: %w", r.ImageName, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp output: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace output dataset: %w", err)
	}
	return nil
}
