package cmd

import (
	"fmt"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-compare/internal/gallery"
)

var similarCmd = &cobra.Command{
	Use:   "similar <directory>",
	Short: "Find visually similar images in a directory",
	Long: `Compute whole-image embeddings for every image in a directory via the
inference sidecar, build an in-memory nearest-neighbor index and report
the closest matches for each image.`,
	Args: cobra.ExactArgs(1),
	RunE: runSimilar,
}

func init() {
	rootCmd.AddCommand(similarCmd)

	similarCmd.Flags().Int("top", 3, "Number of neighbors to report per image")
	similarCmd.Flags().Float64("max-distance", 0.25, "Only report neighbors within this cosine distance")
	similarCmd.Flags().Int("concurrency", 4, "Number of images embedded in parallel")
}

// embeddedImage pairs an image path with its visual embedding.
type embeddedImage struct {
	Path      string
	Embedding []float32
}

func runSimilar(cmd *cobra.Command, args []string) error {
	p, err := newPipeline()
	if err != nil {
		return err
	}

	paths, err := listImages(args[0])
	if err != nil {
		return err
	}
	if len(paths) < 2 {
		fmt.Println("Need at least two images")
		return nil
	}

	fmt.Printf("Embedding %d images...\n", len(paths))
	embedded, errs := embedImagesConcurrently(cmd, p, paths, mustGetInt(cmd, "concurrency"))
	for _, err := range errs {
		fmt.Printf("Warning: %v\n", err)
	}
	if len(embedded) < 2 {
		fmt.Println("Not enough images embedded")
		return nil
	}

	index := gallery.NewIndex()
	for _, img := range embedded {
		if _, err := index.Add(img.Path, img.Embedding); err != nil {
			fmt.Printf("Warning: could not index %s: %v\n", img.Path, err)
		}
	}

	top := mustGetInt(cmd, "top")
	maxDistance := mustGetFloat64(cmd, "max-distance")

	fmt.Println()
	for _, img := range embedded {
		// Ask for one extra neighbor since the image matches itself.
		matches, err := index.Search(img.Embedding, top+1)
		if err != nil {
			return fmt.Errorf("search failed for %s: %w", img.Path, err)
		}

		var lines []string
		for _, m := range matches {
			if m.Entry.Path == img.Path || m.Distance > maxDistance {
				continue
			}
			lines = append(lines, fmt.Sprintf("  %.4f  %s", m.Distance, m.Entry.Path))
		}
		if len(lines) == 0 {
			continue
		}
		fmt.Println(img.Path)
		for _, line := range lines {
			fmt.Println(line)
		}
	}
	return nil
}

// embedImagesConcurrently embeds images with a bounded worker pool.
func embedImagesConcurrently(cmd *cobra.Command, p *pipeline, paths []string, concurrency int) ([]embeddedImage, []error) {
	if concurrency < 1 {
		concurrency = 1
	}

	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetDescription("Computing embeddings"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("images"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)

	results := make([]embeddedImage, len(paths))
	var errs []error
	var mu sync.Mutex
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, path := range paths {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, path string) {
			defer wg.Done()
			defer func() { <-sem }()

			embedding, err := embedOne(cmd, p, path)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
			} else {
				results[i] = embeddedImage{Path: path, Embedding: embedding}
			}
			_ = bar.Add(1)
		}(i, path)
	}
	wg.Wait()
	fmt.Println()

	valid := make([]embeddedImage, 0, len(results))
	for _, r := range results {
		if r.Embedding != nil {
			valid = append(valid, r)
		}
	}
	return valid, errs
}

func embedOne(cmd *cobra.Command, p *pipeline, path string) ([]float32, error) {
	normalized, err := p.loadNormalized(path)
	if err != nil {
		return nil, err
	}
	jpegData, err := normalized.EncodeJPEG()
	if err != nil {
		return nil, fmt.Errorf("could not encode %s: %w", path, err)
	}
	embedding, _, err := p.client.EmbedImage(cmd.Context(), jpegData)
	if err != nil {
		return nil, fmt.Errorf("could not embed %s: %w", path, err)
	}
	return embedding, nil
}
