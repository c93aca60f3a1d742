package cmd

import (
	"fmt"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-compare/internal/fingerprint"
)

var dupesCmd = &cobra.Command{
	Use:   "dupes <directory>",
	Short: "Find near-duplicate images in a directory",
	Long: `Compute perceptual hashes for every image in a directory and group
images whose pHash Hamming distance is at or below the threshold.`,
	Args: cobra.ExactArgs(1),
	RunE: runDupes,
}

func init() {
	rootCmd.AddCommand(dupesCmd)

	dupesCmd.Flags().Int("threshold", 8, "Maximum Hamming distance to count as a duplicate")
	dupesCmd.Flags().Int("concurrency", 4, "Number of images hashed in parallel")
}

// hashedImage pairs an image path with its perceptual hashes.
type hashedImage struct {
	Path   string
	Hashes *fingerprint.HashSet
}

func runDupes(cmd *cobra.Command, args []string) error {
	p, err := newPipeline()
	if err != nil {
		return err
	}

	paths, err := listImages(args[0])
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Println("No images found")
		return nil
	}

	fmt.Printf("Hashing %d images...\n", len(paths))
	hashed, errs := hashImagesConcurrently(p, paths, mustGetInt(cmd, "concurrency"))
	for _, err := range errs {
		fmt.Printf("Warning: %v\n", err)
	}

	groups := groupDuplicates(hashed, mustGetInt(cmd, "threshold"))
	if len(groups) == 0 {
		fmt.Println("No near-duplicates found")
		return nil
	}

	fmt.Printf("\nFound %d duplicate group(s):\n", len(groups))
	for i, group := range groups {
		fmt.Printf("Group %d:\n", i+1)
		for _, path := range group {
			fmt.Printf("  %s\n", path)
		}
	}
	return nil
}

// hashImagesConcurrently hashes images with a bounded worker pool.
func hashImagesConcurrently(p *pipeline, paths []string, concurrency int) ([]hashedImage, []error) {
	if concurrency < 1 {
		concurrency = 1
	}

	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetDescription("Computing hashes"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("images"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)

	results := make([]hashedImage, len(paths))
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

			hashes, err := hashOne(p, path)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
			} else {
				results[i] = hashedImage{Path: path, Hashes: hashes}
			}
			_ = bar.Add(1)
		}(i, path)
	}
	wg.Wait()
	fmt.Println()

	valid := make([]hashedImage, 0, len(results))
	for _, r := range results {
		if r.Hashes != nil {
			valid = append(valid, r)
		}
	}
	return valid, errs
}

func hashOne(p *pipeline, path string) (*fingerprint.HashSet, error) {
	normalized, err := p.loadNormalized(path)
	if err != nil {
		return nil, err
	}
	hashes, err := p.engine.ComputeAll(normalized.Image)
	if err != nil {
		return nil, fmt.Errorf("could not hash %s: %w", path, err)
	}
	return hashes, nil
}

// groupDuplicates clusters images whose pHash distance is within threshold.
// Single-linkage: an image joins the first group any member of which is
// close enough.
func groupDuplicates(images []hashedImage, threshold int) [][]string {
	var groups [][]int

	for i := range images {
		placed := false
		for g, group := range groups {
			for _, j := range group {
				d, err := fingerprint.HammingDistance(images[i].Hashes.PHash, images[j].Hashes.PHash)
				if err == nil && d <= threshold {
					groups[g] = append(groups[g], i)
					placed = true
					break
				}
			}
			if placed {
				break
			}
		}
		if !placed {
			groups = append(groups, []int{i})
		}
	}

	var result [][]string
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		paths := make([]string, len(group))
		for i, idx := range group {
			paths[i] = images[idx].Path
		}
		result = append(result, paths)
	}
	return result
}
