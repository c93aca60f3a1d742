package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-compare/internal/fingerprint"
)

var hashCmd = &cobra.Command{
	Use:   "hash <image> [image2]",
	Short: "Compute perceptual hashes of an image",
	Long: `Compute the pHash, dHash, wHash and aHash of an image.
With a second image, also print the Hamming distance and similarity
per algorithm.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runHash,
}

func init() {
	rootCmd.AddCommand(hashCmd)

	hashCmd.Flags().Bool("json", false, "Output as JSON")
}

type hashComparison struct {
	Distance   int     `json:"distance"`
	Similarity float64 `json:"similarity"`
}

type hashOutput struct {
	Hashes     []*fingerprint.HashSet    `json:"hashes"`
	Comparison map[string]hashComparison `json:"comparison,omitempty"`
}

func runHash(cmd *cobra.Command, args []string) error {
	p, err := newPipeline()
	if err != nil {
		return err
	}

	sets := make([]*fingerprint.HashSet, len(args))
	for i, path := range args {
		normalized, err := p.loadNormalized(path)
		if err != nil {
			return err
		}
		sets[i], err = p.engine.ComputeAll(normalized.Image)
		if err != nil {
			return fmt.Errorf("could not hash %s: %w", path, err)
		}
	}

	output := hashOutput{Hashes: sets}
	if len(sets) == 2 {
		output.Comparison = make(map[string]hashComparison, 4)
		pairs := map[string][2]string{
			"phash": {sets[0].PHash, sets[1].PHash},
			"dhash": {sets[0].DHash, sets[1].DHash},
			"whash": {sets[0].WHash, sets[1].WHash},
			"ahash": {sets[0].AHash, sets[1].AHash},
		}
		for name, pair := range pairs {
			distance, err := fingerprint.HammingDistance(pair[0], pair[1])
			if err != nil {
				return fmt.Errorf("could not compare %s: %w", name, err)
			}
			similarity, err := fingerprint.Similarity(pair[0], pair[1])
			if err != nil {
				return fmt.Errorf("could not compare %s: %w", name, err)
			}
			output.Comparison[name] = hashComparison{Distance: distance, Similarity: similarity}
		}
	}

	if mustGetBool(cmd, "json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(output)
	}

	for i, set := range sets {
		fmt.Printf("%s\n", args[i])
		fmt.Printf("  phash: %s\n", set.PHash)
		fmt.Printf("  dhash: %s\n", set.DHash)
		fmt.Printf("  whash: %s\n", set.WHash)
		fmt.Printf("  ahash: %s\n", set.AHash)
	}
	if output.Comparison != nil {
		fmt.Println("Comparison:")
		for _, name := range []string{"phash", "dhash", "whash", "ahash"} {
			c := output.Comparison[name]
			fmt.Printf("  %s: distance %d, similarity %.2f%%\n", name, c.Distance, c.Similarity*100)
		}
	}
	return nil
}
