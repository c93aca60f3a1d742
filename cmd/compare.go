package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-compare/internal/facematch"
)

var compareCmd = &cobra.Command{
	Use:   "compare <image1> <image2>",
	Short: "Compare the faces in two images",
	Long: `Run the full comparison pipeline on two local images: normalize both,
detect the primary face in each, extract embeddings via the inference
sidecar and compare them with the chosen distance metric.`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().String("metric", "cosine", "Distance metric: cosine, euclidean or euclidean_l2")
	compareCmd.Flags().Float64("threshold", 0, "Decision threshold (0 = metric default)")
	compareCmd.Flags().Bool("allow-multiple", false, "Pick the most confident face instead of failing on multiple faces")
	compareCmd.Flags().Bool("json", false, "Output as JSON")
}

// compareOutput is the JSON shape of the compare command.
type compareOutput struct {
	Image1 string            `json:"image1"`
	Image2 string            `json:"image2"`
	Result *facematch.Result `json:"result"`
}

func runCompare(cmd *cobra.Command, args []string) error {
	p, err := newPipeline()
	if err != nil {
		return err
	}

	metric := facematch.Metric(mustGetString(cmd, "metric"))
	enforce := !mustGetBool(cmd, "allow-multiple")

	var threshold *float64
	if t := mustGetFloat64(cmd, "threshold"); t > 0 {
		threshold = &t
	}

	detections := make([]*facematch.Detection, 2)
	for i, path := range args {
		normalized, err := p.loadNormalized(path)
		if err != nil {
			return err
		}
		jpegData, err := normalized.EncodeJPEG()
		if err != nil {
			return fmt.Errorf("could not encode %s: %w", path, err)
		}

		detection, err := p.orchestrator.Detect(cmd.Context(), jpegData, normalized.Width, normalized.Height, enforce, true)
		if err != nil {
			return fmt.Errorf("face detection failed for %s: %w", path, err)
		}
		detections[i] = detection
	}

	result, err := p.comparator.Compare(detections[0].Embedding, detections[1].Embedding, metric, threshold)
	if err != nil {
		return fmt.Errorf("comparison failed: %w", err)
	}

	if mustGetBool(cmd, "json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(compareOutput{Image1: args[0], Image2: args[1], Result: result})
	}

	verdict := "DIFFERENT people"
	if result.IsSamePerson {
		verdict = "SAME person"
	}
	fmt.Printf("%s vs %s\n", args[0], args[1])
	fmt.Printf("  Verdict:    %s\n", verdict)
	fmt.Printf("  Distance:   %.4f (%s, threshold %.2f)\n", result.Distance, result.Metric, result.ThresholdUsed)
	fmt.Printf("  Similarity: %.2f%%\n", result.Similarity*100)
	fmt.Printf("  Confidence: %.2f%%\n", result.Confidence*100)
	for i, d := range detections {
		fmt.Printf("  Image %d:    %d face(s), best %.2f via %s\n", i+1, d.FaceCount, d.Confidence, d.Backend)
	}
	return nil
}
