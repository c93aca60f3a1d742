package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var embedCmd = &cobra.Command{
	Use:   "embed <image>",
	Short: "Print the embedding of an image",
	Long: `Extract an embedding from a local image and print it as JSON.
By default the primary face embedding is extracted; --visual switches
to the whole-image embedding.`,
	Args: cobra.ExactArgs(1),
	RunE: runEmbed,
}

func init() {
	rootCmd.AddCommand(embedCmd)

	embedCmd.Flags().Bool("visual", false, "Whole-image embedding instead of face embedding")
	embedCmd.Flags().Bool("allow-multiple", false, "Pick the most confident face instead of failing on multiple faces")
}

type embedOutput struct {
	Image     string    `json:"image"`
	Kind      string    `json:"kind"`
	Embedding []float32 `json:"embedding"`
	Dim       int       `json:"dim"`

	// Face metadata, present only for face embeddings.
	FaceCount  int     `json:"face_count,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Backend    string  `json:"backend,omitempty"`
}

func runEmbed(cmd *cobra.Command, args []string) error {
	p, err := newPipeline()
	if err != nil {
		return err
	}

	normalized, err := p.loadNormalized(args[0])
	if err != nil {
		return err
	}
	jpegData, err := normalized.EncodeJPEG()
	if err != nil {
		return fmt.Errorf("could not encode %s: %w", args[0], err)
	}

	output := embedOutput{Image: args[0]}

	if mustGetBool(cmd, "visual") {
		embedding, dim, err := p.client.EmbedImage(cmd.Context(), jpegData)
		if err != nil {
			return fmt.Errorf("visual embedding failed: %w", err)
		}
		output.Kind = "visual"
		output.Embedding = embedding
		output.Dim = dim
	} else {
		enforce := !mustGetBool(cmd, "allow-multiple")
		detection, err := p.orchestrator.Detect(cmd.Context(), jpegData, normalized.Width, normalized.Height, enforce, true)
		if err != nil {
			return fmt.Errorf("face detection failed: %w", err)
		}
		output.Kind = "face"
		output.Embedding = detection.Embedding
		output.Dim = len(detection.Embedding)
		output.FaceCount = detection.FaceCount
		output.Confidence = detection.Confidence
		output.Backend = detection.Backend
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}
