package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "face-compare",
	Short: "A CLI tool and server for image and face similarity",
	Long: `Face Compare extracts face embeddings, compares them with configurable
distance metrics, computes perceptual hashes (pHash, dHash, wHash, aHash)
and whole-image CLIP-style embeddings. Face and visual embeddings are
produced by a model-inference sidecar reachable over HTTP.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
