package helper

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knights-analytics/hugot"
)

// PrepareModel downloads the embedding model if it doesn't exist locally and
// returns the model path. onnxFilePath selects the ONNX file inside the model
// repository (e.g. "onnx/model.onnx"); empty uses the hugot default.
func PrepareModel(modelName string, onnxFilePath string) (string, error) {
	modelDir := "./models"
	sanitizedName := strings.ReplaceAll(modelName, "/", "_")
	modelPath := filepath.Join(modelDir, sanitizedName)

	// Check if model exists, if not download it
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		if err := os.MkdirAll(modelDir, 0755); err != nil {
			return "", fmt.Errorf("failed to create model directory: %w", err)
		}
		downloadOptions := hugot.NewDownloadOptions()
		if onnxFilePath != "" {
			downloadOptions.OnnxFilePath = onnxFilePath
		}
		downloadedPath, err := hugot.DownloadModel(modelName, modelDir, downloadOptions)
		if err != nil {
			return "", fmt.Errorf("failed to download model: %w", err)
		}
		modelPath = downloadedPath
	}

	return modelPath, nil
}
