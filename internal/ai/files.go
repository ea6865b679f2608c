package ai

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"animation_panel_server/internal/types"
	"animation_panel_server/internal/utils"
)

// SaveFiles writes generated files below dir and returns how many were
// written. Names are rooted at dir, so "../x" is written as dir/x; files
// without a usable name are skipped.
func SaveFiles(dir string, generatedFiles []types.GeneratedFile) (int, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("resolve output directory: %w", err)
	}

	filesCount := 0
	for _, fileData := range generatedFiles {
		if fileData.Type == "" {
			fileData.Type = utils.DetermineFileType(fileData.Filename) // Fallback
		}

		filePath := filepath.Join(root, filepath.Clean("/"+fileData.Filename))
		if filePath == root || !strings.HasPrefix(filePath, root+string(os.PathSeparator)) {
			log.Printf("WARN: Skipping generated file with unusable name %q", fileData.Filename)
			continue
		}

		if err := os.MkdirAll(filepath.Dir(filePath), os.ModePerm); err != nil {
			log.Printf("ERROR: failed to create directory path: %v", err)
			continue
		}
		if err := os.WriteFile(filePath, []byte(fileData.Content), 0644); err != nil {
			log.Printf("ERROR: failed to write file %s: %v", filePath, err)
			continue
		}

		log.Printf("Info: file saved: %s (%s)", filePath, fileData.Type)
		filesCount++
	}
	if filesCount != len(generatedFiles) {
		log.Printf("WARN: Mismatch between generated files (%d) and stored files (%d) in %s.", len(generatedFiles), filesCount, root)
	}
	return filesCount, nil
}
