package utils

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// ShouldRetry reports whether an upstream model call failed transiently.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	var openAIErr *openai.APIError
	if errors.As(err, &openAIErr) {
		return openAIErr.HTTPStatusCode >= 500 || openAIErr.HTTPStatusCode == 429
	}
	errMsg := strings.ToLower(err.Error())
	for _, transient := range []string{
		"rate limit",
		"502 bad gateway",
		"503 service unavailable",
		"504 gateway timeout",
		"timeout",
		"connection reset by peer",
	} {
		if strings.Contains(errMsg, transient) {
			return true
		}
	}
	return false
}

// DetermineFileType provides a fallback if the LLM doesn't specify a type.
func DetermineFileType(filename string) string {
	lowerFilename := strings.ToLower(filename)
	switch filepath.Ext(lowerFilename) {
	case ".css":
		return "css"
	case ".scss":
		return "scss"
	case ".js", ".mjs":
		return "js"
	case ".jsx":
		return "jsx"
	case ".ts":
		return "ts"
	case ".tsx":
		return "tsx"
	case ".vue":
		return "vue"
	case ".svelte":
		return "svelte"
	case ".html":
		return "html"
	case ".json":
		// Lottie animations ship as plain JSON documents.
		if strings.Contains(filepath.Base(lowerFilename), "lottie") {
			return "lottie"
		}
		return "json"
	}
	return "unknown"
}
