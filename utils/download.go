package utils

import (
	"fmt"
	"io"
	"net/http"
	"os"
)

// DownloadFile downloads the resource from the internet and saves it into a temporary file.
// The returned file is positioned at its beginning. The caller owns the file
// and is responsible for closing and removing it.
func DownloadFile(url string) (*os.File, error) {
	res, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("unable to download file from URI: %s: %w", url, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unable to download file from URI: %s, status %v", url, res.Status)
	}

	tmpfile, err := os.CreateTemp("", "svgico")
	if err != nil {
		return nil, fmt.Errorf("unable to create temporary file: %w", err)
	}

	cleanup := func() {
		tmpfile.Close()
		os.Remove(tmpfile.Name())
	}

	// Copy the response body into the temporary file.
	if _, err := io.Copy(tmpfile, res.Body); err != nil {
		cleanup()
		return nil, fmt.Errorf("unable to copy the source URI into the temporary file: %w", err)
	}

	// Reset the read pointer.
	if _, err := tmpfile.Seek(0, io.SeekStart); err != nil {
		cleanup()
		return nil, err
	}

	return tmpfile, nil
}
