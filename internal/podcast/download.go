package podcast

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	downloadChunkSize = 64 * 1024
	// assumedEpisodeBytes sizes progress estimates for servers that omit
	// Content-Length; such downloads report at most 0.99 until completion.
	assumedEpisodeBytes = 50 << 20
)

// DownloadAudio streams audioURL into destPath, reporting completion
// fractions in [0,1] through onProgress. Reports are throttled to one per
// percent of progress or per second, with a final 1.0 on success. A failed
// download removes the partial file.
func (c *Client) DownloadAudio(ctx context.Context, audioURL, destPath string, onProgress func(float64)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download audio: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download audio: http %d", resp.StatusCode)
	}

	file, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}
	written, copyErr := copyWithProgress(file, resp.Body, resp.ContentLength, onProgress)
	if closeErr := file.Close(); copyErr == nil {
		copyErr = closeErr
	}
	if copyErr == nil && written == 0 {
		copyErr = errors.New("downloaded file is empty")
	}
	if copyErr != nil {
		os.Remove(destPath)
		return fmt.Errorf("download audio: %w", copyErr)
	}
	if onProgress != nil {
		onProgress(1.0)
	}
	return nil
}

func copyWithProgress(dst io.Writer, src io.Reader, total int64, onProgress func(float64)) (int64, error) {
	buf := make([]byte, downloadChunkSize)
	var written int64
	lastFraction := 0.0
	lastReport := time.Now()
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return written, err
			}
			written += int64(n)
			if onProgress != nil {
				fraction := estimateFraction(written, total)
				if fraction-lastFraction >= 0.01 || time.Since(lastReport) >= time.Second {
					onProgress(fraction)
					lastFraction = fraction
					lastReport = time.Now()
				}
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}

func estimateFraction(written, total int64) float64 {
	if total > 0 {
		fraction := float64(written) / float64(total)
		if fraction > 1 {
			fraction = 1
		}
		return fraction
	}
	fraction := float64(written) / float64(assumedEpisodeBytes)
	if fraction > 0.99 {
		fraction = 0.99
	}
	return fraction
}
