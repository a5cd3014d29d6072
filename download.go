package taskrun

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/goliatone/go-errors"
)

// FetchOnce downloads url to dest unless dest already exists. It reports
// whether a download happened.
func (s *Shell) FetchOnce(ctx context.Context, url, dest string) (bool, error) {
	if FileExists(dest) {
		s.Emit("Already downloaded:", dest)
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return false, errors.Wrap(err, errors.CategoryInternal, "failed to create download directory").
			WithTextCode("DOWNLOAD_DIR_ERROR").
			WithMetadata(map[string]any{
				"dest": dest,
			})
	}

	s.Emit("Downloading", url)

	policy := s.retry
	var err error
	for attempt := 0; attempt < policy.attempts(); attempt++ {
		if attempt > 0 {
			delay := policy.Backoff.delay(attempt)
			s.logger.Warn("download failed, retrying",
				"url", url,
				"attempt", attempt+1,
				"delay", delay,
				"error", err,
			)
			if sleepErr := backoffSleep(ctx, delay); sleepErr != nil {
				return false, sleepErr
			}
		}

		var retry bool
		if retry, err = s.download(ctx, url, dest); err == nil || !retry {
			break
		}
	}
	if err != nil {
		return false, err
	}

	s.logger.Info("artifact downloaded", "url", url, "dest", dest)
	return true, nil
}

// download reports whether a failed transfer is worth retrying.
func (s *Shell) download(ctx context.Context, url, dest string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, errors.Wrap(err, errors.CategoryBadInput, "failed to create request").
			WithTextCode("DOWNLOAD_REQUEST_ERROR").
			WithMetadata(map[string]any{
				"url": url,
			})
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return ctx.Err() == nil, errors.Wrap(err, errors.CategoryExternal, "request failed").
			WithTextCode("DOWNLOAD_FAILED").
			WithMetadata(map[string]any{
				"url": url,
			})
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode >= 500, errors.New(fmt.Sprintf("download failed with status %d", resp.StatusCode), errors.CategoryExternal).
			WithTextCode("DOWNLOAD_FAILED").
			WithMetadata(map[string]any{
				"url":    url,
				"status": resp.StatusCode,
			})
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*")
	if err != nil {
		return false, errors.Wrap(err, errors.CategoryInternal, "failed to create temp file").
			WithTextCode("DOWNLOAD_WRITE_ERROR")
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return ctx.Err() == nil, errors.Wrap(err, errors.CategoryExternal, "failed to read response body").
			WithTextCode("DOWNLOAD_READ_BODY_ERROR").
			WithMetadata(map[string]any{
				"url": url,
			})
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return false, errors.Wrap(err, errors.CategoryInternal, "failed to close temp file").
			WithTextCode("DOWNLOAD_WRITE_ERROR")
	}

	if err := os.Rename(tmpName, dest); err != nil {
		_ = os.Remove(tmpName)
		return false, errors.Wrap(err, errors.CategoryInternal, "failed to move download into place").
			WithTextCode("DOWNLOAD_WRITE_ERROR").
			WithMetadata(map[string]any{
				"dest": dest,
			})
	}

	return false, nil
}
