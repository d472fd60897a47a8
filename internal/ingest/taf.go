package ingest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rs/zerolog/log"
)

const (
	noaaFTPHost    = "tgftp.nws.noaa.gov:21"
	noaaTAFPathFmt = "/data/forecasts/taf/stations/%s.TXT"
)

// TAFClient fetches raw TAF text from the JSON API and falls back to the NOAA
// anonymous FTP mirror when the API fails or returns nothing.
type TAFClient struct {
	api     *AviationClient
	ftpHost string
	timeout time.Duration

	// fallback is swapped out in tests.
	fallback func(ctx context.Context, station string) (string, error)
}

// NewTAFClient returns a client using ftpHost for the fallback. An empty host
// uses the NOAA default; "off" disables the fallback.
func NewTAFClient(api *AviationClient, ftpHost string, timeout time.Duration) *TAFClient {
	if ftpHost == "" {
		ftpHost = noaaFTPHost
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &TAFClient{api: api, ftpHost: ftpHost, timeout: timeout}
	c.fallback = c.fetchFTP
	if ftpHost == "off" {
		c.fallback = nil
	}
	return c
}

// FetchTAF returns the raw TAF text and the source it came from ("api" or
// "ftp").
func (c *TAFClient) FetchTAF(ctx context.Context, station string) (string, string, error) {
	raw, apiErr := c.api.FetchTAFText(ctx, station)
	if apiErr == nil {
		return raw, "api", nil
	}
	if c.fallback == nil {
		return "", "", apiErr
	}

	log.Debug().Str("station", station).Err(apiErr).Msg("ingest: taf api failed, trying ftp")
	raw, err := c.fallback(ctx, station)
	if err != nil {
		return "", "", fmt.Errorf("taf %s: api: %v; ftp: %w", station, apiErr, err)
	}
	return raw, "ftp", nil
}

func (c *TAFClient) fetchFTP(ctx context.Context, station string) (string, error) {
	conn, err := ftp.Dial(c.ftpHost, ftp.DialWithTimeout(c.timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("ftp dial: %w", err)
	}
	defer conn.Quit()

	if err := conn.Login("anonymous", "anonymous"); err != nil {
		return "", fmt.Errorf("ftp login: %w", err)
	}

	resp, err := conn.Retr(fmt.Sprintf(noaaTAFPathFmt, strings.ToUpper(station)))
	if err != nil {
		return "", fmt.Errorf("ftp retr: %w", err)
	}
	defer resp.Close()

	body, err := io.ReadAll(resp)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	raw := parseNOAATAFText(string(body))
	if raw == "" {
		return "", fmt.Errorf("ftp taf %s: %w", station, ErrNoData)
	}
	return raw, nil
}

// parseNOAATAFText strips the leading timestamp line of a NOAA station file
// and joins the remaining TAF lines.
func parseNOAATAFText(body string) string {
	var lines []string
	sc := bufio.NewScanner(strings.NewReader(body))
	first := true
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if first {
			first = false
			if isNOAATimestamp(line) {
				continue
			}
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, " ")
}

func isNOAATimestamp(line string) bool {
	_, err := time.Parse("2006/01/02 15:04", line)
	return err == nil
}
