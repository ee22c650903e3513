// Package weidu retrieves WeiDU installer binaries from the GitHub release
// feed of the WeiDUorg/weidu repository.
//
// Release assets follow the historical naming schema
// "WeiDU-<OS>-<arch>.zip". Releases from 247 onward publish both amd64 and
// x86 variants; older releases only ship x86, so for those the requested
// architecture collapses to x86 regardless of what was asked for.
package weidu

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// FetchErrorType identifies the category of a fetch failure.
type FetchErrorType string

const (
	ReleaseNotFound    FetchErrorType = "RELEASE_NOT_FOUND"
	AssetNotFound      FetchErrorType = "ASSET_NOT_FOUND"
	DownloadFailed     FetchErrorType = "DOWNLOAD_FAILED"
	ExtractFailed      FetchErrorType = "EXTRACT_FAILED"
	UnsupportedVersion FetchErrorType = "UNSUPPORTED_VERSION"
)

// FetchError describes a failure while resolving or downloading a WeiDU
// binary.
type FetchError struct {
	Type    FetchErrorType
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// MinVersion is the oldest WeiDU release with the modern asset layout.
// Anything older cannot be packaged.
const MinVersion = 246

// archSplitVersion is the first release that ships separate amd64 and x86
// assets.
const archSplitVersion = 247

// Latest selects the newest published release instead of a fixed version.
const Latest = "latest"

// maxResponseBytes bounds API response and asset download sizes (64 MB).
const maxResponseBytes = 64 << 20

// Platform names an operating system flavor of the WeiDU binary.
type Platform string

const (
	Windows Platform = "windows"
	Linux   Platform = "linux"
	Mac     Platform = "macos"
)

// osComponent returns the OS part of the release asset name.
func (p Platform) osComponent() string {
	switch p {
	case Windows:
		return "Windows"
	case Linux:
		return "Linux"
	case Mac:
		return "Mac"
	}
	return string(p)
}

// BinaryName returns the name of the executable inside the asset zip.
func (p Platform) BinaryName() string {
	if p == Windows {
		return "weidu.exe"
	}
	return "weidu"
}

type (
	// Release is a published WeiDU release with its downloadable assets.
	Release struct {
		TagName    string  `json:"tag_name"`
		Name       string  `json:"name"`
		Prerelease bool    `json:"prerelease"`
		Draft      bool    `json:"draft"`
		Assets     []Asset `json:"assets"`
	}

	// Asset is a single downloadable file attached to a release.
	Asset struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
		Size               int64  `json:"size"`
	}

	// Client queries the GitHub Releases API for WeiDU binaries.
	Client struct {
		httpClient *http.Client
		owner      string
		repo       string
		baseURL    string
		token      string
		userAgent  string
	}

	// ClientOption configures a Client during construction.
	ClientOption func(*Client)
)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(g *Client) {
		g.httpClient = c
	}
}

// WithBaseURL overrides the GitHub API base URL, primarily for test servers.
func WithBaseURL(base string) ClientOption {
	return func(g *Client) {
		g.baseURL = strings.TrimRight(base, "/")
	}
}

// WithToken sets a GitHub personal access token for authenticated requests.
func WithToken(token string) ClientOption {
	return func(g *Client) {
		g.token = token
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(g *Client) {
		g.userAgent = ua
	}
}

// WithRepo overrides the release repository owner and name.
func WithRepo(owner, repo string) ClientOption {
	return func(g *Client) {
		g.owner = owner
		g.repo = repo
	}
}

// NewClient creates a Client pointed at the WeiDUorg/weidu release feed.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		owner:      "WeiDUorg",
		repo:       "weidu",
		baseURL:    "https://api.github.com",
		userAgent:  "weipack",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve maps a requested version spec ("latest" or a numeric WeiDU
// version such as "247" or "247.00") to a published release.
func (c *Client) Resolve(ctx context.Context, spec string) (*Release, error) {
	if strings.EqualFold(spec, Latest) {
		return c.latestRelease(ctx)
	}

	requested, err := ParseVersion(spec)
	if err != nil {
		return nil, err
	}
	if requested < MinVersion {
		return nil, &FetchError{
			Type:    UnsupportedVersion,
			Message: fmt.Sprintf("WeiDU %d predates the oldest supported release %d", requested, MinVersion),
		}
	}

	releases, err := c.listReleases(ctx)
	if err != nil {
		return nil, err
	}
	for i := range releases {
		tagVersion, err := ParseVersion(releases[i].TagName)
		if err != nil {
			continue
		}
		if tagVersion == requested {
			return &releases[i], nil
		}
	}

	return nil, &FetchError{
		Type:    ReleaseNotFound,
		Message: fmt.Sprintf("no release found for WeiDU version %d", requested),
	}
}

// FetchBinary downloads the release asset for the given platform and
// architecture and extracts the WeiDU executable from it. It returns the
// executable bytes, the release tag it came from, and the architecture
// actually used after applying the pre-247 collapse to x86.
func (c *Client) FetchBinary(ctx context.Context, platform Platform, arch, spec string) ([]byte, string, string, error) {
	release, err := c.Resolve(ctx, spec)
	if err != nil {
		return nil, "", "", err
	}

	resolvedArch := EffectiveArch(release.TagName, arch)
	assetName := fmt.Sprintf("WeiDU-%s-%s.zip", platform.osComponent(), resolvedArch)

	var asset *Asset
	for i := range release.Assets {
		if strings.EqualFold(release.Assets[i].Name, assetName) {
			asset = &release.Assets[i]
			break
		}
	}
	if asset == nil {
		return nil, "", "", &FetchError{
			Type:    AssetNotFound,
			Message: fmt.Sprintf("release %s has no asset %s", release.TagName, assetName),
		}
	}

	data, err := c.download(ctx, asset.BrowserDownloadURL)
	if err != nil {
		return nil, "", "", err
	}

	binary, err := extractBinary(data, platform.BinaryName())
	if err != nil {
		return nil, "", "", err
	}

	return binary, release.TagName, resolvedArch, nil
}

// EffectiveArch applies the release-version arch quirk: releases before
// 247 only shipped x86 assets, so any requested architecture other than a
// legacy variant maps to x86 there. Legacy variants pass through unchanged.
func EffectiveArch(tag, arch string) string {
	if strings.Contains(arch, "-") {
		return arch
	}
	version, err := ParseVersion(tag)
	if err != nil {
		return arch
	}
	if version < archSplitVersion {
		return "x86"
	}
	return arch
}

// ParseVersion extracts the numeric WeiDU version from a version spec or
// release tag: "246", "247.00", and "v249" all parse to their integer part.
func ParseVersion(s string) (int, error) {
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimPrefix(trimmed, "v")
	trimmed = strings.TrimPrefix(trimmed, "V")
	if head, _, found := strings.Cut(trimmed, "."); found {
		trimmed = head
	}
	version, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, &FetchError{
			Type:    UnsupportedVersion,
			Message: fmt.Sprintf("not a numeric WeiDU version: %q", s),
			Err:     err,
		}
	}
	return version, nil
}

func (c *Client) latestRelease(ctx context.Context) (*Release, error) {
	reqURL := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, c.owner, c.repo)

	body, status, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, &FetchError{Type: ReleaseNotFound, Message: "no published releases"}
	}
	if status != http.StatusOK {
		return nil, &FetchError{
			Type:    DownloadFailed,
			Message: fmt.Sprintf("listing latest release: unexpected status %d", status),
		}
	}

	var release Release
	if err := json.Unmarshal(body, &release); err != nil {
		return nil, &FetchError{Type: DownloadFailed, Message: "decoding latest release", Err: err}
	}
	return &release, nil
}

func (c *Client) listReleases(ctx context.Context) ([]Release, error) {
	reqURL := fmt.Sprintf("%s/repos/%s/%s/releases?per_page=100", c.baseURL, c.owner, c.repo)

	body, status, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &FetchError{
			Type:    DownloadFailed,
			Message: fmt.Sprintf("listing releases: unexpected status %d", status),
		}
	}

	var releases []Release
	if err := json.Unmarshal(body, &releases); err != nil {
		return nil, &FetchError{Type: DownloadFailed, Message: "decoding release list", Err: err}
	}

	published := releases[:0]
	for _, r := range releases {
		if !r.Draft && !r.Prerelease {
			published = append(published, r)
		}
	}
	return published, nil
}

func (c *Client) download(ctx context.Context, assetURL string) ([]byte, error) {
	body, status, err := c.get(ctx, assetURL)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &FetchError{
			Type:    DownloadFailed,
			Message: fmt.Sprintf("downloading asset: unexpected status %d", status),
		}
	}
	return body, nil
}

// get performs a GET with the common GitHub API headers and returns the
// response body and status code.
func (c *Client) get(ctx context.Context, reqURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, 0, &FetchError{Type: DownloadFailed, Message: "creating request", Err: err}
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, &FetchError{Type: DownloadFailed, Message: "executing request", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, 0, &FetchError{Type: DownloadFailed, Message: "reading response", Err: err}
	}

	return body, resp.StatusCode, nil
}

// extractBinary opens the downloaded asset zip in memory and returns the
// contents of the WeiDU executable member. The member may sit at the archive
// root or inside a subdirectory.
func extractBinary(zipData []byte, binaryName string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(zipData), int64(len(zipData)))
	if err != nil {
		return nil, &FetchError{Type: ExtractFailed, Message: "opening asset archive", Err: err}
	}

	for _, f := range zr.File {
		name := f.Name
		if idx := strings.LastIndex(name, "/"); idx >= 0 {
			name = name[idx+1:]
		}
		if !strings.EqualFold(name, binaryName) {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, &FetchError{Type: ExtractFailed, Message: "opening archive member " + f.Name, Err: err}
		}
		data, err := io.ReadAll(io.LimitReader(rc, maxResponseBytes))
		rc.Close()
		if err != nil {
			return nil, &FetchError{Type: ExtractFailed, Message: "reading archive member " + f.Name, Err: err}
		}
		return data, nil
	}

	return nil, &FetchError{
		Type:    ExtractFailed,
		Message: fmt.Sprintf("asset archive has no %s member", binaryName),
	}
}
