package media

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nebioudaniel/family-academy-api/pkg/config"
)

const (
	defaultBaseURL = "https://api.cloudinary.com/v1_1"
	defaultFolder  = "course_videos"
	uploadTags     = "course-video"
)

var publicIDSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Store signs browser-direct uploads and deletes remote video assets. It is
// the only component talking to the media provider; everything else carries
// delivery URLs as opaque strings.
type Store struct {
	cfg     config.CloudinaryConfig
	baseURL string
	client  *http.Client
	logger  *zap.Logger
	now     func() time.Time
}

// UploadSignature carries the fields the browser posts directly to the
// provider's upload endpoint.
type UploadSignature struct {
	CloudName string `json:"cloud_name"`
	APIKey    string `json:"api_key"`
	PublicID  string `json:"public_id"`
	Folder    string `json:"folder"`
	Tags      string `json:"tags"`
	Timestamp int64  `json:"timestamp"`
	Signature string `json:"signature"`
}

// NewStore validates credentials and returns a media store handle.
func NewStore(cfg config.CloudinaryConfig, logger *zap.Logger) (*Store, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("media store requires cloud name, api key and api secret")
	}
	if cfg.Folder == "" {
		cfg.Folder = defaultFolder
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		cfg:     cfg,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
		now:     time.Now,
	}, nil
}

// SignUpload produces signed parameters for a browser-direct upload of the
// named file. The public id is derived from the file name plus the current
// unix time so repeated uploads never collide.
func (s *Store) SignUpload(fileName string) (*UploadSignature, error) {
	base := fileName
	if idx := strings.IndexByte(base, '.'); idx > 0 {
		base = base[:idx]
	}
	if base == "" {
		base = "video"
	}
	slug := strings.Trim(publicIDSlug.ReplaceAllString(strings.ToLower(base), "_"), "_")
	if slug == "" {
		slug = "video"
	}

	ts := s.now().Unix()
	publicID := fmt.Sprintf("%s/%s-%d", s.cfg.Folder, slug, ts)

	params := map[string]string{
		"folder":    s.cfg.Folder,
		"public_id": publicID,
		"tags":      uploadTags,
		"timestamp": fmt.Sprintf("%d", ts),
	}

	return &UploadSignature{
		CloudName: s.cfg.CloudName,
		APIKey:    s.cfg.APIKey,
		PublicID:  publicID,
		Folder:    s.cfg.Folder,
		Tags:      uploadTags,
		Timestamp: ts,
		Signature: s.sign(params),
	}, nil
}

// Destroy deletes a video asset by public id.
func (s *Store) Destroy(ctx context.Context, publicID string) error {
	if publicID == "" {
		return fmt.Errorf("public id required")
	}

	ts := fmt.Sprintf("%d", s.now().Unix())
	signature := s.sign(map[string]string{
		"public_id": publicID,
		"timestamp": ts,
	})

	form := url.Values{}
	form.Set("public_id", publicID)
	form.Set("timestamp", ts)
	form.Set("api_key", s.cfg.APIKey)
	form.Set("signature", signature)

	endpoint := fmt.Sprintf("%s/%s/video/destroy", s.baseURL, s.cfg.CloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build destroy request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("destroy asset %s: %w", publicID, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("destroy asset %s: unexpected status %d", publicID, resp.StatusCode)
	}

	var body struct {
		Result string `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode destroy response: %w", err)
	}
	if body.Result != "ok" && body.Result != "not found" {
		return fmt.Errorf("destroy asset %s: result %q", publicID, body.Result)
	}

	s.logger.Info("media asset destroyed", zap.String("public_id", publicID))
	return nil
}

// sign computes the provider's request signature: parameters sorted by key,
// joined as a query string, with the API secret appended, hashed with SHA-1.
func (s *Store) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + s.cfg.APISecret))
	return hex.EncodeToString(sum[:])
}

// PublicIDFromURL extracts the asset public id from a delivery URL. Delivery
// URLs look like https://res.../upload/v1234/course_videos/intro-99.mp4; the
// public id is the path after the version segment without the extension.
func PublicIDFromURL(rawURL string) (string, bool) {
	parts := strings.SplitN(rawURL, "/upload/", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", false
	}

	segments := strings.Split(parts[1], "/")
	if len(segments) < 2 {
		return "", false
	}
	// First segment is the version marker (v1234 or a transformation).
	assetPath := strings.Join(segments[1:], "/")

	if dot := strings.LastIndexByte(assetPath, '.'); dot > 0 {
		assetPath = assetPath[:dot]
	}
	if assetPath == "" {
		return "", false
	}
	return assetPath, true
}
