package service

import (
	appErrors "github.com/nebioudaniel/family-academy-api/pkg/errors"
	"github.com/nebioudaniel/family-academy-api/pkg/media"
)

type uploadSigner interface {
	SignUpload(fileName string) (*media.UploadSignature, error)
}

// UploadService hands out signed upload parameters so the browser can push
// video files directly to the media provider.
type UploadService struct {
	signer uploadSigner
}

// NewUploadService constructs an UploadService. A nil signer means media
// uploads are not configured.
func NewUploadService(signer uploadSigner) *UploadService {
	return &UploadService{signer: signer}
}

// Sign returns upload parameters for the given file name.
func (s *UploadService) Sign(fileName string) (*media.UploadSignature, error) {
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "media uploads are not configured")
	}
	sig, err := s.signer.SignUpload(fileName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign upload")
	}
	return sig, nil
}
