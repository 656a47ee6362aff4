package cdn

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/cloudfront/sign"
)

var ErrBadPrivateKey = errors.New("bad cloudfront private key")

// URLSigner wraps CloudFront canned-policy URL signing. Signing failures
// are for the caller to absorb: playback falls back to the unsigned URL.
type URLSigner struct {
	signer *sign.URLSigner
	now    func() time.Time
}

// New parses the PEM-encoded RSA private key and builds a signer for the
// given key pair id.
func New(keyPairID string, privateKeyPEM []byte) (*URLSigner, error) {
	const op = "cdn.New"

	key, err := parseRSAPrivateKey(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &URLSigner{
		signer: sign.NewURLSigner(keyPairID, key),
		now:    time.Now,
	}, nil
}

// SignURL returns a signed variant of rawURL expiring ttl from now.
func (s *URLSigner) SignURL(rawURL string, ttl time.Duration) (string, error) {
	const op = "cdn.URLSigner.SignURL"

	signed, err := s.signer.Sign(rawURL, s.now().Add(ttl))
	if err != nil {
		return "", fmt.Errorf("%s:%w", op, err)
	}

	return signed, nil
}

func parseRSAPrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, ErrBadPrivateKey
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, ErrBadPrivateKey
	}

	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, ErrBadPrivateKey
	}

	return key, nil
}
