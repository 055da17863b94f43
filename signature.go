package docvault

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	SignatureAlgorithm = "AWS4-HMAC-SHA256"
	MaxExpiresSeconds  = 604800 // 7 days
	DateTimeFormat     = "20060102T150405Z"
	DateFormat         = "20060102"
)

// Credential is what an access key resolves to: the signing secret and the
// owner identity the key acts as.
type Credential struct {
	SecretKey string
	OwnerID   string
}

// CredentialResolver maps access keys to credentials. Implementations live
// in the identity package.
type CredentialResolver interface {
	// Resolve returns the credential for the access key, or an error wrapping
	// ErrUnauthorized when the key is unknown.
	Resolve(accessKey string) (Credential, error)
}

// AuthConfig scopes signatures to a region and service name, AWS SigV4 style.
type AuthConfig struct {
	Region  string `mapstructure:"region"`
	Service string `mapstructure:"service"`
}

// SignatureVerifier verifies AWS Signature V4 presigned requests and resolves
// the caller identity behind the access key. It is the only authentication
// surface of the HTTP layer; the broker itself never sees signatures, only
// explicit caller identities.
type SignatureVerifier struct {
	config   AuthConfig
	resolver CredentialResolver
}

func NewSignatureVerifier(cfg AuthConfig, resolver CredentialResolver) *SignatureVerifier {
	return &SignatureVerifier{config: cfg, resolver: resolver}
}

// Verify checks the SigV4 query-string signature of a request and returns the
// owner identity of the signing key.
//
// Required query parameters: X-Amz-Algorithm, X-Amz-Credential, X-Amz-Date,
// X-Amz-Expires, X-Amz-SignedHeaders, X-Amz-Signature. Verification fails
// with an error wrapping ErrUnauthorized when a parameter is missing or
// malformed, the signature is expired, the credential scope does not match
// the configured region/service, the access key is unknown, or the signature
// does not match.
func (v *SignatureVerifier) Verify(method, path string, query url.Values, headers http.Header) (Caller, error) {
	params, err := extractSignatureParams(query)
	if err != nil {
		return Caller{}, err
	}

	if err := v.validateScope(params); err != nil {
		return Caller{}, err
	}

	cred, err := v.resolver.Resolve(params.accessKey)
	if err != nil {
		return Caller{}, fmt.Errorf("resolve access key: %w", err)
	}

	expected := computeSignature(cred.SecretKey, method, path, query, headers,
		params.requestTime, params.dateStamp, params.region, params.service, params.signedHeaders)

	if !hmac.Equal([]byte(expected), []byte(params.signature)) {
		return Caller{}, fmt.Errorf("signature mismatch: %w", ErrUnauthorized)
	}

	return Caller{OwnerID: cred.OwnerID}, nil
}

// Presign signs a request with query-string SigV4 parameters, producing the
// counterpart of Verify. The returned values include the original query plus
// the X-Amz-* parameters; callers encode them onto the request URL.
func Presign(method, path string, query url.Values, host string, cfg AuthConfig, accessKey, secretKey string, expires int, now time.Time) (url.Values, error) {
	if expires <= 0 || expires > MaxExpiresSeconds {
		return nil, fmt.Errorf("presign: expires must be between 1 and %d seconds", MaxExpiresSeconds)
	}

	now = now.UTC()
	dateStamp := now.Format(DateFormat)

	signed := url.Values{}
	for k, vs := range query {
		signed[k] = vs
	}
	signed.Set("X-Amz-Algorithm", SignatureAlgorithm)
	signed.Set("X-Amz-Credential", strings.Join([]string{accessKey, dateStamp, cfg.Region, cfg.Service, "aws4_request"}, "/"))
	signed.Set("X-Amz-Date", now.Format(DateTimeFormat))
	signed.Set("X-Amz-Expires", strconv.Itoa(expires))
	signed.Set("X-Amz-SignedHeaders", "host")

	headers := http.Header{}
	headers.Set("Host", host)

	signature := computeSignature(secretKey, method, path, signed, headers,
		now, dateStamp, cfg.Region, cfg.Service, "host")
	signed.Set("X-Amz-Signature", signature)

	return signed, nil
}

type signatureParams struct {
	accessKey     string
	dateStamp     string
	region        string
	service       string
	requestTime   time.Time
	expires       int
	signedHeaders string
	signature     string
}

func extractSignatureParams(query url.Values) (*signatureParams, error) {
	algorithm := query.Get("X-Amz-Algorithm")
	credential := query.Get("X-Amz-Credential")
	date := query.Get("X-Amz-Date")
	expiresStr := query.Get("X-Amz-Expires")
	signedHeaders := query.Get("X-Amz-SignedHeaders")
	signature := query.Get("X-Amz-Signature")

	if algorithm == "" || credential == "" || date == "" ||
		expiresStr == "" || signedHeaders == "" || signature == "" {
		return nil, fmt.Errorf("missing required signature parameters: %w", ErrUnauthorized)
	}

	if algorithm != SignatureAlgorithm {
		return nil, fmt.Errorf("invalid algorithm: expected %s, got %s: %w", SignatureAlgorithm, algorithm, ErrUnauthorized)
	}

	requestTime, err := time.Parse(DateTimeFormat, date)
	if err != nil {
		return nil, fmt.Errorf("invalid X-Amz-Date format: %w", ErrUnauthorized)
	}

	expires, err := strconv.Atoi(expiresStr)
	if err != nil || expires <= 0 || expires > MaxExpiresSeconds {
		return nil, fmt.Errorf("invalid X-Amz-Expires: must be between 1 and %d: %w", MaxExpiresSeconds, ErrUnauthorized)
	}

	credParts := strings.Split(credential, "/")
	if len(credParts) != 5 || credParts[4] != "aws4_request" {
		return nil, fmt.Errorf("invalid X-Amz-Credential format: %w", ErrUnauthorized)
	}

	return &signatureParams{
		accessKey:     credParts[0],
		dateStamp:     credParts[1],
		region:        credParts[2],
		service:       credParts[3],
		requestTime:   requestTime,
		expires:       expires,
		signedHeaders: signedHeaders,
		signature:     signature,
	}, nil
}

func (v *SignatureVerifier) validateScope(params *signatureParams) error {
	if time.Now().After(params.requestTime.Add(time.Duration(params.expires) * time.Second)) {
		return fmt.Errorf("signature expired: %w", ErrUnauthorized)
	}

	if params.dateStamp != params.requestTime.Format(DateFormat) {
		return fmt.Errorf("credential date mismatch: %w", ErrUnauthorized)
	}

	if params.region != v.config.Region {
		return fmt.Errorf("region mismatch: expected %s, got %s: %w", v.config.Region, params.region, ErrUnauthorized)
	}

	if params.service != v.config.Service {
		return fmt.Errorf("service mismatch: expected %s, got %s: %w", v.config.Service, params.service, ErrUnauthorized)
	}

	return nil
}

func computeSignature(
	secretKey, method, path string,
	query url.Values,
	headers http.Header,
	requestTime time.Time,
	dateStamp, region, service, signedHeaders string,
) string {
	canonicalRequest := strings.Join([]string{
		method,
		path,
		canonicalQueryString(query),
		canonicalHeaders(headers, signedHeaders),
		signedHeaders,
		"UNSIGNED-PAYLOAD",
	}, "\n")

	credentialScope := strings.Join([]string{dateStamp, region, service, "aws4_request"}, "/")
	stringToSign := strings.Join([]string{
		SignatureAlgorithm,
		requestTime.Format(DateTimeFormat),
		credentialScope,
		sha256Hex(canonicalRequest),
	}, "\n")

	kDate := hmacSHA256([]byte("AWS4"+secretKey), []byte(dateStamp))
	kRegion := hmacSHA256(kDate, []byte(region))
	kService := hmacSHA256(kRegion, []byte(service))
	kSigning := hmacSHA256(kService, []byte("aws4_request"))

	return hex.EncodeToString(hmacSHA256(kSigning, []byte(stringToSign)))
}

// canonicalHeaders builds the canonical headers string from the signed
// headers list. Names are sorted and lowercase by convention.
func canonicalHeaders(headers http.Header, signedHeaders string) string {
	names := strings.Split(signedHeaders, ";")
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteString(":")
		b.WriteString(strings.TrimSpace(headers.Get(name)))
		b.WriteString("\n")
	}
	return b.String()
}

func canonicalQueryString(query url.Values) string {
	params := url.Values{}
	for k, v := range query {
		if k != "X-Amz-Signature" {
			params[k] = v
		}
	}
	return params.Encode()
}

func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}

func sha256Hex(data string) string {
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}
