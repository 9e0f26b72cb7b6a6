package main

import (
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"

	"github.com/thebagchi/x509der-go/lib/asn1time"
)

const (
	FORMAT_DER = "der"
	FORMAT_PEM = "pem"

	// DEFAULT_VALIDITY is used when neither notAfter nor validity is set
	DEFAULT_VALIDITY = 365 * 24 * time.Hour
)

// Profile describes the certificate to generate. It can be loaded from a
// YAML file; command line flags override individual fields.
type Profile struct {
	// NotBefore is RFC 3339 or seconds since the epoch. Empty means now.
	NotBefore string `json:"notBefore,omitempty"`

	// NotAfter is RFC 3339 or seconds since the epoch. Takes precedence
	// over Validity.
	NotAfter string `json:"notAfter,omitempty"`

	// Validity is a duration added to NotBefore, e.g. "8760h".
	Validity string `json:"validity,omitempty"`

	// MaxNotAfter selects 9999-12-31T23:59:59Z as NotAfter.
	MaxNotAfter bool `json:"maxNotAfter,omitempty"`

	// Key is a PEM encoded PKCS #8 Ed25519 private key. Empty generates
	// a new key.
	Key string `json:"key,omitempty"`

	// KeyOutput receives the private key as PEM when set.
	KeyOutput string `json:"keyOutput,omitempty"`

	// Output receives the certificate, "-" for standard output.
	Output string `json:"output,omitempty"`

	// Format is "der" or "pem".
	Format string `json:"format,omitempty"`
}

// LoadProfile reads a YAML profile from path.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if nil != err {
		return nil, errors.Wrap(err, "read profile")
	}
	profile := &Profile{}
	if err := yaml.UnmarshalStrict(data, profile); nil != err {
		return nil, errors.Wrapf(err, "parse profile %s", path)
	}
	return profile, nil
}

// Validate checks the fields that do not depend on the clock.
func (p *Profile) Validate() error {
	switch p.Format {
	case "", FORMAT_DER, FORMAT_PEM:
	default:
		return errors.Errorf("unknown format %q, want %q or %q", p.Format, FORMAT_DER, FORMAT_PEM)
	}
	if p.MaxNotAfter && p.NotAfter != "" {
		return errors.New("maxNotAfter and notAfter are mutually exclusive")
	}
	return nil
}

// Window resolves the validity window to seconds since the epoch.
func (p *Profile) Window(now time.Time) (notBefore, notAfter uint64, err error) {
	start := now
	if p.NotBefore != "" {
		if start, err = parseInstant(p.NotBefore); nil != err {
			return 0, 0, errors.Wrap(err, "notBefore")
		}
	}

	var end time.Time
	switch {
	case p.MaxNotAfter:
		end = time.Unix(asn1time.MAX_TIMESTAMP, 0)
	case p.NotAfter != "":
		if end, err = parseInstant(p.NotAfter); nil != err {
			return 0, 0, errors.Wrap(err, "notAfter")
		}
	default:
		validity := DEFAULT_VALIDITY
		if p.Validity != "" {
			if validity, err = time.ParseDuration(p.Validity); nil != err {
				return 0, 0, errors.Wrap(err, "validity")
			}
		}
		if validity <= 0 {
			return 0, 0, errors.Errorf("validity %s must be positive", validity)
		}
		end = start.Add(validity)
	}

	if start.Unix() < 0 {
		return 0, 0, errors.Errorf("notBefore %s is before the Unix epoch", start.UTC().Format(time.RFC3339))
	}
	if end.Before(start) {
		return 0, 0, errors.Errorf("notAfter %s is before notBefore %s",
			end.UTC().Format(time.RFC3339), start.UTC().Format(time.RFC3339))
	}
	return uint64(start.Unix()), uint64(end.Unix()), nil
}

// parseInstant accepts RFC 3339 or decimal seconds since the epoch.
func parseInstant(value string) (time.Time, error) {
	if seconds, err := strconv.ParseInt(value, 10, 64); nil == err {
		return time.Unix(seconds, 0), nil
	}
	instant, err := time.Parse(time.RFC3339, value)
	if nil != err {
		return time.Time{}, errors.Errorf("%q is neither RFC 3339 nor seconds since the epoch", value)
	}
	return instant, nil
}
