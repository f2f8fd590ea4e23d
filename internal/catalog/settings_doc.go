package catalog

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"

	"github.com/aquahimiya/catalogd/internal/domain"
)

// Keys of the settings document. The legacy keys were written by the PHP
// back office and are still read, then dropped on the next credential write.
const (
	keyPasswordHash = "adminPasswordHash"
	keyAuthToken    = "authToken"

	legacyKeyPassword     = "adminPassword"
	legacyKeyToken        = "_token"
	legacyKeyTokenExpires = "_tokenExpires"
)

var publicKeys = []string{"siteName", "whatsappNumber", "phone", "email", "address", "workingHours"}

// settingsDoc is the raw settings document. It is kept as a map so that
// writes merge into whatever keys are already stored.
type settingsDoc map[string]interface{}

func (d settingsDoc) public() domain.PublicSettings {
	out := domain.DefaultPublicSettings()
	values := make(map[string]interface{}, len(publicKeys))
	for _, k := range publicKeys {
		if v, ok := d[k]; ok && v != nil {
			values[k] = v
		}
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err == nil {
		_ = dec.Decode(values)
	}
	return out
}

func (d settingsDoc) passwordHash() string {
	if h := cast.ToString(d[keyPasswordHash]); h != "" {
		return h
	}
	return cast.ToString(d[legacyKeyPassword])
}

func (d settingsDoc) setPasswordHash(hash string) {
	d[keyPasswordHash] = hash
	delete(d, legacyKeyPassword)
}

func (d settingsDoc) token() *domain.AuthToken {
	if raw, ok := d[keyAuthToken].(map[string]interface{}); ok {
		tok := &domain.AuthToken{Token: cast.ToString(raw["token"])}
		if tok.Token == "" {
			return nil
		}
		tok.ExpiresAt = parseExpiry(raw["expiresAt"])
		return tok
	}
	legacy := cast.ToString(d[legacyKeyToken])
	if legacy == "" {
		return nil
	}
	return &domain.AuthToken{Token: legacy, ExpiresAt: parseExpiry(d[legacyKeyTokenExpires])}
}

func (d settingsDoc) setToken(tok *domain.AuthToken) {
	delete(d, legacyKeyToken)
	delete(d, legacyKeyTokenExpires)
	if tok == nil || tok.Token == "" {
		delete(d, keyAuthToken)
		return
	}
	entry := map[string]interface{}{"token": tok.Token}
	if !tok.ExpiresAt.IsZero() {
		entry["expiresAt"] = tok.ExpiresAt.UTC().Format(time.RFC3339)
	}
	d[keyAuthToken] = entry
}

func (d settingsDoc) settings() *domain.Settings {
	return &domain.Settings{
		PublicSettings:    d.public(),
		AdminPasswordHash: d.passwordHash(),
		AuthToken:         d.token(),
	}
}

// parseExpiry accepts RFC3339 or other date strings, and unix timestamps in
// seconds or milliseconds. Zero, empty or unparsable values mean no expiry.
func parseExpiry(v interface{}) time.Time {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return time.Time{}
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t
		}
		if n, err := cast.ToInt64E(s); err == nil {
			return unixExpiry(n)
		}
		if t, err := dateparse.ParseIn(s, time.UTC); err == nil {
			return t
		}
		return time.Time{}
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return time.Time{}
	}
	return unixExpiry(n)
}

func unixExpiry(n int64) time.Time {
	switch {
	case n <= 0:
		return time.Time{}
	case n > 1e12:
		return time.UnixMilli(n).UTC()
	default:
		return time.Unix(n, 0).UTC()
	}
}
