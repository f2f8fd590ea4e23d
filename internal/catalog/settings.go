package catalog

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/aquahimiya/catalogd/internal/auth"
	"github.com/aquahimiya/catalogd/internal/domain"
	"github.com/aquahimiya/catalogd/internal/store"
	"github.com/aquahimiya/catalogd/pkg/common"
)

const DefaultMinPasswordLen = 6

type SettingsOptions struct {
	BootstrapPassword string
	MinPasswordLen    int
}

// SettingsRepository manages the single settings record. It also stores the
// admin session for the auth service.
type SettingsRepository struct {
	store  *store.Store
	events Publisher
	opts   SettingsOptions
}

var _ auth.TokenStore = (*SettingsRepository)(nil)

func NewSettingsRepository(st *store.Store, events Publisher, opts SettingsOptions) *SettingsRepository {
	if opts.MinPasswordLen <= 0 {
		opts.MinPasswordLen = DefaultMinPasswordLen
	}
	return &SettingsRepository{store: st, events: publisherOrNop(events), opts: opts}
}

// EnsureDefaults writes the default public settings when no settings
// document exists yet.
func (r *SettingsRepository) EnsureDefaults(ctx context.Context) error {
	var doc settingsDoc
	err := r.store.Update(ctx, domain.TableSettings, &doc, func() error {
		if len(doc) > 0 {
			return store.ErrSkipWrite
		}
		doc = settingsDoc{}
		defaults := domain.DefaultPublicSettings()
		for k, v := range publicValues(defaults) {
			doc[k] = v
		}
		return nil
	})
	return errors.Wrap(err, "init settings")
}

func (r *SettingsRepository) load(ctx context.Context) (settingsDoc, error) {
	if !r.store.Exists(domain.TableSettings) {
		if err := r.EnsureDefaults(ctx); err != nil {
			return nil, err
		}
	}
	var doc settingsDoc
	if err := r.store.Read(ctx, domain.TableSettings, &doc); err != nil {
		return nil, errors.Wrap(err, "read settings")
	}
	if doc == nil {
		doc = settingsDoc{}
	}
	return doc, nil
}

// Get returns the full record, private fields included.
func (r *SettingsRepository) Get(ctx context.Context) (*domain.Settings, error) {
	doc, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.settings(), nil
}

// Public returns the settings any visitor may see.
func (r *SettingsRepository) Public(ctx context.Context) (domain.PublicSettings, error) {
	doc, err := r.load(ctx)
	if err != nil {
		return domain.PublicSettings{}, err
	}
	return doc.public(), nil
}

// Credentials implements auth.TokenStore.
func (r *SettingsRepository) Credentials(ctx context.Context) (*domain.Settings, error) {
	return r.Get(ctx)
}

// SaveToken implements auth.TokenStore. Only the token keys are rewritten.
func (r *SettingsRepository) SaveToken(ctx context.Context, tok *domain.AuthToken) error {
	var doc settingsDoc
	err := r.store.Update(ctx, domain.TableSettings, &doc, func() error {
		if doc == nil {
			if tok == nil {
				return store.ErrSkipWrite
			}
			doc = settingsDoc{}
		}
		doc.setToken(tok)
		return nil
	})
	return errors.Wrap(err, "save token")
}

// Save merges the public fields present in the payload into the stored
// record. A non-empty newPassword also changes the admin password; it
// requires currentPassword to match. The session token is kept.
func (r *SettingsRepository) Save(ctx context.Context, in map[string]interface{}) (domain.PublicSettings, error) {
	updates := make(map[string]string)
	for _, k := range publicKeys {
		v, ok := in[k]
		if !ok {
			continue
		}
		s, err := toText(v)
		if err != nil {
			return domain.PublicSettings{}, domain.Errorf(domain.ErrValidation, "Invalid %s", k)
		}
		if k == "whatsappNumber" {
			s = common.DigitsOnly(s)
		}
		updates[k] = s
	}
	newPassword := cast.ToString(in["newPassword"])
	currentPassword := cast.ToString(in["currentPassword"])

	var (
		doc             settingsDoc
		passwordChanged bool
	)
	err := r.store.Update(ctx, domain.TableSettings, &doc, func() error {
		if doc == nil {
			doc = settingsDoc{}
			for k, v := range publicValues(domain.DefaultPublicSettings()) {
				doc[k] = v
			}
		}
		if newPassword != "" {
			if !auth.CheckPassword(doc.passwordHash(), currentPassword, r.opts.BootstrapPassword) {
				return domain.Errorf(domain.ErrUnauthorized, "Invalid current password")
			}
			if len([]rune(newPassword)) < r.opts.MinPasswordLen {
				return domain.Errorf(domain.ErrValidation, "Password must be at least %d characters", r.opts.MinPasswordLen)
			}
			hash, err := auth.HashPassword(newPassword)
			if err != nil {
				return errors.Wrap(err, "hash password")
			}
			doc.setPasswordHash(hash)
			passwordChanged = true
		}
		for k, v := range updates {
			doc[k] = v
		}
		if len(updates) == 0 && !passwordChanged {
			return store.ErrSkipWrite
		}
		return nil
	})
	if err != nil {
		return domain.PublicSettings{}, errors.Wrap(err, "save settings")
	}

	if len(updates) > 0 {
		keys := make([]string, 0, len(updates))
		for k := range updates {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		publish(r.events, Event{Topic: TopicSettingsUpdated, Name: strings.Join(keys, ","), Affected: len(keys)})
	}
	if passwordChanged {
		publish(r.events, Event{Topic: TopicPasswordChanged})
	}
	return doc.public(), nil
}

func publicValues(p domain.PublicSettings) map[string]interface{} {
	return map[string]interface{}{
		"siteName":       p.SiteName,
		"whatsappNumber": p.WhatsappNumber,
		"phone":          p.Phone,
		"email":          p.Email,
		"address":        p.Address,
		"workingHours":   p.WorkingHours,
	}
}
