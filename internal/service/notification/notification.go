// Package notification renders localized attendance messages and delivers
// them on a best-effort basis.
package notification

import (
	"context"
	"embed"
	"encoding/json"

	"attendance/workforce/internal/entity"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

type Kind string

const (
	CheckInSuccess  Kind = "check_in_success"
	CheckOutSuccess Kind = "check_out_success"
	FraudAlert      Kind = "fraud_alert"
)

// Sender delivers a rendered message to a phone number.
type Sender interface {
	Send(ctx context.Context, phone, message string) error
}

type Service struct {
	bundle        *i18n.Bundle
	sender        Sender
	defaultLocale string
	log           *zap.Logger
}

// NewService loads the embedded locale files. A nil sender disables
// delivery while still rendering.
func NewService(sender Sender, defaultLocale string, log *zap.Logger) (*Service, error) {
	if defaultLocale == "" {
		defaultLocale = "en"
	}

	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, errors.Wrap(err, "reading locales")
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile("locales/" + e.Name())
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", e.Name())
		}
		if _, err := bundle.ParseMessageFileBytes(data, e.Name()); err != nil {
			return nil, errors.Wrapf(err, "parsing %s", e.Name())
		}
	}

	return &Service{
		bundle:        bundle,
		sender:        sender,
		defaultLocale: defaultLocale,
		log:           log,
	}, nil
}

// Render localizes kind for locale, falling back to the default locale and
// then English.
func (s *Service) Render(locale string, kind Kind, data map[string]interface{}) (string, error) {
	l := i18n.NewLocalizer(s.bundle, locale, s.defaultLocale)

	return l.Localize(&i18n.LocalizeConfig{
		MessageID:    string(kind),
		TemplateData: data,
	})
}

// Notify renders and sends kind to the user. Failures are logged only.
func (s *Service) Notify(ctx context.Context, user entity.User, kind Kind, data map[string]interface{}) {
	if s == nil || s.sender == nil || user.Phone == nil || *user.Phone == "" {
		return
	}

	log := s.log.With(zap.Int("user_id", user.ID), zap.String("kind", string(kind)))

	locale := s.defaultLocale
	if user.Locale != nil && *user.Locale != "" {
		locale = *user.Locale
	}

	if data == nil {
		data = map[string]interface{}{}
	}
	if _, ok := data["Name"]; !ok && user.FullName != nil {
		data["Name"] = *user.FullName
	}

	msg, err := s.Render(locale, kind, data)
	if err != nil {
		log.Warn("rendering notification", zap.Error(err))
		return
	}

	if err := s.sender.Send(ctx, *user.Phone, msg); err != nil {
		log.Warn("sending notification", zap.Error(err))
	}
}
