// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package settings holds the runtime-tunable configuration of the library.

Values live as key/value rows in system.setting and are served from an
in-memory snapshot. The snapshot only changes on an explicit reload: after an
update on this instance, or when a peer announces a change over Redis.
*/
package settings

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/taibuivan/yomira-shelf/internal/platform/validate"
)

// # Keys

const (
	KeySiteName         = "site_name"
	KeyMaxUploadBytes   = "max_upload_bytes"
	KeyDegradedApproval = "degraded_approval"
	KeySubmissionsOpen  = "submissions_open"
)

// Upload size bounds accepted by [Settings.Validate].
const (
	MinUploadBytes = 1 << 10
	MaxUploadBytes = 512 << 20
)

// # Entity

// Settings is the typed view of the setting rows.
type Settings struct {
	SiteName string `json:"site_name"`

	// MaxUploadBytes caps the size of a submitted or stored document.
	MaxUploadBytes int64 `json:"max_upload_bytes"`

	// DegradedApproval lets approval proceed when the staged file is missing
	// or cannot be moved, keeping the recorded path. Off means approval fails.
	DegradedApproval bool `json:"degraded_approval"`

	// SubmissionsOpen gates new submissions. Review keeps working when closed.
	SubmissionsOpen bool `json:"submissions_open"`
}

// Defaults returns the settings used before anything is persisted.
func Defaults(maxUploadBytes int64) Settings {
	return Settings{
		SiteName:         "Shelf",
		MaxUploadBytes:   maxUploadBytes,
		DegradedApproval: false,
		SubmissionsOpen:  true,
	}
}

// Validate checks the bounds of every field.
func (settings Settings) Validate() error {
	v := &validate.Validator{}

	length := utf8.RuneCountInString(strings.TrimSpace(settings.SiteName))
	v.Custom(KeySiteName, length < 1 || length > 120, "Must be between 1 and 120 characters")
	v.Custom(KeyMaxUploadBytes,
		settings.MaxUploadBytes < MinUploadBytes || settings.MaxUploadBytes > MaxUploadBytes,
		fmt.Sprintf("Must be between %d and %d bytes", MinUploadBytes, MaxUploadBytes))

	return v.Err()
}

// Patch is a partial update. Nil fields keep their current value.
type Patch struct {
	SiteName         *string `json:"site_name"`
	MaxUploadBytes   *int64  `json:"max_upload_bytes"`
	DegradedApproval *bool   `json:"degraded_approval"`
	SubmissionsOpen  *bool   `json:"submissions_open"`
}

// Apply returns settings with the patch laid over it.
func (patch Patch) Apply(settings Settings) Settings {
	if patch.SiteName != nil {
		settings.SiteName = strings.TrimSpace(*patch.SiteName)
	}
	if patch.MaxUploadBytes != nil {
		settings.MaxUploadBytes = *patch.MaxUploadBytes
	}
	if patch.DegradedApproval != nil {
		settings.DegradedApproval = *patch.DegradedApproval
	}
	if patch.SubmissionsOpen != nil {
		settings.SubmissionsOpen = *patch.SubmissionsOpen
	}
	return settings
}

// # Row Codec

// encode flattens settings into setting rows.
func (settings Settings) encode() map[string]string {
	return map[string]string{
		KeySiteName:         settings.SiteName,
		KeyMaxUploadBytes:   strconv.FormatInt(settings.MaxUploadBytes, 10),
		KeyDegradedApproval: strconv.FormatBool(settings.DegradedApproval),
		KeySubmissionsOpen:  strconv.FormatBool(settings.SubmissionsOpen),
	}
}

// decode lays rows over base. Unknown keys are ignored; malformed values are
// reported by key and leave the base value in place.
func decode(base Settings, rows map[string]string) (Settings, []string) {
	var malformed []string

	for key, raw := range rows {
		switch key {
		case KeySiteName:
			base.SiteName = raw
		case KeyMaxUploadBytes:
			value, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				malformed = append(malformed, key)
				continue
			}
			base.MaxUploadBytes = value
		case KeyDegradedApproval:
			value, err := strconv.ParseBool(raw)
			if err != nil {
				malformed = append(malformed, key)
				continue
			}
			base.DegradedApproval = value
		case KeySubmissionsOpen:
			value, err := strconv.ParseBool(raw)
			if err != nil {
				malformed = append(malformed, key)
				continue
			}
			base.SubmissionsOpen = value
		}
	}

	return base, malformed
}
