package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spaolacci/murmur3"
)

// AppVersion is the mobile application version the client identifies as.
const AppVersion = "10.26.0"

// DeviceModel is the hardware profile a Device advertises in its user agent.
type DeviceModel struct {
	AndroidVersion string // e.g. "23/6.0.1"
	DPI            string
	Resolution     string
	Manufacturer   string
	Model          string
	Device         string
	CPU            string
}

var deviceModels = []DeviceModel{
	{"23/6.0.1", "640dpi", "1440x2560", "samsung", "SM-G930F", "herolte", "samsungexynos8890"},
	{"24/7.0", "480dpi", "1080x1920", "samsung", "SM-G935F", "hero2lte", "samsungexynos8890"},
	{"25/7.1.1", "420dpi", "1080x1920", "Google", "Pixel", "sailfish", "qcom"},
	{"26/8.0.0", "560dpi", "1440x2560", "HUAWEI", "MHA-L29", "HWMHA", "hi3660"},
	{"23/6.0", "480dpi", "1080x1920", "LGE", "LG-H850", "h1", "h1"},
}

// Device is the immutable device profile bound to one account.
// The same username always yields the same profile so that persisted
// cookies stay consistent with the identity presented to the platform.
type Device struct {
	username string
	id       string
	uuid     string
	phoneID  string
	adID     string
	model    DeviceModel
	language string
}

// NewDevice derives a deterministic device profile for username.
func NewDevice(username string) (*Device, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrMissingArgument.WithDetails("username")
	}

	seed := []byte(strings.ToLower(username))
	h1, h2 := murmur3.Sum128(seed)

	return &Device{
		username: username,
		id:       fmt.Sprintf("android-%016x", h1),
		uuid:     uuid.NewSHA1(uuid.NameSpaceOID, append([]byte("device:"), seed...)).String(),
		phoneID:  uuid.NewSHA1(uuid.NameSpaceOID, append([]byte("phone:"), seed...)).String(),
		adID:     uuid.NewSHA1(uuid.NameSpaceOID, append([]byte("adid:"), seed...)).String(),
		model:    deviceModels[h2%uint64(len(deviceModels))],
		language: "en_US",
	}, nil
}

// Username returns the account username the device was derived from.
func (d *Device) Username() string { return d.username }

// ID returns the android device id ("android-<16 hex>").
func (d *Device) ID() string { return d.id }

// UUID returns the device uuid sent as "guid".
func (d *Device) UUID() string { return d.uuid }

// PhoneID returns the phone id sent at login.
func (d *Device) PhoneID() string { return d.phoneID }

// AdID returns the advertising id.
func (d *Device) AdID() string { return d.adID }

// Model returns the hardware profile.
func (d *Device) Model() DeviceModel { return d.model }

// UserAgent returns the user agent string of the mobile application.
func (d *Device) UserAgent() string {
	m := d.model
	return fmt.Sprintf("Instagram %s Android (%s; %s; %s; %s; %s; %s; %s; %s)",
		AppVersion, m.AndroidVersion, m.DPI, m.Resolution, m.Manufacturer,
		m.Model, m.Device, m.CPU, d.language)
}
