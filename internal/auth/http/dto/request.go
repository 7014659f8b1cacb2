// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"encoding/base64"

	validation "github.com/jellydator/validation"

	authDomain "github.com/allisson/authguard/internal/auth/domain"
	behaviorDomain "github.com/allisson/authguard/internal/behavior/domain"
	biometricDomain "github.com/allisson/authguard/internal/biometric/domain"
	mfaDomain "github.com/allisson/authguard/internal/mfa/domain"
	customValidation "github.com/allisson/authguard/internal/validation"
)

// DevicePayload identifies the device a session will be bound to.
type DevicePayload struct {
	DeviceID  string `json:"device_id"`
	Name      string `json:"name"`
	UserAgent string `json:"user_agent"`
}

// ToDeviceInfo converts the payload to the domain device descriptor. The
// caller fills the IP address from the connection.
func (d DevicePayload) ToDeviceInfo(ipAddress string) authDomain.DeviceInfo {
	return authDomain.DeviceInfo{
		DeviceID:  d.DeviceID,
		Name:      d.Name,
		IPAddress: ipAddress,
		UserAgent: d.UserAgent,
	}
}

// LocationPayload is an optional geographic position attached to a request.
type LocationPayload struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ToCoordinate converts the payload to a domain coordinate.
func (l *LocationPayload) ToCoordinate() *behaviorDomain.Coordinate {
	if l == nil {
		return nil
	}
	return &behaviorDomain.Coordinate{Lat: l.Lat, Lon: l.Lon}
}

// LoginRequest contains the parameters for authenticating a subject.
type LoginRequest struct {
	Email    string           `json:"email"`
	Password string           `json:"password"`
	Device   DevicePayload    `json:"device"`
	Origin   string           `json:"origin"`
	Location *LocationPayload `json:"location"`
}

// Validate checks if the login request is valid.
func (r *LoginRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email,
			validation.Required,
			customValidation.Email,
		),
		validation.Field(&r.Password,
			validation.Required,
			customValidation.NotBlank,
		),
		validation.Field(&r.Device, validation.By(validateDevice)),
		validation.Field(&r.Location,
			validation.By(validateLocation),
		),
	)
}

// CompleteMFARequest contains the second step of a stepped-up login.
type CompleteMFARequest struct {
	SubjectID string        `json:"subject_id"`
	Code      string        `json:"code"`
	Device    DevicePayload `json:"device"`
}

// Validate checks if the complete MFA request is valid.
func (r *CompleteMFARequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.SubjectID,
			validation.Required,
			customValidation.NotBlank,
		),
		validation.Field(&r.Code,
			validation.Required,
			validation.Length(6, 6),
		),
		validation.Field(&r.Device, validation.By(validateDevice)),
	)
}

// RefreshTokenRequest contains the parameters for rotating a session.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Validate checks if the refresh token request is valid.
func (r *RefreshTokenRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.RefreshToken,
			validation.Required,
			customValidation.NotBlank,
		),
	)
}

// RevokeTokenRequest contains the parameters for revoking a refresh
// credential. The subject is taken from the authenticated claims.
type RevokeTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Validate checks if the revoke token request is valid.
func (r *RevokeTokenRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.RefreshToken,
			validation.Required,
			customValidation.NotBlank,
		),
	)
}

// GenerateChallengeRequest contains the parameters for issuing an MFA
// challenge to the authenticated subject.
type GenerateChallengeRequest struct {
	Method string `json:"method"`
}

// Validate checks if the generate challenge request is valid.
func (r *GenerateChallengeRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Method,
			validation.Required,
			validation.In(mfaDomain.MethodEmail, mfaDomain.MethodSMS, mfaDomain.MethodTOTP),
		),
	)
}

// VerifyChallengeRequest contains a challenge code submission.
type VerifyChallengeRequest struct {
	Code string `json:"code"`
}

// Validate checks if the verify challenge request is valid.
func (r *VerifyChallengeRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Code,
			validation.Required,
			validation.Length(6, 6),
		),
	)
}

// BiometricSamplePayload is one captured biometric sample. Data is the
// base64-encoded capture.
type BiometricSamplePayload struct {
	Modality string `json:"modality"`
	Data     string `json:"data"`
}

// BiometricVerifyRequest contains the parameters for a multi-modal
// biometric verification attempt.
type BiometricVerifyRequest struct {
	Samples []BiometricSamplePayload `json:"samples"`
}

// Validate checks if the biometric verify request is valid.
func (r *BiometricVerifyRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Samples,
			validation.Required,
			validation.Each(validation.By(validateBiometricSample)),
		),
	)
}

// ToSamples decodes the payloads into domain samples.
func (r *BiometricVerifyRequest) ToSamples() ([]biometricDomain.Sample, error) {
	samples := make([]biometricDomain.Sample, 0, len(r.Samples))
	for _, payload := range r.Samples {
		data, err := base64.StdEncoding.DecodeString(payload.Data)
		if err != nil {
			return nil, validation.NewError("validation_sample_data", "data must be base64 encoded")
		}
		samples = append(samples, biometricDomain.Sample{
			Modality: payload.Modality,
			Data:     data,
		})
	}
	return samples, nil
}

// validateDevice validates the device payload on login-shaped requests.
func validateDevice(value interface{}) error {
	device, ok := value.(DevicePayload)
	if !ok {
		return validation.NewError("validation_device_type", "must be a device object")
	}

	return validation.ValidateStruct(&device,
		validation.Field(&device.DeviceID,
			validation.Required,
			customValidation.NotBlank,
			customValidation.NoWhitespace,
			validation.Length(1, 255),
		),
		validation.Field(&device.Name,
			validation.Length(0, 255),
		),
	)
}

// validateLocation rejects coordinates outside the valid geographic range.
func validateLocation(value interface{}) error {
	location, ok := value.(*LocationPayload)
	if !ok {
		return validation.NewError("validation_location_type", "must be a location object")
	}
	if location == nil {
		return nil
	}

	return validation.ValidateStruct(location,
		validation.Field(&location.Lat, validation.Min(-90.0), validation.Max(90.0)),
		validation.Field(&location.Lon, validation.Min(-180.0), validation.Max(180.0)),
	)
}

// validateBiometricSample validates a single biometric sample payload.
func validateBiometricSample(value interface{}) error {
	sample, ok := value.(BiometricSamplePayload)
	if !ok {
		return validation.NewError("validation_sample_type", "must be a sample object")
	}

	return validation.ValidateStruct(&sample,
		validation.Field(&sample.Modality,
			validation.Required,
			validation.In(
				biometricDomain.ModalityFace,
				biometricDomain.ModalityFingerprint,
				biometricDomain.ModalityVoice,
			),
		),
		validation.Field(&sample.Data,
			validation.Required,
			customValidation.NotBlank,
			customValidation.Base64,
		),
	)
}
