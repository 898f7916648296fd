package request

// RegisterRequest is the request body for creating an account
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	// Username is optional; a blank one is derived from the account
	Username string `json:"username"`
}

// LoginRequest is the request body for signing in
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PasswordResetRequest is the request body for requesting a reset email
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// ConfirmPasswordResetRequest is the request body for setting a new password from an emailed token
type ConfirmPasswordResetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// UpdateProfileRequest is the request body for editing a profile; omitted fields are unchanged
type UpdateProfileRequest struct {
	Username        *string `json:"username,omitempty"`
	ProfileImageURL *string `json:"profile_image_url,omitempty"`
}

// RepairProfileRequest is the request body for creating a missing profile
type RepairProfileRequest struct {
	Username string `json:"username"`
}
